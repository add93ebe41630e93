// Package testjsonl provides shared fixture builders for session
// log test data in JSONL, JSON and text form. Used by the
// parser, tags and sync test packages.
package testjsonl

import (
	"encoding/json"
	"strings"
)

// UserJSON returns a user entry as a JSON line.
func UserJSON(content, timestamp string, cwd ...string) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	}
	if len(cwd) > 0 {
		m["cwd"] = cwd[0]
	}
	return mustMarshal(m)
}

// AssistantJSON returns an assistant entry as a JSON line.
// content may be a string or a slice of content blocks.
func AssistantJSON(content any, timestamp string) string {
	m := map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "assistant",
			"content": content,
		},
	}
	return mustMarshal(m)
}

// Usage is the token usage of an assistant entry.
type Usage struct {
	Input         int
	Output        int
	CacheRead     int
	CacheCreation int
}

// AssistantUsageJSON returns an assistant entry carrying a
// model name and token usage as a JSON line.
func AssistantUsageJSON(
	content any, timestamp, model string, u Usage,
) string {
	msg := map[string]any{
		"role":    "assistant",
		"content": content,
		"usage": map[string]int{
			"input_tokens":                u.Input,
			"output_tokens":               u.Output,
			"cache_read_input_tokens":     u.CacheRead,
			"cache_creation_input_tokens": u.CacheCreation,
		},
	}
	if model != "" {
		msg["model"] = model
	}
	return mustMarshal(map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message":   msg,
	})
}

// TextBlock returns a text content block.
func TextBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// ToolUseBlock returns a tool_use content block.
func ToolUseBlock(id, name string, input any) map[string]any {
	return map[string]any{
		"type":  "tool_use",
		"id":    id,
		"name":  name,
		"input": input,
	}
}

// ToolResultBlock returns a tool_result content block. content
// may be a string or a slice of blocks.
func ToolResultBlock(toolUseID string, content any) map[string]any {
	return map[string]any{
		"type":        "tool_result",
		"tool_use_id": toolUseID,
		"content":     content,
	}
}

// ToolCallJSON returns a standalone tool_call entry as a JSON
// line.
func ToolCallJSON(name string, input any, output string) string {
	m := map[string]any{
		"type":  "tool_call",
		"name":  name,
		"input": input,
	}
	if output != "" {
		m["output"] = output
	}
	return mustMarshal(m)
}

// MessageJSON returns a legacy message entry with a bare role
// field as a JSON line.
func MessageJSON(role, content, timestamp string) string {
	m := map[string]any{
		"role":    role,
		"content": content,
	}
	if timestamp != "" {
		m["timestamp"] = timestamp
	}
	return mustMarshal(m)
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SessionBuilder constructs JSONL session content using a
// fluent API.
type SessionBuilder struct {
	lines []string
}

// NewSessionBuilder returns a new empty SessionBuilder.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{}
}

// AddUser appends a user entry.
func (b *SessionBuilder) AddUser(
	timestamp, content string, cwd ...string,
) *SessionBuilder {
	b.lines = append(b.lines, UserJSON(content, timestamp, cwd...))
	return b
}

// AddAssistant appends an assistant entry with one text block.
func (b *SessionBuilder) AddAssistant(
	timestamp, text string,
) *SessionBuilder {
	b.lines = append(b.lines, AssistantJSON(
		[]map[string]any{TextBlock(text)}, timestamp,
	))
	return b
}

// AddAssistantUsage appends an assistant entry with one text
// block and token usage.
func (b *SessionBuilder) AddAssistantUsage(
	timestamp, text, model string, u Usage,
) *SessionBuilder {
	b.lines = append(b.lines, AssistantUsageJSON(
		[]map[string]any{TextBlock(text)}, timestamp, model, u,
	))
	return b
}

// AddToolUse appends an assistant entry holding a single
// tool_use block.
func (b *SessionBuilder) AddToolUse(
	timestamp, id, name string, input any,
) *SessionBuilder {
	b.lines = append(b.lines, AssistantJSON(
		[]map[string]any{ToolUseBlock(id, name, input)}, timestamp,
	))
	return b
}

// AddRaw appends an arbitrary raw line.
func (b *SessionBuilder) AddRaw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *SessionBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline.
func (b *SessionBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}

// JSONMessage is one entry of a whole-document JSON session.
type JSONMessage struct {
	Role      string
	Content   any
	Timestamp string
	ToolCalls []map[string]any
}

// SessionJSON builds a whole-document JSON session. extra holds
// additional top-level fields such as "cwd" or "tokensIn".
func SessionJSON(
	id string, msgs []JSONMessage, extra map[string]any,
) string {
	var out []map[string]any
	for _, m := range msgs {
		entry := map[string]any{
			"role":    m.Role,
			"content": m.Content,
		}
		if m.Timestamp != "" {
			entry["timestamp"] = m.Timestamp
		}
		if len(m.ToolCalls) > 0 {
			entry["tool_calls"] = m.ToolCalls
		}
		out = append(out, entry)
	}
	doc := map[string]any{"messages": out}
	if id != "" {
		doc["sessionId"] = id
	}
	for k, v := range extra {
		doc[k] = v
	}
	return mustMarshal(doc)
}

// Transcript builds a text transcript from alternating speaker
// and text pairs, e.g. Transcript("Human", "hi", "Assistant",
// "hello").
func Transcript(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pairs[i])
		b.WriteString(": ")
		b.WriteString(pairs[i+1])
		b.WriteString("\n")
	}
	return b.String()
}

func mustMarshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
