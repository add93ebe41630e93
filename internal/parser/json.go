package parser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesm/agentsdb/internal/timeutil"
)

// ParseJSON normalizes a session stored as a single JSON
// object. Field names are resolved through the alias tables in
// aliases.go.
func ParseJSON(root gjson.Result, src Source) (Result, error) {
	if !root.IsObject() {
		return Result{}, fmt.Errorf(
			"%w: root is %s, want object",
			ErrUnsupportedShape, root.Type,
		)
	}

	res := Result{
		Format:    FormatJSON,
		SessionID: lookupString(root, AliasSessionID),
	}
	if res.SessionID == "" {
		res.SessionID = src.Stem()
	}
	res.ProjectPath = lookupString(root, AliasProject)
	if v, ok := AliasStartedAt.Lookup(root); ok {
		res.StartedAt, _ = parseTimestamp(v)
	}
	if v, ok := AliasEndedAt.Lookup(root); ok {
		res.EndedAt, _ = parseTimestamp(v)
	}
	if v, ok := AliasTokensIn.Lookup(root); ok {
		res.TokensIn = v.Int()
	}
	if v, ok := AliasTokensOut.Lookup(root); ok {
		res.TokensOut = v.Int()
	}

	msgs, _ := AliasMessages.Lookup(root)
	msgs.ForEach(func(_, m gjson.Result) bool {
		if !m.IsObject() {
			return true
		}
		seq := len(res.Messages)
		role := m.Get("role").String()
		if role == "" {
			role = RoleUnknown
		}
		msg := Message{
			Sequence:    seq,
			Role:        role,
			Content:     ExtractContent(m.Get("content")),
			ContentType: "text",
		}
		if ts, ok := AliasTimestamp.Lookup(m); ok {
			msg.Timestamp, _ = parseTimestamp(ts)
		}
		res.Messages = append(res.Messages, msg)

		if role == RoleAssistant {
			calls, _ := AliasToolCalls.Lookup(m)
			calls.ForEach(func(_, tc gjson.Result) bool {
				if tc.IsObject() {
					res.ToolCalls = append(res.ToolCalls,
						jsonToolCall(tc, seq))
				}
				return true
			})
		}
		return true
	})

	res.FileChanges = fileChanges(res.ToolCalls)
	res.Metadata = jsonMetadata(root)
	return res, nil
}

func jsonToolCall(tc gjson.Result, seq int) ToolCall {
	call := ToolCall{
		Sequence: seq,
		Name:     lookupString(tc, AliasToolName),
		Input:    "{}",
		Success:  true,
	}
	if in, ok := AliasToolInput.Lookup(tc); ok {
		call.Input = rawOrString(in)
	}
	if out, ok := AliasToolOutput.Lookup(tc); ok {
		s := rawOrString(out)
		call.Output = &s
	}
	if v := tc.Get("success"); v.Exists() && v.Type != gjson.Null {
		call.Success = v.Bool()
	}
	if v, ok := AliasDuration.Lookup(tc); ok {
		ms := v.Int()
		call.DurationMS = &ms
	}
	return call
}

// jsonMetadata keeps every top-level field except the message
// arrays, whose content is stored as rows.
func jsonMetadata(root gjson.Result) map[string]any {
	skip := make(map[string]bool, len(AliasMessages))
	for _, k := range AliasMessages {
		skip[k] = true
	}
	meta := map[string]any{"source": string(FormatJSON)}
	root.ForEach(func(key, value gjson.Result) bool {
		if !skip[key.Str] && key.Str != "source" {
			meta[key.Str] = json.RawMessage(value.Raw)
		}
		return true
	})
	return meta
}

// parseTimestamp reads an RFC 3339 style string or a Unix epoch
// number in seconds or milliseconds.
func parseTimestamp(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.String:
		return timeutil.Parse(v.Str)
	case gjson.Number:
		t := timeutil.FromEpoch(v.Float())
		return t, !t.IsZero()
	}
	return time.Time{}, false
}
