package parser

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
)

// ParseJSONL normalizes a line-delimited session log. lines
// holds the non-blank lines in file order, each valid JSON.
// The session id is the file stem and the project path is
// decoded from the parent directory name. When no line carries
// a timestamp, the file modification time stands in for both
// start and end.
func ParseJSONL(lines []string, src Source) (Result, error) {
	res := Result{
		Format:    FormatJSONL,
		SessionID: src.Stem(),
	}
	if p, ok := DecodeProjectPath(src.ParentDir()); ok {
		res.ProjectPath = p
	}

	var (
		version   string
		cwd       string
		gitBranch string
	)
	for _, line := range lines {
		entry := gjson.Parse(line)
		if !entry.IsObject() {
			continue
		}

		var ts time.Time
		if v, ok := AliasTimestamp.Lookup(entry); ok {
			if t, ok := parseTimestamp(v); ok {
				ts = t
				if res.StartedAt.IsZero() {
					res.StartedAt = t
				}
				res.EndedAt = t
			}
		}
		version = higherVersion(version, entry.Get("version").Str)
		if cwd == "" {
			cwd = entry.Get("cwd").Str
		}
		if gitBranch == "" {
			gitBranch = entry.Get("gitBranch").Str
		}

		switch typ := entry.Get("type").Str; {
		case typ == RoleUser || typ == RoleAssistant:
			res.addConversationEntry(entry, typ, ts)
		case typ == "message" || entry.Get("role").Exists():
			role := entry.Get("role").String()
			if role == "" {
				role = RoleUnknown
			}
			res.Messages = append(res.Messages, Message{
				Sequence:    len(res.Messages),
				Timestamp:   ts,
				Role:        role,
				Content:     ExtractContent(entry.Get("content")),
				ContentType: "text",
			})
		case typ == "tool_call":
			// Attached to the most recent message, -1 if none.
			res.ToolCalls = append(res.ToolCalls,
				jsonToolCall(entry, len(res.Messages)-1))
		}
	}

	if res.StartedAt.IsZero() {
		res.StartedAt = src.ModTime.UTC()
		res.EndedAt = res.StartedAt
	}
	res.FileChanges = fileChanges(res.ToolCalls)

	res.Metadata = map[string]any{
		"source":     string(FormatJSONL),
		"line_count": len(lines),
	}
	if version != "" {
		res.Metadata["client_version"] = strings.TrimPrefix(version, "v")
	}
	if cwd != "" {
		res.Metadata["cwd"] = cwd
	}
	if gitBranch != "" {
		res.Metadata["git_branch"] = gitBranch
	}
	return res, nil
}

// addConversationEntry handles a user or assistant entry whose
// payload sits under "message" or, in older logs, at the top
// level. The entry type is the role.
func (res *Result) addConversationEntry(
	entry gjson.Result, role string, ts time.Time,
) {
	payload := entry.Get("message")
	if !payload.IsObject() {
		payload = entry
	}
	seq := len(res.Messages)
	content := payload.Get("content")
	res.Messages = append(res.Messages, Message{
		Sequence:    seq,
		Timestamp:   ts,
		Role:        role,
		Content:     ExtractContent(content),
		ContentType: "text",
	})
	if role != RoleAssistant {
		return
	}

	if usage := payload.Get("usage"); usage.IsObject() && len(usage.Map()) > 0 {
		model := payload.Get("model").String()
		if model == "" {
			model = RoleUnknown
		}
		u := TokenUsage{
			MessageSequence:     seq,
			Timestamp:           ts,
			Model:               model,
			InputTokens:         usage.Get("input_tokens").Int(),
			OutputTokens:        usage.Get("output_tokens").Int(),
			CacheReadTokens:     usage.Get("cache_read_input_tokens").Int(),
			CacheCreationTokens: usage.Get("cache_creation_input_tokens").Int(),
		}
		res.TokensIn += u.InputTokens
		res.TokensOut += u.OutputTokens
		res.TokenUsage = append(res.TokenUsage, u)
	}

	if !content.IsArray() {
		return
	}
	content.ForEach(func(_, block gjson.Result) bool {
		if block.IsObject() && block.Get("type").Str == "tool_use" {
			input := "{}"
			if in := block.Get("input"); in.Exists() {
				input = in.Raw
			}
			res.ToolCalls = append(res.ToolCalls, ToolCall{
				Sequence: seq,
				Name:     block.Get("name").String(),
				Input:    input,
				Success:  true,
			})
		}
		return true
	})
}

// higherVersion returns whichever of cur and v is the higher
// semantic version. Strings that are not versions are ignored.
func higherVersion(cur, v string) string {
	if v == "" {
		return cur
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return cur
	}
	if cur == "" || semver.Compare(v, cur) > 0 {
		return v
	}
	return cur
}
