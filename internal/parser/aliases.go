package parser

import "github.com/tidwall/gjson"

// Alias is an ordered list of gjson paths that may hold the same
// logical field. The first path present with a non-null value
// wins.
type Alias []string

// Lookup returns the first non-null value of a in obj.
func (a Alias) Lookup(obj gjson.Result) (gjson.Result, bool) {
	for _, path := range a {
		r := obj.Get(path)
		if r.Exists() && r.Type != gjson.Null {
			return r, true
		}
	}
	return gjson.Result{}, false
}

// Field aliases recognized across session log versions.
var (
	AliasSessionID  = Alias{"sessionId", "id"}
	AliasMessages   = Alias{"messages", "conversation"}
	AliasTimestamp  = Alias{"timestamp", "ts"}
	AliasToolCalls  = Alias{"tool_calls", "toolCalls"}
	AliasToolName   = Alias{"name", "function.name"}
	AliasToolInput  = Alias{"input", "arguments"}
	AliasToolOutput = Alias{"output", "result"}
	AliasDuration   = Alias{"duration_ms", "durationMs"}
	AliasProject    = Alias{"cwd", "projectPath"}
	AliasStartedAt  = Alias{"startedAt", "timestamp"}
	AliasEndedAt    = Alias{"endedAt"}
	AliasTokensIn   = Alias{"tokensIn", "usage.input_tokens"}
	AliasTokensOut  = Alias{"tokensOut", "usage.output_tokens"}
)

// lookupString returns the first aliased value rendered as a
// string, or "" when none is present.
func lookupString(obj gjson.Result, a Alias) string {
	r, ok := a.Lookup(obj)
	if !ok {
		return ""
	}
	return r.String()
}

// rawOrString returns string values verbatim and any other JSON
// value as its raw text.
func rawOrString(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}
