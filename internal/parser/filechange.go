package parser

import "github.com/tidwall/gjson"

// fileChangeTools maps the tools whose input names the file
// they modify to the change type they record.
var fileChangeTools = map[string]string{
	"Write":        "write",
	"NotebookEdit": "write",
	"Edit":         "edit",
	"MultiEdit":    "edit",
}

// fileChangeFor returns the file change recorded by a tool call,
// if any.
func fileChangeFor(tc ToolCall) (FileChange, bool) {
	changeType, ok := fileChangeTools[tc.Name]
	if !ok || !gjson.Valid(tc.Input) {
		return FileChange{}, false
	}
	input := gjson.Parse(tc.Input)
	path := input.Get("file_path").Str
	if path == "" {
		path = input.Get("notebook_path").Str
	}
	if path == "" {
		return FileChange{}, false
	}
	return FileChange{
		Sequence:   tc.Sequence,
		FilePath:   path,
		ChangeType: changeType,
	}, true
}

// fileChanges derives file changes from tool calls in order.
func fileChanges(calls []ToolCall) []FileChange {
	var out []FileChange
	for _, tc := range calls {
		if fc, ok := fileChangeFor(tc); ok {
			out = append(out, fc)
		}
	}
	return out
}
