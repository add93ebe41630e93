package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileChangeFor(t *testing.T) {
	tests := []struct {
		name   string
		call   ToolCall
		want   FileChange
		wantOK bool
	}{
		{
			"write",
			ToolCall{Sequence: 2, Name: "Write",
				Input: `{"file_path":"/a/main.go","content":"x"}`},
			FileChange{Sequence: 2, FilePath: "/a/main.go",
				ChangeType: "write"},
			true,
		},
		{
			"edit",
			ToolCall{Sequence: 1, Name: "Edit",
				Input: `{"file_path":"b.go","old_string":"a"}`},
			FileChange{Sequence: 1, FilePath: "b.go",
				ChangeType: "edit"},
			true,
		},
		{
			"multi edit",
			ToolCall{Name: "MultiEdit", Input: `{"file_path":"c.go"}`},
			FileChange{FilePath: "c.go", ChangeType: "edit"},
			true,
		},
		{
			"notebook uses notebook_path",
			ToolCall{Name: "NotebookEdit",
				Input: `{"notebook_path":"n.ipynb"}`},
			FileChange{FilePath: "n.ipynb", ChangeType: "write"},
			true,
		},
		{
			"read is not a change",
			ToolCall{Name: "Read", Input: `{"file_path":"a.go"}`},
			FileChange{},
			false,
		},
		{
			"missing path",
			ToolCall{Name: "Write", Input: `{}`},
			FileChange{},
			false,
		},
		{
			"nameless call",
			ToolCall{Input: `{"file_path":"a.go"}`},
			FileChange{},
			false,
		},
		{
			"input not json",
			ToolCall{Name: "Edit", Input: `file_path=a.go`},
			FileChange{},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fileChangeFor(tt.call)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
