package sync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/parser"
)

func TestToSessionWrite(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := "ok"
	res := parser.Result{
		Format:      parser.FormatJSONL,
		SessionID:   "s1",
		ProjectPath: "/home/dev/app",
		StartedAt:   t0,
		EndedAt:     t0.Add(time.Minute),
		Messages: []parser.Message{
			{Sequence: 0, Timestamp: t0, Role: "user",
				Content: "please fix this", ContentType: "text"},
			{Sequence: 1, Role: "assistant",
				Content: "done", ContentType: "text"},
		},
		ToolCalls: []parser.ToolCall{
			{Sequence: 1, Name: "Edit", Input: `{"file_path":"/a.go"}`,
				Output: &out, Success: true},
		},
		TokenUsage: []parser.TokenUsage{
			{MessageSequence: 1, Model: "opus",
				InputTokens: 10, OutputTokens: 4},
			{MessageSequence: 1, Model: "opus",
				InputTokens: 5, OutputTokens: 1},
		},
		FileChanges: []parser.FileChange{
			{Sequence: 1, FilePath: "/a.go", ChangeType: "edit"},
		},
		TokensIn:  999,
		TokensOut: 999,
		Metadata:  map[string]any{"source": "jsonl", "line_count": 2},
	}

	imported := t0.Add(time.Hour)
	w, err := toSessionWrite(res, "/logs/s1.jsonl", "abc", imported)
	require.NoError(t, err)

	s := w.Session
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 2, s.TotalMessages)
	assert.Equal(t, int64(15), s.TotalTokensIn, "usage records win")
	assert.Equal(t, int64(5), s.TotalTokensOut)
	assert.Equal(t, "2024-01-01T00:00:00Z", *s.StartedAt)
	assert.Equal(t, "2024-01-01T00:01:00Z", *s.EndedAt)
	assert.Equal(t, "2024-01-01T01:00:00Z", *s.ImportedAt)
	assert.Equal(t, "abc", *s.FileHash)
	assert.Equal(t, "/logs/s1.jsonl", *s.FilePath)
	assert.Equal(t, "jsonl", *s.SourceFormat)
	assert.Equal(t, "/home/dev/app", *s.ProjectPath)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(*s.RawMetadata), &meta))
	assert.Equal(t, "jsonl", meta["source"])

	require.Len(t, w.Messages, 2)
	assert.Equal(t, "2024-01-01T00:00:00Z", *w.Messages[0].Timestamp)
	assert.Nil(t, w.Messages[1].Timestamp)

	wantCalls := []db.ToolCall{{
		Sequence: 1, ToolName: "Edit", ToolInput: `{"file_path":"/a.go"}`,
		ToolOutput: &out, Success: true,
	}}
	if diff := cmp.Diff(wantCalls, w.ToolCalls); diff != "" {
		t.Errorf("tool calls mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, w.FileChanges, 1)
	assert.Equal(t, "/a.go", w.FileChanges[0].FilePath)
	require.Len(t, w.TokenUsage, 2)
	assert.Nil(t, w.TokenUsage[0].Timestamp)

	wantTags := []db.Tag{
		{Tag: "debugging", AutoGenerated: true},
		{Tag: "tool:Edit", AutoGenerated: true},
	}
	assert.Equal(t, wantTags, w.Tags)
}

func TestToSessionWriteDeclaredTotals(t *testing.T) {
	res := parser.Result{
		Format:    parser.FormatJSON,
		SessionID: "s2",
		Messages:  []parser.Message{{Role: "user", Content: "hi"}},
		TokensIn:  7,
		TokensOut: 3,
	}
	w, err := toSessionWrite(res, "/p", "h", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.Session.TotalTokensIn)
	assert.Equal(t, int64(3), w.Session.TotalTokensOut)
	assert.Nil(t, w.Session.ProjectPath)
	assert.Nil(t, w.Session.RawMetadata)
	assert.Nil(t, w.Session.StartedAt)
	assert.Empty(t, w.Tags)
}

func TestToDBToolCallsNamesNamelessCalls(t *testing.T) {
	got := toDBToolCalls([]parser.ToolCall{
		{Sequence: 0, Name: "Bash", Input: "{}", Success: true},
		{Sequence: 1, Input: "{}", Success: true},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "Bash", got[0].ToolName)
	assert.Equal(t, unknownToolName, got[1].ToolName)
}
