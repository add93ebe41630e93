package parser

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Timestamp constants for test data.
const (
	tsZero   = "2024-01-01T00:00:00Z"
	tsZeroS1 = "2024-01-01T00:00:01Z"
	tsZeroS2 = "2024-01-01T00:00:02Z"
	tsEarly  = "2024-01-01T10:00:00Z"
	tsLate   = "2024-01-01T10:01:00Z"
)

var testMtime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// mustTime parses an RFC 3339 constant.
func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return ts
}

// testSource returns a Source for a file under the encoded
// project directory dir.
func testSource(dir, name string) Source {
	return Source{
		Path:    filepath.Join("/logs/projects", dir, name),
		ModTime: testMtime,
	}
}

func generateLargeString(size int) string {
	return strings.Repeat("x", size)
}

func assertMessage(
	t *testing.T, m Message, wantSeq int, wantRole, wantContent string,
) {
	t.Helper()
	if m.Sequence != wantSeq {
		t.Errorf("sequence = %d, want %d", m.Sequence, wantSeq)
	}
	if m.Role != wantRole {
		t.Errorf("role = %q, want %q", m.Role, wantRole)
	}
	if m.Content != wantContent {
		t.Errorf("content = %q, want %q", m.Content, wantContent)
	}
}

func assertMessageCount(t *testing.T, res Result, want int) {
	t.Helper()
	if len(res.Messages) != want {
		t.Fatalf("message count = %d, want %d",
			len(res.Messages), want)
	}
}

func assertToolCalls(t *testing.T, got, want []ToolCall) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("tool calls count = %d, want %d (%+v)",
			len(got), len(want), got)
	}
	for i := range want {
		if got[i].Name != want[i].Name {
			t.Errorf("tool_calls[%d].Name = %q, want %q",
				i, got[i].Name, want[i].Name)
		}
		if got[i].Sequence != want[i].Sequence {
			t.Errorf("tool_calls[%d].Sequence = %d, want %d",
				i, got[i].Sequence, want[i].Sequence)
		}
		if want[i].Input != "" && got[i].Input != want[i].Input {
			t.Errorf("tool_calls[%d].Input = %q, want %q",
				i, got[i].Input, want[i].Input)
		}
		if got[i].Success != want[i].Success {
			t.Errorf("tool_calls[%d].Success = %v, want %v",
				i, got[i].Success, want[i].Success)
		}
	}
}
