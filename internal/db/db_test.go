package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const (
	tsZero   = "2024-01-01T00:00:00Z"
	tsZeroS1 = "2024-01-01T00:00:01Z"
	tsZeroS2 = "2024-01-01T00:00:02Z"
	tsHour1  = "2024-01-01T01:00:00Z"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// requireFTS skips the test if FTS is not available.
func requireFTS(t *testing.T, d *DB) {
	t.Helper()
	if !d.HasFTS() {
		t.Skip("no FTS support")
	}
}

// sampleWrite returns a session with two messages, one tool
// call on the assistant message, one orphan tool call, token
// usage, a file change and two tags.
func sampleWrite(id, hash string) SessionWrite {
	return SessionWrite{
		Session: Session{
			ID:             id,
			ProjectPath:    Ptr("/home/u/proj"),
			StartedAt:      Ptr(tsZero),
			EndedAt:        Ptr(tsZeroS2),
			TotalMessages:  2,
			TotalTokensIn:  10,
			TotalTokensOut: 20,
			FileHash:       Ptr(hash),
			ImportedAt:     Ptr(tsHour1),
			RawMetadata:    Ptr(`{"source":"jsonl"}`),
			FilePath:       Ptr("/logs/" + id + ".jsonl"),
			SourceFormat:   Ptr("jsonl"),
		},
		Messages: []Message{
			{Sequence: 0, Timestamp: Ptr(tsZero), Role: "user",
				Content: "fix the login bug"},
			{Sequence: 1, Timestamp: Ptr(tsZeroS1), Role: "assistant",
				Content: "[Tool: Edit]"},
		},
		ToolCalls: []ToolCall{
			{Sequence: -1, ToolName: "Orphan", ToolInput: "{}",
				Success: true},
			{Sequence: 1, ToolName: "Edit",
				ToolInput: `{"file_path":"a.go"}`, Success: true},
		},
		TokenUsage: []TokenUsage{
			{MessageSequence: 1, Timestamp: Ptr(tsZeroS1),
				Model: "claude-x", InputTokens: 10,
				OutputTokens: 20, CacheReadTokens: 3,
				CacheCreationTokens: 4},
		},
		FileChanges: []FileChange{
			{Sequence: 1, FilePath: "a.go", ChangeType: "edit"},
		},
		Tags: []Tag{
			{Tag: "debugging", AutoGenerated: true},
			{Tag: "tool:Edit", AutoGenerated: true},
		},
	}
}

func writeSession(t *testing.T, d *DB, w SessionWrite) {
	t.Helper()
	if err := d.WriteSession(w); err != nil {
		t.Fatalf("WriteSession %s: %v", w.Session.ID, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "s.db")
	for i := range 2 {
		d, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		for _, col := range []string{"file_path", "source_format"} {
			ok, err := d.hasColumn("sessions", col)
			if err != nil || !ok {
				t.Errorf("column %s missing: %v", col, err)
			}
		}
		if err := d.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestSchemaCreatesInsightsForCollaborators(t *testing.T) {
	d := testDB(t)
	writeSession(t, d, sampleWrite("s1", "h1"))

	var n int
	err := d.Reader().QueryRow(
		"SELECT count(*) FROM insights",
	).Scan(&n)
	if err != nil {
		t.Fatalf("querying insights: %v", err)
	}
	if n != 0 {
		t.Errorf("insights rows = %d, want 0", n)
	}
}

func TestWriteSessionRoundTrip(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	w := sampleWrite("s1", "h1")
	writeSession(t, d, w)

	got, err := d.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if diff := cmp.Diff(&w.Session, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	msgs, err := d.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	for i, m := range msgs {
		if m.Sequence != i {
			t.Errorf("msgs[%d].Sequence = %d", i, m.Sequence)
		}
		if m.ContentType != "text" {
			t.Errorf("msgs[%d].ContentType = %q", i, m.ContentType)
		}
	}

	calls, err := d.GetToolCalls(ctx, "s1")
	if err != nil {
		t.Fatalf("GetToolCalls: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(calls))
	}
	// Attached calls come first, orphans last.
	if calls[0].ToolName != "Edit" ||
		calls[0].MessageID == nil ||
		*calls[0].MessageID != msgs[1].ID {
		t.Errorf("attached call = %+v, want message %d",
			calls[0], msgs[1].ID)
	}
	if calls[1].ToolName != "Orphan" || calls[1].MessageID != nil {
		t.Errorf("orphan call = %+v, want nil message id", calls[1])
	}

	usage, err := d.GetTokenUsage(ctx, "s1")
	if err != nil {
		t.Fatalf("GetTokenUsage: %v", err)
	}
	if diff := cmp.Diff(w.TokenUsage, usage,
		cmpopts.IgnoreFields(TokenUsage{}, "ID", "SessionID"),
	); diff != "" {
		t.Errorf("token usage mismatch (-want +got):\n%s", diff)
	}

	changes, err := d.GetFileChanges(ctx, "s1")
	if err != nil {
		t.Fatalf("GetFileChanges: %v", err)
	}
	if len(changes) != 1 || changes[0].MessageID == nil ||
		*changes[0].MessageID != msgs[1].ID {
		t.Errorf("file changes = %+v", changes)
	}

	tags, err := d.GetTags(ctx, "s1")
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if diff := cmp.Diff(w.Tags, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSessionReplacesChildren(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	writeSession(t, d, sampleWrite("s1", "h1"))
	if err := d.AddTag("s1", "keep-me"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	w := sampleWrite("s1", "h2")
	w.Messages = w.Messages[:1]
	w.ToolCalls = nil
	w.TokenUsage = nil
	w.FileChanges = nil
	w.Tags = []Tag{{Tag: "feature", AutoGenerated: true}}
	w.Session.TotalMessages = 1
	writeSession(t, d, w)

	got, err := d.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if *got.FileHash != "h2" || got.TotalMessages != 1 {
		t.Errorf("session not replaced: %+v", got)
	}

	msgs, _ := d.GetMessages(ctx, "s1")
	calls, _ := d.GetToolCalls(ctx, "s1")
	usage, _ := d.GetTokenUsage(ctx, "s1")
	changes, _ := d.GetFileChanges(ctx, "s1")
	if len(msgs) != 1 || len(calls) != 0 ||
		len(usage) != 0 || len(changes) != 0 {
		t.Errorf("children not replaced: msgs=%d calls=%d usage=%d changes=%d",
			len(msgs), len(calls), len(usage), len(changes))
	}

	tags, _ := d.GetTags(ctx, "s1")
	want := []Tag{
		{Tag: "feature", AutoGenerated: true},
		{Tag: "keep-me"},
	}
	if diff := cmp.Diff(want, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSessionRollsBackOnError(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	if _, err := d.writer.Exec(`
		CREATE TRIGGER fail_usage BEFORE INSERT ON token_usage
		BEGIN SELECT RAISE(ABORT, 'boom'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	if err := d.WriteSession(sampleWrite("s1", "h1")); err == nil {
		t.Fatal("expected error")
	}

	got, err := d.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Errorf("session persisted after rollback: %+v", got)
	}
	msgs, _ := d.GetMessages(ctx, "s1")
	if len(msgs) != 0 {
		t.Errorf("got %d messages after rollback", len(msgs))
	}
	ok, _ := d.HasFileHash(ctx, "h1")
	if ok {
		t.Error("hash recorded after rollback")
	}
}

func TestWriteSessionEmptyID(t *testing.T) {
	d := testDB(t)
	if err := d.WriteSession(SessionWrite{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestDuplicateTagIgnored(t *testing.T) {
	d := testDB(t)
	w := sampleWrite("s1", "h1")
	w.Tags = append(w.Tags, Tag{Tag: "debugging", AutoGenerated: true})
	writeSession(t, d, w)

	tags, err := d.GetTags(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("got %d tags, want 2", len(tags))
	}
}

func TestHasFileHash(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	writeSession(t, d, sampleWrite("s1", "abc"))

	tests := []struct {
		hash string
		want bool
	}{
		{"abc", true},
		{"def", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := d.HasFileHash(ctx, tt.hash)
		if err != nil {
			t.Fatalf("HasFileHash(%q): %v", tt.hash, err)
		}
		if got != tt.want {
			t.Errorf("HasFileHash(%q) = %v, want %v",
				tt.hash, got, tt.want)
		}
	}
}

func TestGetSessionMissing(t *testing.T) {
	d := testDB(t)
	got, err := d.GetSession(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestListSessions(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	a := sampleWrite("a", "ha")
	a.Session.StartedAt = Ptr(tsZero)
	b := sampleWrite("b", "hb")
	b.Session.StartedAt = Ptr(tsHour1)
	c := sampleWrite("c", "hc")
	c.Session.StartedAt = nil
	c.Session.ProjectPath = Ptr("/other")
	for _, w := range []SessionWrite{a, b, c} {
		writeSession(t, d, w)
	}

	all, err := d.ListSessions(ctx, SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	var ids []string
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	other, err := d.ListSessions(ctx, SessionFilter{ProjectPath: "/other"})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(other) != 1 || other[0].ID != "c" {
		t.Errorf("filtered = %+v", other)
	}
}

func TestGetStats(t *testing.T) {
	d := testDB(t)
	writeSession(t, d, sampleWrite("s1", "h1"))
	writeSession(t, d, sampleWrite("s2", "h2"))

	s, err := d.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := Stats{
		SessionCount:  2,
		MessageCount:  4,
		ToolCallCount: 4,
		ProjectCount:  1,
		TokensIn:      20,
		TokensOut:     40,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}
