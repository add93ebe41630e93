package db

import (
	"database/sql"
	"fmt"
)

// SessionWrite is everything the importer stores for one
// session file.
type SessionWrite struct {
	Session     Session
	Messages    []Message
	ToolCalls   []ToolCall
	TokenUsage  []TokenUsage
	FileChanges []FileChange
	Tags        []Tag
}

// childDeletes clears the rows a re-import replaces. Order
// matters: tool_calls reference messages.
var childDeletes = []string{
	"DELETE FROM tool_calls WHERE session_id = ?",
	"DELETE FROM file_changes WHERE session_id = ?",
	"DELETE FROM token_usage WHERE session_id = ?",
	"DELETE FROM messages WHERE session_id = ?",
	"DELETE FROM session_tags WHERE session_id = ? AND auto_generated = 1",
}

// WriteSession stores a session and all of its child rows in a
// single transaction. Child rows from a previous import of the
// same session are replaced; manual tags survive. On error
// nothing is written.
func (db *DB) WriteSession(w SessionWrite) error {
	id := w.Session.ID
	if id == "" {
		return fmt.Errorf("writing session: empty id")
	}
	return db.Update(func(tx *sql.Tx) error {
		if err := upsertSessionTx(tx, w.Session); err != nil {
			return err
		}
		for _, q := range childDeletes {
			if _, err := tx.Exec(q, id); err != nil {
				return fmt.Errorf(
					"clearing previous import of %s: %w", id, err,
				)
			}
		}

		msgIDs, err := insertMessagesTx(tx, id, w.Messages)
		if err != nil {
			return err
		}
		if err := insertToolCallsTx(
			tx, id, orderToolCalls(w.Messages, w.ToolCalls, msgIDs),
			msgIDs,
		); err != nil {
			return err
		}
		if err := insertTokenUsageTx(tx, id, w.TokenUsage); err != nil {
			return err
		}
		if err := insertFileChangesTx(
			tx, id, w.FileChanges, msgIDs,
		); err != nil {
			return err
		}
		return insertTagsTx(tx, id, w.Tags)
	})
}

// orderToolCalls returns calls grouped under their messages in
// message order, followed by calls that match no message.
func orderToolCalls(
	msgs []Message, calls []ToolCall, msgIDs map[int]int64,
) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	bySeq := make(map[int][]ToolCall)
	var orphans []ToolCall
	for _, tc := range calls {
		if _, ok := msgIDs[tc.Sequence]; ok {
			bySeq[tc.Sequence] = append(bySeq[tc.Sequence], tc)
		} else {
			orphans = append(orphans, tc)
		}
	}
	out := make([]ToolCall, 0, len(calls))
	for _, m := range msgs {
		out = append(out, bySeq[m.Sequence]...)
		delete(bySeq, m.Sequence)
	}
	return append(out, orphans...)
}
