package db

import (
	"context"
	"database/sql"
	"fmt"
)

const messageCols = `id, session_id, sequence, timestamp, role,
	content, content_type`

const toolCallCols = `id, session_id, message_id, sequence,
	tool_name, tool_input, tool_output, success, duration_ms`

// Message represents a row in the messages table.
type Message struct {
	ID          int64   `json:"id"`
	SessionID   string  `json:"session_id"`
	Sequence    int     `json:"sequence"`
	Timestamp   *string `json:"timestamp"`
	Role        string  `json:"role"`
	Content     string  `json:"content"`
	ContentType string  `json:"content_type"`
}

// ToolCall represents a single tool invocation stored in
// the tool_calls table. MessageID is nil for tool calls that
// could not be tied to a stored message.
type ToolCall struct {
	ID         int64   `json:"id"`
	SessionID  string  `json:"session_id"`
	MessageID  *int64  `json:"message_id"`
	Sequence   int     `json:"sequence"`
	ToolName   string  `json:"tool_name"`
	ToolInput  string  `json:"tool_input"`
	ToolOutput *string `json:"tool_output,omitempty"`
	Success    bool    `json:"success"`
	DurationMS *int64  `json:"duration_ms,omitempty"`
}

// GetMessages returns all messages for a session ordered by
// sequence.
func (db *DB) GetMessages(
	ctx context.Context, sessionID string,
) ([]Message, error) {
	rows, err := db.reader.QueryContext(ctx,
		"SELECT "+messageCols+" FROM messages"+
			" WHERE session_id = ? ORDER BY sequence",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var contentType sql.NullString
		var content sql.NullString
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Sequence, &m.Timestamp,
			&m.Role, &content, &contentType,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Content = content.String
		m.ContentType = contentType.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetToolCalls returns all tool calls for a session in
// insertion order.
func (db *DB) GetToolCalls(
	ctx context.Context, sessionID string,
) ([]ToolCall, error) {
	rows, err := db.reader.QueryContext(ctx,
		"SELECT "+toolCallCols+" FROM tool_calls"+
			" WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	defer rows.Close()

	var calls []ToolCall
	for rows.Next() {
		var tc ToolCall
		var input sql.NullString
		var success sql.NullBool
		if err := rows.Scan(
			&tc.ID, &tc.SessionID, &tc.MessageID, &tc.Sequence,
			&tc.ToolName, &input, &tc.ToolOutput, &success,
			&tc.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scanning tool call: %w", err)
		}
		tc.ToolInput = input.String
		tc.Success = success.Bool
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}

// insertMessagesTx inserts messages within an existing
// transaction and returns the row id of each message keyed by
// sequence.
func insertMessagesTx(
	tx *sql.Tx, sessionID string, msgs []Message,
) (map[int]int64, error) {
	ids := make(map[int]int64, len(msgs))
	if len(msgs) == 0 {
		return ids, nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO messages
			(session_id, sequence, timestamp, role,
			 content, content_type)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing messages insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		contentType := m.ContentType
		if contentType == "" {
			contentType = "text"
		}
		res, err := stmt.Exec(
			sessionID, m.Sequence, m.Timestamp, m.Role,
			m.Content, contentType,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"inserting message %d: %w", m.Sequence, err,
			)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting message id: %w", err)
		}
		ids[m.Sequence] = id
	}
	return ids, nil
}

// insertToolCallsTx inserts tool calls within an existing
// transaction. Calls whose sequence has no entry in msgIDs are
// stored with a NULL message_id.
func insertToolCallsTx(
	tx *sql.Tx, sessionID string,
	calls []ToolCall, msgIDs map[int]int64,
) error {
	if len(calls) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO tool_calls
			(session_id, message_id, sequence, tool_name,
			 tool_input, tool_output, success, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing tool_calls insert: %w", err)
	}
	defer stmt.Close()

	for _, tc := range calls {
		var msgID any
		if id, ok := msgIDs[tc.Sequence]; ok {
			msgID = id
		}
		if _, err := stmt.Exec(
			sessionID, msgID, tc.Sequence, tc.ToolName,
			tc.ToolInput, tc.ToolOutput, tc.Success,
			tc.DurationMS,
		); err != nil {
			return fmt.Errorf(
				"inserting tool_call %q: %w", tc.ToolName, err,
			)
		}
	}
	return nil
}
