package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/logging"
)

// agentDelimiter separates the session id from the agent id in
// todo file names.
const agentDelimiter = "-agent-"

const unknownStatus = "unknown"

// ImportTodos stores the todo lists found in todos/*.json. A
// session's list is imported once; later files for a session
// that already has todos are ignored.
func ImportTodos(
	ctx context.Context, d *db.DB, root string, logger *log.Logger,
) (int, error) {
	logger = logging.OrDiscard(logger)
	files, err := globSorted(root, TodosDir+"/*.json")
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			return inserted, fmt.Errorf("reading todos: %w", err)
		}

		sessionID := TodoSessionID(rel)
		todos := parseTodos(data, sessionID)
		if len(todos) == 0 {
			logger.Debug("no todos in file", "path", full)
			continue
		}
		n, err := d.InsertTodos(sessionID, todos)
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

// TodoSessionID derives the session id from a todo file name:
// the stem up to the first "-agent-".
func TodoSessionID(name string) string {
	id, _, _ := strings.Cut(stem(filepath.ToSlash(name)), agentDelimiter)
	return id
}

// parseTodos converts a JSON array of todo objects. Invalid
// JSON, non-arrays and non-object items yield nothing.
func parseTodos(data []byte, sessionID string) []db.Todo {
	if !gjson.ValidBytes(data) {
		return nil
	}
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		return nil
	}

	var todos []db.Todo
	for i, item := range list.Array() {
		if !item.IsObject() {
			continue
		}
		todos = append(todos, db.Todo{
			SessionID: sessionID,
			Content:   fieldOr(item, "content", item.Raw),
			Status:    fieldOr(item, "status", unknownStatus),
			Sequence:  i,
		})
	}
	return todos
}

// fieldOr returns the field as text, or fallback when it is
// missing or null. Non-string values keep their JSON text.
func fieldOr(item gjson.Result, key, fallback string) string {
	v := item.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return fallback
	}
	return v.String()
}
