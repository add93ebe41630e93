// Package sources imports the auxiliary files that live next to
// the session logs: prompt history, usage stats, plans and todo
// lists. Each importer treats a missing input as nothing to do.
package sources

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wesm/agentsdb/internal/db"
)

// File and directory names under the log root.
const (
	HistoryFile = "history.jsonl"
	StatsFile   = "stats-cache.json"
	PlansDir    = "plans"
	TodosDir    = "todos"
)

// Func imports one auxiliary source found under root and
// returns the number of rows written.
type Func func(
	ctx context.Context, d *db.DB, root string, logger *log.Logger,
) (int, error)

// Importer pairs a source name with its import function.
type Importer struct {
	Name string
	Run  Func
}

// All lists the importers in the order the scan runs them.
func All() []Importer {
	return []Importer{
		{Name: "history", Run: ImportPromptHistory},
		{Name: "usage", Run: ImportUsageStats},
		{Name: "plans", Run: ImportPlans},
		{Name: "todos", Run: ImportTodos},
	}
}

// now is replaced in tests that compare refresh times.
var now = time.Now
