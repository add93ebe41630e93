package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/logging"
	"github.com/wesm/agentsdb/internal/timeutil"
)

// ImportPlans stores every plans/*.md document whose content
// changed since it was last imported.
func ImportPlans(
	ctx context.Context, d *db.DB, root string, logger *log.Logger,
) (int, error) {
	logger = logging.OrDiscard(logger)
	files, err := globSorted(root, PlansDir+"/*.md")
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		plan, err := readPlan(full)
		if err != nil {
			return saved, err
		}
		ok, err := d.SavePlan(plan)
		if err != nil {
			return saved, err
		}
		if ok {
			logger.Debug("imported plan", "name", plan.Name)
			saved++
		}
	}
	return saved, nil
}

func readPlan(path string) (db.Plan, error) {
	info, err := os.Stat(path)
	if err != nil {
		return db.Plan{}, fmt.Errorf("stat plan: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return db.Plan{}, fmt.Errorf("reading plan: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".md")
	content := string(data)
	return db.Plan{
		Name:      name,
		Title:     planTitle(content, name),
		Content:   content,
		CreatedAt: timeutil.Ptr(info.ModTime()),
		FileHash:  hashBytes(data),
	}, nil
}

// planTitle returns the first "# " heading of content, or
// fallback when there is none.
func planTitle(content, fallback string) string {
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return fallback
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// globSorted matches pattern against the slash-separated tree
// under root. A missing directory yields no matches.
func globSorted(root, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(
		os.DirFS(root), pattern, doublestar.WithFilesOnly(),
	)
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// stem returns the file name of a slash path without its
// extension.
func stem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
