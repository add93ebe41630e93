package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// SessionGlob matches the session logs below the log root.
const SessionGlob = "projects/**/*.jsonl"

// DiscoverSessionFiles returns the session logs under root in
// lexical order. Exclude patterns are doublestar globs matched
// against the slash-separated path relative to root. A missing
// projects directory yields no files.
func DiscoverSessionFiles(
	root string, exclude []string,
) ([]string, error) {
	matches, err := doublestar.Glob(
		os.DirFS(root), SessionGlob, doublestar.WithFilesOnly(),
	)
	if err != nil {
		return nil, fmt.Errorf("discovering session files: %w", err)
	}
	sort.Strings(matches)

	files := make([]string, 0, len(matches))
	for _, rel := range matches {
		excluded, err := isExcluded(rel, exclude)
		if err != nil {
			return nil, err
		}
		if excluded {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
	}
	return files, nil
}

func isExcluded(rel string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
