// Package tags derives keyword tags for a parsed session.
package tags

import (
	"sort"
	"strings"

	"github.com/wesm/agentsdb/internal/parser"
)

// Tag is a derived session label.
type Tag struct {
	Name          string
	AutoGenerated bool
}

// ToolPrefix prefixes tags naming a tool used in the session.
const ToolPrefix = "tool:"

// Group maps a tag to the keywords that trigger it.
type Group struct {
	Tag      string
	Keywords []string
}

// Groups are matched as substrings of the lower-cased content.
var Groups = []Group{
	{"debugging", []string{"error", "bug", "fix", "debug", "issue"}},
	{"refactoring", []string{"refactor", "cleanup", "restructure"}},
	{"feature", []string{"implement", "add feature", "new feature"}},
	{"testing", []string{"test", "spec", "coverage"}},
	{"documentation", []string{"document", "readme", "comment"}},
}

// Generate returns the sorted, de-duplicated tags for res: one
// "tool:<name>" per distinct tool name, plus each keyword group
// with a keyword occurring anywhere in the message content.
func Generate(res parser.Result) []Tag {
	seen := make(map[string]bool)
	for _, tc := range res.ToolCalls {
		if tc.Name != "" {
			seen[ToolPrefix+tc.Name] = true
		}
	}

	parts := make([]string, len(res.Messages))
	for i, m := range res.Messages {
		parts[i] = m.Content
	}
	text := strings.ToLower(strings.Join(parts, " "))
	for _, g := range Groups {
		for _, kw := range g.Keywords {
			if strings.Contains(text, kw) {
				seen[g.Tag] = true
				break
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Tag, len(names))
	for i, name := range names {
		out[i] = Tag{Name: name, AutoGenerated: true}
	}
	return out
}
