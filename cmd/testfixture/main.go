// Command testfixture writes a sample log root covering every
// input shape agentsdb ingests. Point LOG_PATH at the output to
// exercise a full scan by hand.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wesm/agentsdb/internal/testjsonl"
)

type sessionSpec struct {
	project  string
	name     string
	msgCount int
	format   string
}

var specs = []sessionSpec{
	{"-home-dev-alpha", "small-2", 2, "jsonl"},
	{"-home-dev-alpha", "small-5", 5, "jsonl"},
	{"-home-dev-beta", "tools-6", 6, "tools"},
	{"-home-dev-beta", "medium-100", 100, "jsonl"},
	{"-home-dev-gamma", "document-8", 8, "json"},
	{"-home-dev-gamma", "transcript-10", 10, "text"},
	{"-home-dev-delta", "large-1500", 1500, "jsonl"},
	{"-home-dev-delta", "empty", 0, "jsonl"},
}

func main() {
	out := flag.String("out", "", "output log root")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: testfixture -out <dir>")
		os.Exit(1)
	}

	if err := os.RemoveAll(*out); err != nil {
		log.Fatal("removing existing fixture", "err", err)
	}

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, spec := range specs {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		path := filepath.Join(*out, "projects", spec.project,
			spec.name+".jsonl")
		if err := writeFile(path, sessionContent(spec, start)); err != nil {
			log.Fatal("writing session", "name", spec.name, "err", err)
		}
		fmt.Printf("  %s (%s): %d messages\n",
			spec.name, spec.format, spec.msgCount)
	}

	for rel, content := range auxFiles(base) {
		if err := writeFile(filepath.Join(*out, rel), content); err != nil {
			log.Fatal("writing auxiliary file", "path", rel, "err", err)
		}
	}

	fmt.Printf("Fixture log root written to %s\n", *out)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dir: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func sessionContent(spec sessionSpec, start time.Time) string {
	switch spec.format {
	case "json":
		return jsonDocument(spec, start)
	case "text":
		return transcript(spec.msgCount)
	case "tools":
		return toolSession(start)
	}
	if spec.msgCount == 0 {
		return testjsonl.JoinJSONL(
			`{"type":"summary","summary":"session without any messages"}`,
		)
	}

	b := testjsonl.NewSessionBuilder()
	for i := range spec.msgCount {
		ts := stamp(start, i)
		if i%2 == 0 {
			b.AddUser(ts, generateContent("user", i, spec.msgCount),
				"/home/dev")
			continue
		}
		b.AddAssistantUsage(ts,
			generateContent("assistant", i, spec.msgCount),
			"claude-sonnet", testjsonl.Usage{
				Input: 100 + i, Output: 20 + i, CacheRead: 10,
			})
	}
	return b.String()
}

func toolSession(start time.Time) string {
	long := strings.Repeat("package main\n", 60)
	return testjsonl.JoinJSONL(
		testjsonl.UserJSON("Help me fix the failing test", stamp(start, 0)),
		testjsonl.AssistantJSON([]map[string]any{
			testjsonl.TextBlock("Let me read the file."),
			testjsonl.ToolUseBlock("t1", "Read",
				map[string]any{"file_path": "/src/main.go"}),
		}, stamp(start, 1)),
		testjsonl.UserJSON("", stamp(start, 2)),
		testjsonl.AssistantJSON([]map[string]any{
			testjsonl.ToolResultBlock("t1", long),
		}, stamp(start, 3)),
		testjsonl.AssistantJSON([]map[string]any{
			testjsonl.ToolUseBlock("t2", "Edit", map[string]any{
				"file_path":  "/src/main.go",
				"old_string": "a",
				"new_string": "b",
			}),
		}, stamp(start, 4)),
		testjsonl.ToolCallJSON("Bash",
			map[string]any{"command": "go test ./..."}, "ok"),
	)
}

func jsonDocument(spec sessionSpec, start time.Time) string {
	msgs := make([]testjsonl.JSONMessage, spec.msgCount)
	for i := range msgs {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs[i] = testjsonl.JSONMessage{
			Role:      role,
			Content:   generateContent(role, i, spec.msgCount),
			Timestamp: stamp(start, i),
		}
	}
	return testjsonl.SessionJSON("fixture-"+spec.name, msgs,
		map[string]any{
			"cwd":       "/home/dev/gamma",
			"tokensIn":  1234,
			"tokensOut": 567,
		})
}

func transcript(count int) string {
	pairs := make([]string, 0, count*2)
	for i := range count {
		speaker, role := "Human", "user"
		if i%2 == 1 {
			speaker, role = "Assistant", "assistant"
		}
		pairs = append(pairs, speaker, generateContent(role, i, count))
	}
	return testjsonl.Transcript(pairs...)
}

func auxFiles(base time.Time) map[string]string {
	var history []string
	for i := range 5 {
		ms := base.Add(time.Duration(i) * time.Hour).UnixMilli()
		history = append(history, fmt.Sprintf(
			`{"display":"prompt number %d about refactoring","project":"/home/dev/alpha","timestamp":%d}`,
			i, ms,
		))
	}

	return map[string]string{
		"history.jsonl": testjsonl.JoinJSONL(history...),
		"stats-cache.json": `{
  "lastComputedDate": "` + base.Format("2006-01-02") + `",
  "modelUsage": {
    "claude-sonnet": {"inputTokens": 120000, "outputTokens": 34000,
      "cacheReadInputTokens": 5000, "cacheCreationInputTokens": 800},
    "claude-opus": {"inputTokens": 9000, "outputTokens": 2100}
  }
}
`,
		"plans/fixture-plan.md": "# Fixture Plan\n\n1. Scan\n2. Search\n",
		"plans/untitled.md":     "Notes without a heading.\n",
		"todos/fixture-tools-6-agent-fixture-tools-6.json": `[
  {"content": "reproduce the failure", "status": "completed"},
  {"content": "fix the test", "status": "in_progress"},
  {"content": "open a PR", "status": "pending"}
]
`,
	}
}

func stamp(start time.Time, i int) string {
	return start.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
}

func generateContent(role string, idx, total int) string {
	if role == "user" {
		return fmt.Sprintf(
			"User message %d of %d. "+
				"Please help me with this task. "+
				"I need to understand how the code works.",
			idx, total,
		)
	}
	return fmt.Sprintf(
		"Assistant response %d of %d. "+
			"Here is my analysis of the code. "+
			"The implementation follows standard patterns "+
			"and uses well-known libraries.",
		idx, total,
	)
}
