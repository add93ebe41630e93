package parser

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxToolResultLen is the number of characters of tool result
// text kept in message content.
const MaxToolResultLen = 500

// ExtractContent renders message content as plain text. content
// may be a string or an array of blocks: text blocks contribute
// their text, tool_use blocks a "[Tool: name]" marker and
// tool_result blocks a truncated "[Tool Result: ...]" line.
// Other block types are dropped. Missing or null content yields
// "", and any other JSON value yields its raw text.
func ExtractContent(content gjson.Result) string {
	switch {
	case !content.Exists() || content.Type == gjson.Null:
		return ""
	case content.Type == gjson.String:
		return content.Str
	case !content.IsArray():
		return content.Raw
	}

	var parts []string
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Type == gjson.String {
			parts = append(parts, block.Str)
			return true
		}
		if !block.IsObject() {
			return true
		}
		switch block.Get("type").Str {
		case "text":
			parts = append(parts, block.Get("text").String())
		case "tool_use":
			parts = append(parts,
				fmt.Sprintf("[Tool: %s]", block.Get("name").String()))
		case "tool_result":
			parts = append(parts, formatToolResult(block.Get("content"))...)
		}
		return true
	})
	return strings.Join(parts, "\n")
}

// formatToolResult renders tool_result content, which is either
// a string or a list of blocks whose text items each become one
// line.
func formatToolResult(rc gjson.Result) []string {
	if !rc.Exists() || rc.Type == gjson.String {
		return []string{toolResultLine(rc.Str)}
	}
	if !rc.IsArray() {
		return nil
	}
	var lines []string
	rc.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() && item.Get("type").Str == "text" {
			lines = append(lines, toolResultLine(item.Get("text").String()))
		}
		return true
	})
	return lines
}

func toolResultLine(s string) string {
	return "[Tool Result: " + Truncate(s, MaxToolResultLen) + "]"
}

// Truncate cuts s to n characters, appending "..." when
// anything was removed.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
