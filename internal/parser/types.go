package parser

import (
	"path/filepath"
	"strings"
	"time"
)

// Format identifies the on-disk shape of a session log.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatText  Format = "text"
)

// Role values produced by the normalizers. JSON and JSONL logs
// may carry other role strings, which are kept as-is.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleUnknown   = "unknown"
)

// Source describes the file a session is parsed from.
type Source struct {
	Path    string
	ModTime time.Time
}

// Stem returns the file name without its extension.
func (s Source) Stem() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParentDir returns the name of the directory holding the file.
func (s Source) ParentDir() string {
	return filepath.Base(filepath.Dir(s.Path))
}

// Message is a normalized conversation turn. Sequence is the
// 0-based position within the session.
type Message struct {
	Sequence    int
	Timestamp   time.Time
	Role        string
	Content     string
	ContentType string
}

// ToolCall is a normalized tool invocation. Sequence is the
// sequence of the message that issued it, or -1 when the call
// preceded every message. Name is empty when the log carried none.
type ToolCall struct {
	Sequence   int
	Name       string
	Input      string
	Output     *string
	Success    bool
	DurationMS *int64
}

// TokenUsage is the token accounting of one assistant message.
type TokenUsage struct {
	MessageSequence     int
	Timestamp           time.Time
	Model               string
	InputTokens         int64
	OutputTokens        int64
	CacheReadTokens     int64
	CacheCreationTokens int64
}

// FileChange is a file written or edited by a tool call.
type FileChange struct {
	Sequence   int
	FilePath   string
	ChangeType string
}

// Result is the canonical form of one session log, independent
// of the format it was read from.
type Result struct {
	Format      Format
	SessionID   string
	ProjectPath string
	StartedAt   time.Time
	EndedAt     time.Time
	Messages    []Message
	ToolCalls   []ToolCall
	TokenUsage  []TokenUsage
	FileChanges []FileChange
	TokensIn    int64
	TokensOut   int64
	Metadata    map[string]any
}
