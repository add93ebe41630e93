package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/parser"
	"github.com/wesm/agentsdb/internal/tags"
	"github.com/wesm/agentsdb/internal/timeutil"
)

// toSessionWrite converts a parsed log into the rows stored for
// it. Session token totals are the sums of the per-message usage
// records when there are any, else the totals the log declares.
func toSessionWrite(
	res parser.Result, path, hash string, importedAt time.Time,
) (db.SessionWrite, error) {
	var meta []byte
	if len(res.Metadata) > 0 {
		var err error
		meta, err = json.Marshal(res.Metadata)
		if err != nil {
			return db.SessionWrite{}, fmt.Errorf(
				"encoding metadata for %s: %w", res.SessionID, err,
			)
		}
	}
	in, out := sessionTotals(res)

	return db.SessionWrite{
		Session: db.Session{
			ID:             res.SessionID,
			ProjectPath:    strPtr(res.ProjectPath),
			StartedAt:      timeutil.Ptr(res.StartedAt),
			EndedAt:        timeutil.Ptr(res.EndedAt),
			TotalMessages:  len(res.Messages),
			TotalTokensIn:  in,
			TotalTokensOut: out,
			FileHash:       strPtr(hash),
			ImportedAt:     timeutil.Ptr(importedAt),
			RawMetadata:    strPtr(string(meta)),
			FilePath:       strPtr(path),
			SourceFormat:   strPtr(string(res.Format)),
		},
		Messages:    toDBMessages(res.Messages),
		ToolCalls:   toDBToolCalls(res.ToolCalls),
		TokenUsage:  toDBTokenUsage(res.TokenUsage),
		FileChanges: toDBFileChanges(res.FileChanges),
		Tags:        toDBTags(tags.Generate(res)),
	}, nil
}

func sessionTotals(res parser.Result) (in, out int64) {
	if len(res.TokenUsage) == 0 {
		return res.TokensIn, res.TokensOut
	}
	for _, u := range res.TokenUsage {
		in += u.InputTokens
		out += u.OutputTokens
	}
	return in, out
}

func toDBMessages(msgs []parser.Message) []db.Message {
	out := make([]db.Message, len(msgs))
	for i, m := range msgs {
		out[i] = db.Message{
			Sequence:    m.Sequence,
			Timestamp:   timeutil.Ptr(m.Timestamp),
			Role:        m.Role,
			Content:     m.Content,
			ContentType: m.ContentType,
		}
	}
	return out
}

// unknownToolName fills tool_calls.tool_name for calls that
// carried no name.
const unknownToolName = "unknown"

func toDBToolCalls(calls []parser.ToolCall) []db.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]db.ToolCall, len(calls))
	for i, tc := range calls {
		name := tc.Name
		if name == "" {
			name = unknownToolName
		}
		out[i] = db.ToolCall{
			Sequence:   tc.Sequence,
			ToolName:   name,
			ToolInput:  tc.Input,
			ToolOutput: tc.Output,
			Success:    tc.Success,
			DurationMS: tc.DurationMS,
		}
	}
	return out
}

func toDBTokenUsage(usage []parser.TokenUsage) []db.TokenUsage {
	if len(usage) == 0 {
		return nil
	}
	out := make([]db.TokenUsage, len(usage))
	for i, u := range usage {
		out[i] = db.TokenUsage{
			MessageSequence:     u.MessageSequence,
			Timestamp:           timeutil.Ptr(u.Timestamp),
			Model:               u.Model,
			InputTokens:         u.InputTokens,
			OutputTokens:        u.OutputTokens,
			CacheReadTokens:     u.CacheReadTokens,
			CacheCreationTokens: u.CacheCreationTokens,
		}
	}
	return out
}

func toDBFileChanges(changes []parser.FileChange) []db.FileChange {
	if len(changes) == 0 {
		return nil
	}
	out := make([]db.FileChange, len(changes))
	for i, fc := range changes {
		out[i] = db.FileChange{
			Sequence:   fc.Sequence,
			FilePath:   fc.FilePath,
			ChangeType: fc.ChangeType,
		}
	}
	return out
}

func toDBTags(generated []tags.Tag) []db.Tag {
	if len(generated) == 0 {
		return nil
	}
	out := make([]db.Tag, len(generated))
	for i, t := range generated {
		out[i] = db.Tag{Tag: t.Name, AutoGenerated: t.AutoGenerated}
	}
	return out
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
