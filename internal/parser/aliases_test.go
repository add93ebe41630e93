package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestAliasLookup(t *testing.T) {
	tests := []struct {
		name   string
		alias  Alias
		doc    string
		want   string
		wantOK bool
	}{
		{"first wins", AliasSessionID,
			`{"sessionId":"a","id":"b"}`, "a", true},
		{"falls back", AliasSessionID, `{"id":"b"}`, "b", true},
		{"null skipped", AliasSessionID,
			`{"sessionId":null,"id":"b"}`, "b", true},
		{"none", AliasSessionID, `{}`, "", false},
		{"nested path", AliasToolName,
			`{"function":{"name":"grep"}}`, "grep", true},
		{"nested usage", AliasTokensIn,
			`{"usage":{"input_tokens":7}}`, "7", true},
		{"top level beats usage", AliasTokensIn,
			`{"tokensIn":3,"usage":{"input_tokens":7}}`, "3", true},
		{"ts alias", AliasTimestamp, `{"ts":"x"}`, "x", true},
		{"conversation alias", AliasMessages,
			`{"conversation":[]}`, "[]", true},
		{"arguments alias", AliasToolInput,
			`{"arguments":"{\"q\":1}"}`, `{"q":1}`, true},
		{"result alias", AliasToolOutput,
			`{"result":"done"}`, "done", true},
		{"projectPath alias", AliasProject,
			`{"projectPath":"/p"}`, "/p", true},
		{"started falls back to timestamp", AliasStartedAt,
			`{"timestamp":"t"}`, "t", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.alias.Lookup(gjson.Parse(tt.doc))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
