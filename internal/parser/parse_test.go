package parser

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/agentsdb/internal/testjsonl"
)

type turn struct {
	Role    string
	Content string
}

func turns(res Result) []turn {
	var out []turn
	for _, m := range res.Messages {
		out = append(out, turn{m.Role, m.Content})
	}
	return out
}

// The same conversation encoded in each format normalizes to
// the same role and content sequence.
func TestParseFormatEquivalence(t *testing.T) {
	want := []turn{
		{"user", "add a readme"},
		{"assistant", "sure, writing it now"},
		{"user", "thanks"},
	}

	inputs := map[Format]string{
		FormatJSON: testjsonl.SessionJSON("s", []testjsonl.JSONMessage{
			{Role: "user", Content: "add a readme"},
			{Role: "assistant", Content: "sure, writing it now"},
			{Role: "user", Content: "thanks"},
		}, nil),
		FormatJSONL: testjsonl.NewSessionBuilder().
			AddUser(tsZero, "add a readme").
			AddAssistant(tsZeroS1, "sure, writing it now").
			AddUser(tsZeroS2, "thanks").
			String(),
		FormatText: testjsonl.Transcript(
			"Human", "add a readme",
			"Assistant", "sure, writing it now",
			"User", "thanks",
		),
	}

	for format, data := range inputs {
		t.Run(string(format), func(t *testing.T) {
			res, err := Parse([]byte(data), testSource("-p", "s.log"))
			require.NoError(t, err)
			assert.Equal(t, format, res.Format)
			assert.Equal(t, want, turns(res))
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte{0xff, 0xfe}, testSource("x", "a.jsonl"))
	assert.True(t, errors.Is(err, ErrInvalidUTF8), "err = %v", err)

	_, err = Parse([]byte(`[1,2,3]`), testSource("x", "a.json"))
	assert.True(t, errors.Is(err, ErrUnsupportedShape), "err = %v", err)
}

func TestNormalizeUnknownFormat(t *testing.T) {
	_, err := Normalize(Detection{Format: "yaml"}, Source{})
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	_, err = ReadFile(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)

	if runtime.GOOS == "windows" {
		return
	}
	link := filepath.Join(dir, "link.jsonl")
	require.NoError(t, os.Symlink(path, link))
	_, err = ReadFile(link)
	assert.Error(t, err, "symlink should not be followed")
}

func TestSourceNames(t *testing.T) {
	src := Source{Path: "/a/-Users-x-app/abc-123.jsonl"}
	assert.Equal(t, "abc-123", src.Stem())
	assert.Equal(t, "-Users-x-app", src.ParentDir())
}
