package parser

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidUTF8 is returned for content that is not valid
	// UTF-8 text.
	ErrInvalidUTF8 = errors.New("content is not valid UTF-8")
	// ErrUnsupportedShape is returned when a JSON log's root is
	// not an object.
	ErrUnsupportedShape = errors.New("unsupported JSON shape")
)

// Detection is the outcome of format detection. Exactly one
// payload field is set, matching Format.
type Detection struct {
	Format Format
	Root   gjson.Result // FormatJSON
	Lines  []string     // FormatJSONL, non-blank lines
	Text   string       // FormatText
}

// Detect classifies raw log content. The first matching rule
// wins: a single JSON document, then line-delimited JSON where
// every non-blank line parses, then free text.
func Detect(data []byte) (Detection, error) {
	if !utf8.Valid(data) {
		return Detection{}, ErrInvalidUTF8
	}
	if gjson.ValidBytes(data) {
		return Detection{
			Format: FormatJSON,
			Root:   gjson.ParseBytes(data),
		}, nil
	}
	if lines, ok := jsonLines(data); ok {
		return Detection{Format: FormatJSONL, Lines: lines}, nil
	}
	return Detection{Format: FormatText, Text: string(data)}, nil
}

// jsonLines returns the non-blank lines of data when there is
// at least one and every one is valid JSON.
func jsonLines(data []byte) ([]string, bool) {
	lr := newLineReader(bytes.NewReader(data), len(data)+1)
	var lines []string
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, false
		}
		lines = append(lines, line)
	}
	return lines, len(lines) > 0
}
