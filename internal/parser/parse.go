package parser

import (
	"fmt"
	"io"
)

// Parse detects the format of data and normalizes it. A
// returned error means the file could not be interpreted; a
// Result with no messages is not an error.
func Parse(data []byte, src Source) (Result, error) {
	det, err := Detect(data)
	if err != nil {
		return Result{}, fmt.Errorf("detecting format: %w", err)
	}
	return Normalize(det, src)
}

// Normalize dispatches a detected log to its normalizer.
func Normalize(det Detection, src Source) (Result, error) {
	switch det.Format {
	case FormatJSON:
		return ParseJSON(det.Root, src)
	case FormatJSONL:
		return ParseJSONL(det.Lines, src)
	case FormatText:
		return ParseText(det.Text, src)
	}
	return Result{}, fmt.Errorf("unknown format %q", det.Format)
}

// ReadFile reads a session log without following a symlink at
// the final path component.
func ReadFile(path string) ([]byte, error) {
	f, err := openNoFollow(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
