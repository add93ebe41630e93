package parser

import "strings"

// DecodeProjectPath converts an encoded project directory name
// back to a filesystem path. The client encodes /Users/alice/app
// as -Users-alice-app; every dash becomes a slash, so paths whose
// components contained dashes do not round-trip. Names that do
// not start with a dash are not encoded and report false.
func DecodeProjectPath(dirName string) (string, bool) {
	if !strings.HasPrefix(dirName, "-") {
		return "", false
	}
	return strings.ReplaceAll(dirName, "-", "/"), true
}
