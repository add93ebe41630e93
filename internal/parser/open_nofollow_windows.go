//go:build windows

package parser

import "os"

// openNoFollow opens a file for reading. O_NOFOLLOW is not
// available on Windows, so this is a regular open.
func openNoFollow(path string) (*os.File, error) {
	return os.Open(path)
}
