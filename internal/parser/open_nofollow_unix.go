//go:build !windows

package parser

import (
	"os"
	"syscall"
)

// openNoFollow opens a file for reading without following
// symlinks at the final path component. The open fails with
// ELOOP if the target is a symlink.
func openNoFollow(path string) (*os.File, error) {
	return os.OpenFile(
		path, os.O_RDONLY|syscall.O_NOFOLLOW, 0,
	)
}
