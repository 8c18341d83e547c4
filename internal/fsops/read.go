package fsops

import (
	"errors"
	"os"
)

// ErrIsDir is returned when a document path names a directory.
var ErrIsDir = errors.New("fsops: path is a directory")

// ReadFile reads a whole document. Missing files surface as os.ErrNotExist
// so callers can tell "absent" from "unreadable".
func ReadFile(absPath string) ([]byte, error) {
	fi, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, ErrIsDir
	}
	return os.ReadFile(absPath)
}
