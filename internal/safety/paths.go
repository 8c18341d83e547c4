// Package safety maps storage keys (conversation ids, document names) onto
// paths inside a data root.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxKeyBytes keeps derived file names well under common filesystem limits.
const maxKeyBytes = 200

// PathError is a machine-readable rejection for an unsafe key.
type PathError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string.
func (e PathError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// InitRoot resolves the absolute data root, defaulting to the working directory.
func InitRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(root): %w", err)
	}
	// Resolve symlinks where possible so boundary checks are reliable.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidateKey rejects keys that cannot be used verbatim as a single path segment.
// Group ids come from the chat platform, so they are treated as untrusted.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return PathError{Code: "ERR_EMPTY_KEY", Message: "key must not be empty"}
	case len(key) > maxKeyBytes:
		return PathError{Code: "ERR_KEY_TOO_LONG", Message: fmt.Sprintf("key exceeds %d bytes", maxKeyBytes)}
	case !utf8.ValidString(key):
		return PathError{Code: "ERR_KEY_ENCODING", Message: "key must be valid UTF-8"}
	case key == "." || key == "..":
		return PathError{Code: "ERR_PATH_OUTSIDE_ROOT", Message: "dot keys are not allowed"}
	case strings.ContainsAny(key, `/\`+"\x00"):
		return PathError{Code: "ERR_PATH_OUTSIDE_ROOT", Message: "key must not contain path separators"}
	case strings.HasPrefix(key, "."):
		return PathError{Code: "ERR_HIDDEN_KEY", Message: "key must not start with a dot"}
	}
	return nil
}

// ResolveKeyPath returns <absRoot>/<ns>/<key><ext> after validating both
// segments, and re-checks the result stays under absRoot.
func ResolveKeyPath(absRoot, ns, key, ext string) (string, error) {
	if err := ValidateKey(ns); err != nil {
		return "", err
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	candidate := filepath.Join(absRoot, ns, key+ext)

	// Boundary check using filepath.Rel (robust against partial prefix matches)
	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", PathError{Code: "ERR_PATH_OUTSIDE_ROOT", Message: "key resolves outside the data root"}
	}
	return candidate, nil
}
