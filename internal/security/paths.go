package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes the project root")

// ResolveWithinRoot joins a relative path onto root and rejects results
// that leave it. Absolute paths are accepted only when already inside
// root. Symlinks are not followed.
func ResolveWithinRoot(root, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("empty path")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	candidate := p
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absRoot, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return candidate, nil
}
