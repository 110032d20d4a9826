package hint

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var reDriveLetter = regexp.MustCompile(`^[a-zA-Z]:`)

// Gate confines path access to a single root directory. Only relative paths
// are accepted; traversal segments and absolute paths are rejected before
// resolution, and the resolved path is re-verified against the root to catch
// anything the lexical checks missed.
type Gate struct {
	root string
}

// NewGate creates a gate rooted at the given directory.
func NewGate(root string) *Gate {
	return &Gate{root: root}
}

// Resolve validates relPath and returns the absolute path it designates
// inside the gate root. It returns a path_rejected error for empty,
// absolute, drive-prefixed or traversal paths (and for any path that
// resolves outside the root, including through symlinks), and
// resource_not_found when nothing exists at the resolved location.
func (g *Gate) Resolve(relPath string) (string, error) {
	if err := g.check(relPath); err != nil {
		return "", err
	}

	rootAbs, err := filepath.Abs(g.root)
	if err != nil {
		return "", NewError("", "cannot resolve gate root", CodePathRejected)
	}

	candidate, err := filepath.Abs(filepath.Join(g.root, relPath))
	if err != nil {
		return "", NewError("", "cannot resolve path", CodePathRejected)
	}

	if candidate != rootAbs && !strings.HasPrefix(candidate, rootAbs+string(os.PathSeparator)) {
		return "", NewError("", "path escapes resource root", CodePathRejected)
	}

	// The lexical check above cannot see symlinks; compare the fully
	// resolved paths so a link inside the root cannot reach outside it.
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", NewError("", "resource not found: "+relPath, CodeResourceNotFound)
	}

	rootResolved, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return "", NewError("", "cannot resolve gate root", CodePathRejected)
	}

	if resolved != rootResolved && !strings.HasPrefix(resolved, rootResolved+string(os.PathSeparator)) {
		return "", NewError("", "path escapes resource root", CodePathRejected)
	}

	return resolved, nil
}

// Read resolves relPath and returns the contents of the regular file it
// designates. Directories yield a resource_not_found error.
func (g *Gate) Read(relPath string) (string, error) {
	resolved, err := g.Resolve(relPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", NewError("", "resource not found: "+relPath, CodeResourceNotFound)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", NewError("", "failed to read resource: "+relPath, CodeResourceNotFound)
	}

	return stripBOM(string(data)), nil
}

// check applies the lexical path rules shared by all gated access.
func (g *Gate) check(relPath string) error {
	if strings.TrimSpace(relPath) == "" {
		return NewError("", "path must not be empty", CodePathRejected)
	}

	if filepath.IsAbs(relPath) || strings.HasPrefix(relPath, "/") || strings.HasPrefix(relPath, "\\") {
		return NewError("", "absolute paths are not allowed", CodePathRejected)
	}

	if reDriveLetter.MatchString(relPath) {
		return NewError("", "drive-prefixed paths are not allowed", CodePathRejected)
	}

	normalized := strings.ReplaceAll(relPath, "\\", "/")
	for _, part := range strings.Split(normalized, "/") {
		if part == ".." {
			return NewError("", "path traversal is not allowed", CodePathRejected)
		}
	}

	return nil
}
