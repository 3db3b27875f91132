package serve

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// resolveWithin maps a URL path onto root and checks that the file it
// names, after resolving symlinks, stays inside root. Paths that do not
// exist are returned unresolved for the file server to 404.
func resolveWithin(root, urlPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	canonicalRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}

	name := filepath.Join(absRoot, filepath.FromSlash(path.Clean("/"+urlPath)))
	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return name, nil
	}

	rel, err := filepath.Rel(canonicalRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%s escapes %s", urlPath, root)
	}
	return resolved, nil
}
