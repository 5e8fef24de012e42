package discover

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ErrInvalidPattern is returned when the glob pattern cannot be parsed.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// Discover returns the regular files under root matching pattern, sorted lexically.
//
// pattern is a doublestar glob relative to root using '/' separators ("**/*.jsx").
// Returned paths are root joined with the match. Only stat and readdir are
// performed; no file content is opened.
func Discover(fsys afero.Fs, root, pattern string) ([]string, error) {
	root = filepath.Clean(root)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	info, err := fsys.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("search root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search root %q is not a directory", root)
	}

	// BasePathFs rejects every joined path for a "." base, so the
	// current directory is searched on fsys directly.
	base := fsys
	if root != "." {
		base = afero.NewBasePathFs(fsys, root)
	}
	matches, err := doublestar.Glob(afero.NewIOFS(base), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q under %q: %w", pattern, root, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(paths)
	return paths, nil
}
