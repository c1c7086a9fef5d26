package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileLoader reads templates from a local directory. A name resolves to
// <dir>/<name>, then <dir>/<name>.html.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

func (l *FileLoader) Load(_ context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+".html")
	}
	for _, c := range candidates {
		b, err := os.ReadFile(filepath.Join(l.dir, c))
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Compile-time interface check
var _ Loader = (*FileLoader)(nil)
