package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a directory of assets named "<id>.<ext>".
type Dir struct {
	path string
}

// NewDir creates the directory if needed
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path
func (d *Dir) Path() string {
	return d.path
}

// Find returns the first file named id with any extension. Temporary
// files left by an interrupted write are ignored.
func (d *Dir) Find(id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}

	matches, err := filepath.Glob(filepath.Join(d.path, escapeGlob(id)+".*"))
	if err != nil {
		return "", false, fmt.Errorf("failed to search %s: %w", d.path, err)
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, tempSuffix) {
			return m, true, nil
		}
	}
	return "", false, nil
}

// Has reports whether a file for id exists
func (d *Dir) Has(id string) (bool, error) {
	_, ok, err := d.Find(id)
	return ok, err
}

// Save writes r to "<id><ext>" atomically and returns the final path.
// ext includes its leading dot; an empty ext yields a bare id.
func (d *Dir) Save(id, ext string, r io.Reader) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty file id")
	}
	path := filepath.Join(d.path, id+ext)
	if err := WriteFileAtomic(path, r, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Count returns the number of stored files
func (d *Dir) Count() (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), tempSuffix) {
			n++
		}
	}
	return n, nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
