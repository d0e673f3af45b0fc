package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gagsync/pkg/browser"
	"gagsync/pkg/storage"
)

// CookieStore persists the session cookie set as JSON.
type CookieStore struct {
	path string
}

// NewCookieStore returns a store backed by the file at path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// Path returns the backing file
func (s *CookieStore) Path() string {
	return s.path
}

// Load returns the persisted cookies. A missing file yields no cookies.
func (s *CookieStore) Load() ([]browser.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies %s: %w", s.path, err)
	}
	return cookies, nil
}

// Save replaces the persisted cookie set
func (s *CookieStore) Save(cookies []browser.Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path, bytes.NewReader(data), 0600); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}
