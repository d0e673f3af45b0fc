package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads a single read-only account from USERNAME/PASSWORD
// or their GAGSYNC_ prefixed forms.
type EnvironmentStore struct {
	lookup func(string) string
}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{lookup: os.Getenv}
}

func (e *EnvironmentStore) credentials() (string, string) {
	pick := func(names ...string) string {
		var v string
		for _, name := range names {
			if s := e.lookup(name); s != "" {
				v = s
			}
		}
		return v
	}
	return pick("USERNAME", "GAGSYNC_USERNAME"), pick("PASSWORD", "GAGSYNC_PASSWORD")
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account when username is empty or matches it
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	user, pass := e.credentials()
	if user == "" || pass == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != user {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     user,
		Password:     pass,
		LastModified: time.Time{},
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
