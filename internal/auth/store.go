package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytspot/internal/shared"
	"golang.org/x/oauth2"
)

// TokenStore persists a single [oauth2.Token] as JSON on disk.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store at path, expanding a leading "~".
func NewTokenStore(path string) (*TokenStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: token path is empty", shared.ErrInvalidConfig)
	}
	expanded, err := shared.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return &TokenStore{path: expanded}, nil
}

// Path returns the file backing the store.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the cached token. A missing file yields [shared.ErrNotAuthenticated].
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s", shared.ErrNotAuthenticated, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: malformed token file %s: %v", shared.ErrInvalidCredentials, s.path, err)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}
