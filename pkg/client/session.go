package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

// Session is the authenticated context a Client sends with every request.
// It is an explicit value; nothing in this package holds a global session.
type Session struct {
	AccessToken string      `json:"accessToken"`
	UserID      string      `json:"userId"`
	Role        entity.Role `json:"role"`
}

// IsZero reports whether the session carries no token
func (s Session) IsZero() bool {
	return s.AccessToken == ""
}

// LoadSession reads a session saved by Save. A missing file yields an empty session.
func LoadSession(path string) (Session, error) {
	var s Session
	err := s.Load(path)
	return s, err
}

// Load replaces s with the session stored at path
func (s *Session) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		*s = Session{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	var loaded Session
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}
	*s = loaded
	return nil
}

// Save writes the session to path with owner-only permissions
func (s Session) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes a saved session
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
