package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog/log"
)

var validKey = regexp.MustCompile(`^[a-z0-9_]+$`)

// FileBackend keeps each entry in its own file under a private directory.
type FileBackend struct {
	baseDir string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates the backend directory if needed.
// If baseDir is empty, uses ~/.nutricontrol/session/
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".nutricontrol", "session")
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("file credential backend initialized")

	return &FileBackend{baseDir: baseDir}, nil
}

// Get reads the entry for key.
func (b *FileBackend) Get(key string) ([]byte, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, nil
}

// Put writes the entry atomically.
func (b *FileBackend) Put(key string, value []byte) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	// Write to temp file first
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, value, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

// Delete removes the entry for key.
func (b *FileBackend) Delete(key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}

	return nil
}

func (b *FileBackend) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid credential key %q", key)
	}
	return filepath.Join(b.baseDir, key), nil
}
