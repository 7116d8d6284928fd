package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var errBadKey = errors.New("artifact key escapes the storage root")

// LocalStore keeps artifacts as plain files under a root directory. Used
// for single-machine deployments where the media directory is served by
// a reverse proxy.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root, %w", err)
	}

	return &LocalStore{root: root}, nil
}

func (l *LocalStore) path(key string) (string, error) {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", errBadKey
	}

	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *LocalStore) Write(_ context.Context, key string, data []byte, _ string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory, %w", err)
	}

	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s, %w", key, err)
	}

	return nil
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to delete artifact %s, %w", key, err)
	}

	return nil
}
