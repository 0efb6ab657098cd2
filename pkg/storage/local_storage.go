package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Keys used by the session layer
const (
	UsersKey       = "users"
	CurrentUserKey = "currentUser"
)

// LocalStorage is a string key/value store modelled on browser local storage
type LocalStorage interface {
	// GetItem returns the value for key and whether it was present
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Ensure FileStorage implements LocalStorage
var _ LocalStorage = (*FileStorage)(nil)

// FileStorage keeps one file per key inside a directory
type FileStorage struct {
	fs  afero.Fs
	dir string
	mu  sync.RWMutex
}

// NewFileStorage creates a storage rooted at dir, creating it if needed
func NewFileStorage(fs afero.Fs, dir string) (*FileStorage, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	logrus.Infof("Local storage at %s", dir)
	return &FileStorage{fs: fs, dir: dir}, nil
}

// NewMemoryStorage creates a storage backed by an in-memory filesystem
func NewMemoryStorage() *FileStorage {
	s, _ := NewFileStorage(afero.NewMemMapFs(), "/")
	return s
}

func (s *FileStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// GetItem returns the stored value for key
func (s *FileStorage) GetItem(key string) (string, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem stores value under key, replacing any previous value
func (s *FileStorage) SetItem(key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *FileStorage) RemoveItem(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
