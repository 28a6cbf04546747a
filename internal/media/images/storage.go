// Package images stores album photos and renders their watermarked display copies.
package images

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when no object exists for a key.
var ErrNotFound = errors.New("images: object not found")

// Storage is a filesystem object store addressed by slash-separated keys
// such as "CASAMENTO01/display_1700000000_0.jpg".
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// Object is an opened stored file.
type Object struct {
	io.ReadSeekCloser
	Size int64
	Name string
}

// NewStorage creates a Storage rooted at {basePath}/{subdir}.
// Example: NewStorage("/data", "originals") -> /data/originals/.
func NewStorage(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)

	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores data under key, creating intermediate directories.
func (s *Storage) Save(key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	path, err := s.Path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// Get reads the whole object stored under key.
func (s *Storage) Get(key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Open opens the object under key for streaming. The caller closes it.
func (s *Storage) Open(key string) (*Object, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	return &Object{ReadSeekCloser: f, Size: info.Size(), Name: filepath.Base(path)}, nil
}

// Exists checks if an object exists under key.
func (s *Storage) Exists(key string) bool {
	path, err := s.Path(key)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

// Delete removes the object under key. Missing objects are not an error.
func (s *Storage) Delete(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}

// Hash computes the hex SHA256 of the object under key.
func (s *Storage) Hash(key string) (string, error) {
	data, err := s.Get(key)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path maps key to a filesystem path inside the storage root.
// Keys that are empty, absolute, or escape the root are rejected.
func (s *Storage) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid key %q", key)
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}

	return filepath.Join(s.basePath, clean), nil
}

// Root returns the storage directory.
func (s *Storage) Root() string {
	return s.basePath
}
