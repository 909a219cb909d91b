package cart

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Storage.Get when no blob exists for the key.
var ErrNotFound = errors.New("cart: not found")

// Storage is the device-storage contract the cart persists through: a single
// serialized blob per key. Implementations must treat Get on an unknown key
// as ErrNotFound, not as a failure.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
}

// MemoryStorage keeps blobs in a map. Safe for concurrent use.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStorage) Set(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob := make([]byte, len(data))
	copy(blob, data)
	s.blobs[key] = blob
	return nil
}

// FileStorage persists each key as a JSON file under dir. Keys are cart
// identifiers generated by the server (uuid strings), never user input.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *FileStorage) Set(key string, data []byte) error {
	return os.WriteFile(s.path(key), data, 0o644)
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
