// Package tokenstore persists the RPC auth token between runs.
//
// A Store is a small string key/value store. LoadToken and SaveToken are the
// load and save hooks the CLI calls around a check; the check engine itself
// never touches storage.
package tokenstore

import (
	"errors"
	"strings"
	"sync"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
	BackendAuto    = "auto"
)

// TokenKey is the storage key for the RPC auth token.
const TokenKey = "SafeStatusCheck___InfuraKey"

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Open returns the store for a backend name. filePath is used by the file
// backend and by auto when the OS keychain is unusable.
func Open(backend, filePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendFile, "":
		return NewFileStore(filePath), nil
	case BackendKeyring:
		return NewKeyringStore(ServiceName), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendAuto:
		if ProbeKeyring() {
			return NewKeyringStore(ServiceName), nil
		}
		return NewFileStore(filePath), nil
	default:
		return nil, checkerr.WithSuggestion(
			checkerr.WithDetails(checkerr.ErrConfigInvalid, map[string]string{
				"key":   "token.backend",
				"value": backend,
			}),
			"expected file, keyring or auto",
		)
	}
}

// Backend names the backend behind s.
func Backend(s Store) string {
	switch s.(type) {
	case *FileStore:
		return BackendFile
	case *KeyringStore:
		return BackendKeyring
	case *MemoryStore:
		return BackendMemory
	default:
		return "custom"
	}
}

// LoadToken reads the auth token. A missing token is returned as "".
func LoadToken(s Store) (string, error) {
	token, err := s.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SaveToken persists the auth token. An empty token removes the stored one.
func SaveToken(s Store, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Delete(TokenKey)
	}
	return s.Set(TokenKey, token)
}

// MemoryStore keeps values in memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
