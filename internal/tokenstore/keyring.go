package tokenstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// ServiceName is the OS keychain service that holds safecheck secrets.
const ServiceName = "safecheck"

// KeyringStore keeps values in the OS keychain, one entry per key.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store under the given keychain service.
// An empty service uses ServiceName.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = ServiceName
	}
	return &KeyringStore{service: service}
}

// Get returns the value for key.
func (k *KeyringStore) Get(key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

// Set stores value under key.
func (k *KeyringStore) Set(key, value string) error {
	return keyring.Set(k.service, key, value)
}

// Delete removes key.
func (k *KeyringStore) Delete(key string) error {
	err := keyring.Delete(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ProbeKeyring reports whether the OS keychain is usable by writing,
// reading back and removing a throwaway entry.
func ProbeKeyring() bool {
	const (
		probeService = "safecheck-probe"
		probeUser    = "probe"
		probeValue   = "test"
	)

	if err := keyring.Set(probeService, probeUser, probeValue); err != nil {
		return false
	}

	val, err := keyring.Get(probeService, probeUser)
	if err != nil || val != probeValue {
		_ = keyring.Delete(probeService, probeUser)
		return false
	}

	return keyring.Delete(probeService, probeUser) == nil
}
