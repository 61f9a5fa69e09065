package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name secrets are filed under; the client
// id is the keychain user.
const keyringService = "riddle"

// KeyringStore keeps each secret as a plain keychain item
type KeyringStore struct{}

// NewKeyringStore returns a keychain backend, or an error when the
// platform has no reachable keychain
func NewKeyringStore() (*KeyringStore, error) {
	_, err := keyring.Get(keyringService, "availability-check")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Name() string { return "keychain" }

func (k *KeyringStore) Get(clientID string) (Secret, error) {
	value, err := keyring.Get(keyringService, clientID)
	if errors.Is(err, keyring.ErrNotFound) {
		return Secret{}, ErrSecretNotFound
	}
	if err != nil {
		return Secret{}, fmt.Errorf("keyring read: %w", err)
	}
	return Secret{ClientID: clientID, Value: value}, nil
}

func (k *KeyringStore) Put(secret Secret) error {
	if err := keyring.Set(keyringService, secret.ClientID, secret.Value); err != nil {
		return fmt.Errorf("keyring write: %w", err)
	}
	return nil
}

func (k *KeyringStore) Remove(clientID string) error {
	err := keyring.Delete(keyringService, clientID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrSecretNotFound
	}
	return err
}
