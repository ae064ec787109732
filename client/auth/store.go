// Package auth adapts credential storage and OAuth2 token refresh to the
// client's unauthorized-retry delegate.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// ErrNoToken is returned when the store holds no token.
var ErrNoToken = errors.New("no token stored")

// Store persists a single token string.
type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
}

// KeyringStore keeps the token in an OS keyring item.
type KeyringStore struct {
	ring keyring.Keyring
	key  string
}

// OpenKeyring opens the keyring for service with the platform's default
// backend.
func OpenKeyring(service, key string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{ServiceName: service})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}

	return NewKeyringStore(ring, key), nil
}

// NewKeyringStore stores the token under key in ring.
func NewKeyringStore(ring keyring.Keyring, key string) *KeyringStore {
	return &KeyringStore{ring: ring, key: key}
}

func (s *KeyringStore) Token(context.Context) (string, error) {
	item, err := s.ring.Get(s.key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(item.Data), nil
}

func (s *KeyringStore) SetToken(_ context.Context, token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   s.key,
		Data:  []byte(token),
		Label: s.key,
	})
	if err != nil {
		return fmt.Errorf("writing token: %w", err)
	}

	return nil
}

// DeleteToken removes the stored token. Deleting a missing token is not
// an error.
func (s *KeyringStore) DeleteToken(context.Context) error {
	if err := s.ring.Remove(s.key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}
