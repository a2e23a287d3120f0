package keystore

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"

	lberrors "github.com/systmms/lockbox/internal/errors"
)

// defaultService is the keychain service identifier used when the
// configuration does not override it.
const defaultService = "lockbox"

// keychainStore stores values in the platform credential store via
// go-keyring. Each secret id becomes an account under the configured
// service name.
type keychainStore struct {
	service string
}

func newKeychainStore(service string) *keychainStore {
	if service == "" {
		service = defaultService
	}
	return &keychainStore{service: service}
}

func (s *keychainStore) Set(_ context.Context, id, value string) error {
	if err := keyring.Set(s.service, id, value); err != nil {
		return &lberrors.BackendError{Op: "set", ID: id, Err: err}
	}
	return nil
}

func (s *keychainStore) Get(_ context.Context, id string) (string, error) {
	value, err := keyring.Get(s.service, id)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", lberrors.ErrValueNotFound
		}
		return "", &lberrors.BackendError{Op: "get", ID: id, Err: err}
	}
	return value, nil
}

func (s *keychainStore) Delete(_ context.Context, id string) error {
	if err := keyring.Delete(s.service, id); err != nil {
		// Deleting an absent entry is not an error; delete is idempotent.
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return &lberrors.BackendError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

func (s *keychainStore) Mode() Mode {
	return ModeKeychain
}

var _ Store = (*keychainStore)(nil)
