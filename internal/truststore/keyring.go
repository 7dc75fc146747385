package truststore

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"

	"github.com/move-everything/installer/internal/models"
)

// KeyringStore keeps secrets in the OS credential store: Keychain on
// macOS, Secret Service on Linux and the Credential Manager on Windows.
type KeyringStore struct {
	lock    sync.Mutex
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Save(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"service": s.service,
		"key":     key,
	}).Debugln("Saving secret to keyring")

	if err := keyring.Set(s.service, key, value); err != nil {
		return models.WrapError(models.KindIOError, err,
			"failed to save %s to keyring", describe(s.service, key))
	}
	return nil
}

func (s *KeyringStore) Load(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	value, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, models.WrapError(models.KindIOError, err,
			"failed to read %s from keyring", describe(s.service, key))
	}
	return value, true, nil
}

// Delete removes the secret. Deleting an absent secret is not an error.
func (s *KeyringStore) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"service": s.service,
		"key":     key,
	}).Debugln("Deleting secret from keyring")

	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return models.WrapError(models.KindIOError, err,
			"failed to delete %s from keyring", describe(s.service, key))
	}
	return nil
}
