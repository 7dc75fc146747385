package truststore

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

// TokenStore persists the single device session token.
type TokenStore struct {
	store Store
	key   string
}

func NewTokenStore(store Store, key string) *TokenStore {
	return &TokenStore{store: store, key: key}
}

func (t *TokenStore) Save(token models.SessionToken) error {
	encoded, err := json.Marshal(token)
	if err != nil {
		return models.WrapError(models.KindIOError, err, "failed to encode session token")
	}
	return t.store.Save(t.key, string(encoded))
}

// Load returns the stored token. An expired token is removed and reported
// as absent.
func (t *TokenStore) Load() (*models.SessionToken, bool, error) {
	raw, ok, err := t.store.Load(t.key)
	if err != nil || !ok {
		return nil, false, err
	}

	token := decodeToken(raw)
	if len(token.Value) == 0 {
		return nil, false, nil
	}

	if token.IsExpired() {
		logrus.WithField("expiry", token.Expiry).Infoln("Stored session token has expired")
		if err := t.store.Delete(t.key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return &token, true, nil
}

func (t *TokenStore) Delete() error {
	return t.store.Delete(t.key)
}

// decodeToken accepts the json form written by Save and a bare cookie
// value as stored by earlier installer versions.
func decodeToken(raw string) models.SessionToken {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var token models.SessionToken
		if err := json.Unmarshal([]byte(raw), &token); err == nil {
			return token
		}
	}
	return models.SessionToken{Value: raw}
}
