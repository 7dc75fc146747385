package auth

import (
	"context"
	"errors"
	"net/netip"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

// TokenStore is the slice of the trust store the authenticator needs.
type TokenStore interface {
	Load() (*models.SessionToken, bool, error)
	Save(token models.SessionToken) error
	Delete() error
}

// Login submits code and persists the resulting token.
func Login(ctx context.Context, client *Client, tokens TokenStore, addr netip.Addr, code string) (models.SessionToken, error) {
	token, err := client.SubmitCode(ctx, addr, code)
	if err != nil {
		return models.SessionToken{}, err
	}

	if err := tokens.Save(token); err != nil {
		return models.SessionToken{}, err
	}

	return token, nil
}

// AuthorizeStoredKey authorizes publicKey with the persisted session token.
// A stale token is discarded from the store before SessionExpired is
// returned, so the next attempt starts from a fresh code.
func AuthorizeStoredKey(ctx context.Context, client *Client, tokens TokenStore, addr netip.Addr, publicKey string) error {
	token, ok, err := tokens.Load()
	if err != nil {
		return err
	}
	if !ok {
		return models.NewError(models.KindSessionExpired,
			"no saved session, enter the code shown on the device")
	}

	err = client.AuthorizeKey(ctx, addr, *token, publicKey)
	if errors.Is(err, models.ErrSessionExpired) {
		logrus.Infoln("Session token rejected by device, discarding it")
		if deleteErr := tokens.Delete(); deleteErr != nil {
			return errors.Join(err, deleteErr)
		}
	}

	return err
}
