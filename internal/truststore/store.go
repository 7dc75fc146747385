package truststore

import (
	"fmt"
	"strings"

	"github.com/move-everything/installer/internal/models"
)

const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// Store persists opaque secrets under a fixed service namespace. Load
// reports absence with ok=false rather than an error.
type Store interface {
	Save(key, value string) error
	Load(key string) (value string, ok bool, err error)
	Delete(key string) error
}

// NewStore selects the backend named in the trust store configuration.
// path is only used by the file backend.
func NewStore(cfg models.TrustStoreConfig, path string) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendKeyring:
		return NewKeyringStore(cfg.Service), nil
	case BackendFile:
		return NewFileStore(path, cfg.Service), nil
	default:
		return nil, models.NewError(models.KindInvalidArgument,
			"unknown trust store backend %q", cfg.Backend)
	}
}

func describe(service, key string) string {
	return fmt.Sprintf("%s/%s", service, key)
}
