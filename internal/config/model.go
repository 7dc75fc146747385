package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/move-everything/installer/internal/models"
)

const catalogURLFormat = "https://raw.githubusercontent.com/%s/%s/main/module-catalog.json"

// Config represents the application configuration structure
type Config struct {

	// Local machine details
	Environment models.EnvironmentConfig `mapstructure:"environment"`

	// Device and provisioning
	Device     models.DeviceConfig     `mapstructure:"device"`
	Auth       models.AuthConfig       `mapstructure:"auth"`
	SSH        models.SSHConfig        `mapstructure:"ssh"`
	Install    models.InstallConfig    `mapstructure:"install"`
	TrustStore models.TrustStoreConfig `mapstructure:"truststore"`
	Release    models.ReleaseConfig    `mapstructure:"release"`

	Logging models.LoggingConfig `mapstructure:"logging"`

	logger *EventLogger
}

// GetLogger returns the buffered log hook. It is only set after Load.
func (c *Config) GetLogger() *EventLogger {
	if c.logger == nil {
		c.logger = NewEventLogger(defaultEventBufferSize)
	}
	return c.logger
}

// GetDeviceAddress returns the configured address override, if any
func (c *Config) GetDeviceAddress() (netip.Addr, bool, error) {
	raw := strings.TrimSpace(c.Device.Address)
	if len(raw) == 0 {
		return netip.Addr{}, false, nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false, models.WrapError(
			models.KindInvalidArgument, err, "invalid device address %q", raw)
	}
	return addr, true, nil
}

// GetSSHDir returns the directory holding key pairs and the ssh client config
func (c *Config) GetSSHDir() (string, error) {
	if len(c.SSH.Dir) > 0 {
		return expandHome(c.SSH.Dir)
	}
	home, err := os.UserHomeDir()
	if err != nil || len(home) == 0 {
		return "", models.WrapError(models.KindHomeDirUnavailable, err, "cannot determine home directory")
	}
	return filepath.Join(home, ".ssh"), nil
}

// GetTrustStorePath returns the file used by the file trust store backend
func (c *Config) GetTrustStorePath() (string, error) {
	if len(c.TrustStore.Path) > 0 {
		return expandHome(c.TrustStore.Path)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", models.WrapError(models.KindHomeDirUnavailable, err, "cannot determine config directory")
	}
	return filepath.Join(configDir, ConfigDirName, "token.yaml"), nil
}

// GetDownloadDir returns where release artifacts are stored locally
func (c *Config) GetDownloadDir() (string, error) {
	if len(c.Release.DownloadDir) > 0 {
		return expandHome(c.Release.DownloadDir)
	}
	return filepath.Join(os.TempDir(), ConfigDirName), nil
}

func (c *Config) GetCatalogURL() string {
	if len(c.Release.CatalogURL) > 0 {
		return c.Release.CatalogURL
	}
	return fmt.Sprintf(catalogURLFormat, c.Release.Owner, c.Release.Repo)
}

func (c *Config) GetMachineName() string {
	if len(c.Environment.Hostname) > 0 {
		return c.Environment.Hostname
	}
	return "unknown"
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", models.WrapError(models.KindHomeDirUnavailable, err, "cannot expand %s", path)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
