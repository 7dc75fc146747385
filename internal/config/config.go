package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/move-everything/installer/internal/config/environment"
)

const (
	EnvPrefix     = "MOVE_INSTALLER"
	ConfigDirName = "move-installer"
)

// Variables outside the MOVE_INSTALLER_<SECTION>_<KEY> scheme that are
// still honoured, in priority order after the prefixed name.
var envAliases = map[string][]string{
	"device.address":       {"MOVE_DEVICE_IP"},
	"device.hostname":      {"MOVE_HOSTNAME"},
	"release.github_token": {"GITHUB_TOKEN"},
}

// DefaultConfig returns the configuration with only defaults applied.
func DefaultConfig() *Config {
	v := newViper("")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	return &config
}

// Load reads configuration from defaults, the config file, a .env file and
// the environment, then configures logrus from the result.
func Load(configFile string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: ignoring .env file: %v\n", err)
	}

	v := newViper(configFile)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	logrus.WithField("file", v.ConfigFileUsed()).Debugln("Configuration source")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.applyLogging(); err != nil {
		return nil, err
	}
	return &config, nil
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, ConfigDirName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

// applyLogging sets the logrus level, formatter and output and installs the
// event hook used by diagnostics.
func (c *Config) applyLogging() error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch target := strings.ToLower(c.Logging.Output); target {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(c.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", c.Logging.Output, err)
		}
		output = file
	}

	logrus.SetLevel(level)
	logrus.SetOutput(output)

	if strings.EqualFold(c.Logging.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		if !strings.EqualFold(c.Logging.Format, "text") {
			logrus.WithField("format", c.Logging.Format).Warnln("Unknown log format, using text")
		}
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	c.logger = NewEventLogger(defaultEventBufferSize)
	logrus.AddHook(c.logger)
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment.hostname", environment.DetectHostname())
	v.SetDefault("environment.os", environment.DetectOperatingSystem())
	v.SetDefault("environment.os_version", environment.DetectOSVersion())
	v.SetDefault("environment.arch", environment.DetectArchitecture())

	// Device discovery defaults
	v.SetDefault("device.hostname", "move.local")
	v.SetDefault("device.match", "move")
	v.SetDefault("device.service_type", "_http._tcp.local.")
	v.SetDefault("device.http_port", 80)
	v.SetDefault("device.probe_timeout", "5s")
	v.SetDefault("device.resolve_timeout", "2s")
	v.SetDefault("device.discovery_window", "5s")
	v.SetDefault("device.poll_interval", "100ms")
	v.SetDefault("device.address", "")

	// Challenge-response defaults
	v.SetDefault("auth.cookie_name", "Ableton-Challenge-Response-Token")
	v.SetDefault("auth.timeout", "60s")

	// Remote shell defaults
	v.SetDefault("ssh.user", "ableton")
	v.SetDefault("ssh.dir", "")
	v.SetDefault("ssh.key_name", "ableton_move")
	v.SetDefault("ssh.conventional_keys", []string{"id_ed25519", "id_rsa", "id_ecdsa"})
	v.SetDefault("ssh.connect_timeout", "3s")
	v.SetDefault("ssh.resource_dir", "")
	v.SetDefault("ssh.native_keygen", true)
	v.SetDefault("ssh.host_alias", "move")

	// Remote layout defaults
	v.SetDefault("install.remote_temp_dir", "/tmp")
	v.SetDefault("install.core_archive_name", "move-anything.tar.gz")
	v.SetDefault("install.core_extract_dir", "move-anything")
	v.SetDefault("install.install_script", "install.sh")
	v.SetDefault("install.binary_path", "/opt/move/Move")
	v.SetDefault("install.backup_path", "/opt/move/MoveOriginal")
	v.SetDefault("install.data_root", "/data/UserData/move-anything")
	v.SetDefault("install.modules_root", "/data/UserData/move-anything/modules")
	v.SetDefault("install.shim_path", "/usr/lib/move-anything-shim.so")
	v.SetDefault("install.service_name", "move-anything")
	v.SetDefault("install.sudo", "sudo")

	// Trust store defaults
	v.SetDefault("truststore.backend", "keyring")
	v.SetDefault("truststore.service", "move-installer")
	v.SetDefault("truststore.key", "auth-cookie")
	v.SetDefault("truststore.path", "")

	// Release defaults
	v.SetDefault("release.owner", "charlesvestal")
	v.SetDefault("release.repo", "move-anything")
	v.SetDefault("release.catalog_url", "")
	v.SetDefault("release.github_token", "")
	v.SetDefault("release.download_dir", "")
	v.SetDefault("release.user_agent", "move-installer")
	v.SetDefault("release.core_asset_name", "move-anything.tar.gz")
	v.SetDefault("release.installer_owner", "charlesvestal")
	v.SetDefault("release.installer_repo", "move-anything")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}
