package keys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

const ConfigMarker = "# Added by Move Everything Installer"

// ConfigPath is the ssh client configuration file in the managed directory
func (m *Manager) ConfigPath() string {
	return filepath.Join(m.opts.SSHDir, "config")
}

func (m *Manager) configBlock() string {
	identity := m.DedicatedPair().PrivateKeyPath
	if strings.ContainsAny(identity, " \t") {
		identity = `"` + identity + `"`
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(ConfigMarker + "\n")
	fmt.Fprintf(&b, "Host %s\n", m.opts.HostAlias)
	fmt.Fprintf(&b, "  HostName %s\n", m.opts.DeviceHostname)
	fmt.Fprintf(&b, "  User %s\n", m.opts.User)
	fmt.Fprintf(&b, "  IdentityFile %s\n", identity)
	b.WriteString("  IdentitiesOnly yes\n")
	return b.String()
}

// WriteRemoteShellConfig appends the host alias block to the ssh client
// config unless the marker line is already present.
func (m *Manager) WriteRemoteShellConfig() error {
	if len(m.opts.SSHDir) == 0 {
		return models.NewError(models.KindHomeDirUnavailable, "cannot determine the ssh directory")
	}

	path := m.ConfigPath()

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return models.WrapError(models.KindIOError, err, "failed to read %s", path)
	}

	if hasMarker(string(existing)) {
		logrus.WithField("path", path).Debugln("ssh config already contains the device alias")
		return nil
	}

	if err := ensureDir(m.opts.SSHDir); err != nil {
		return err
	}

	block := m.configBlock()
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		block = "\n" + block
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return models.WrapError(models.KindIOError, err, "failed to open %s", path)
	}
	defer file.Close()

	// One write keeps the block whole if another process appends too
	if _, err := file.WriteString(block); err != nil {
		return models.WrapError(models.KindIOError, err, "failed to write %s", path)
	}

	logrus.WithFields(logrus.Fields{
		"path":  path,
		"alias": m.opts.HostAlias,
	}).Infoln("Added device alias to ssh config")

	return nil
}

func hasMarker(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == ConfigMarker {
			return true
		}
	}
	return false
}
