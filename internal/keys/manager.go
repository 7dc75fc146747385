package keys

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
	"github.com/move-everything/installer/internal/remote"
)

const (
	DefaultKeyName = "ableton_move"
	commentPrefix  = "move-installer@"
)

var DefaultConventionalNames = []string{"id_ed25519", "id_rsa", "id_ecdsa"}

type Options struct {
	// SSHDir holds the key pairs and the ssh client config. Required.
	SSHDir string
	// MachineName goes into the comment of generated keys.
	MachineName       string
	KeyName           string
	ConventionalNames []string
	KeygenPath        string
	// NativeFallback generates keys in-process when KeygenPath cannot run.
	NativeFallback bool
	// Values for the ssh config host alias block
	HostAlias      string
	DeviceHostname string
	User           string

	Runner remote.Runner
}

// Manager locates, creates and registers the key pair used for the
// device's remote shell.
type Manager struct {
	opts Options
}

func NewManager(opts Options) *Manager {
	if len(opts.KeyName) == 0 {
		opts.KeyName = DefaultKeyName
	}
	if opts.ConventionalNames == nil {
		opts.ConventionalNames = DefaultConventionalNames
	}
	if len(opts.KeygenPath) == 0 {
		opts.KeygenPath = "ssh-keygen"
	}
	if opts.Runner == nil {
		opts.Runner = remote.ExecRunner{}
	}
	if len(opts.HostAlias) == 0 {
		opts.HostAlias = "move"
	}
	if len(opts.DeviceHostname) == 0 {
		opts.DeviceHostname = "move.local"
	}
	if len(opts.User) == 0 {
		opts.User = "ableton"
	}
	if len(opts.MachineName) == 0 {
		opts.MachineName = "unknown"
	}

	return &Manager{opts: opts}
}

// DedicatedPair returns the paths of the installer's own key pair whether
// or not it exists.
func (m *Manager) DedicatedPair() models.KeyPair {
	return m.pairFor(m.opts.KeyName)
}

func (m *Manager) pairFor(name string) models.KeyPair {
	private := filepath.Join(m.opts.SSHDir, name)
	return models.KeyPair{
		PrivateKeyPath: private,
		PublicKeyPath:  private + ".pub",
	}
}

// FindExisting returns the dedicated pair if both halves exist, otherwise
// the first complete conventional pair. Finding nothing is not an error.
func (m *Manager) FindExisting() (*models.KeyPair, bool) {
	if len(m.opts.SSHDir) == 0 {
		return nil, false
	}

	names := append([]string{m.opts.KeyName}, m.opts.ConventionalNames...)
	for _, name := range names {
		pair := m.pairFor(name)
		if isFile(pair.PublicKeyPath) && isFile(pair.PrivateKeyPath) {
			logrus.WithFields(logrus.Fields{
				"key": pair.PrivateKeyPath,
			}).Debugln("Found existing key pair")
			return &pair, true
		}
	}

	return nil, false
}

// Generate creates the dedicated key pair, replacing any existing one.
// Callers should try FindExisting first.
func (m *Manager) Generate(ctx context.Context) (models.KeyPair, error) {
	if len(m.opts.SSHDir) == 0 {
		return models.KeyPair{}, models.NewError(models.KindHomeDirUnavailable,
			"cannot determine the ssh directory")
	}

	if err := ensureDir(m.opts.SSHDir); err != nil {
		return models.KeyPair{}, err
	}

	pair := m.DedicatedPair()
	comment := commentPrefix + m.opts.MachineName

	// ssh-keygen asks before overwriting; remove the old pair up front
	for _, path := range []string{pair.PrivateKeyPath, pair.PublicKeyPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return models.KeyPair{}, models.WrapError(models.KindIOError, err, "failed to replace %s", path)
		}
	}

	logrus.WithFields(logrus.Fields{
		"key":     pair.PrivateKeyPath,
		"keygen":  m.opts.KeygenPath,
		"comment": comment,
	}).Infoln("Generating ssh key pair")

	result, err := m.opts.Runner.Run(ctx, m.opts.KeygenPath,
		"-t", "ed25519",
		"-N", "",
		"-f", pair.PrivateKeyPath,
		"-C", comment,
	)
	switch {
	case err != nil && m.opts.NativeFallback && isLaunchFailure(err):
		logrus.WithError(err).Warnln("ssh-keygen unavailable, generating key natively")
		if err := writeNativeKeyPair(pair, comment); err != nil {
			return models.KeyPair{}, err
		}
	case err != nil:
		return models.KeyPair{}, models.WrapError(models.KindKeygenFailed, err,
			"failed to run %s", m.opts.KeygenPath)
	case !result.Succeeded():
		return models.KeyPair{}, models.NewError(models.KindKeygenFailed,
			"ssh-keygen failed: %s", strings.TrimSpace(result.Stderr))
	}

	if err := os.Chmod(pair.PrivateKeyPath, 0600); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.KeyPair{}, models.WrapError(models.KindKeygenFailed, err,
				"ssh-keygen did not create %s", pair.PrivateKeyPath)
		}
		return models.KeyPair{}, models.WrapError(models.KindPermissionError, err,
			"failed to restrict %s", pair.PrivateKeyPath)
	}

	if !isFile(pair.PublicKeyPath) {
		return models.KeyPair{}, models.NewError(models.KindKeygenFailed,
			"ssh-keygen did not create %s", pair.PublicKeyPath)
	}

	return pair, nil
}

// EnsureKeyPair returns an existing pair or generates the dedicated one.
func (m *Manager) EnsureKeyPair(ctx context.Context) (models.KeyPair, bool, error) {
	if pair, ok := m.FindExisting(); ok {
		return *pair, false, nil
	}
	pair, err := m.Generate(ctx)
	if err != nil {
		return models.KeyPair{}, false, err
	}
	return pair, true, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return models.WrapError(models.KindPermissionError, err, "failed to create %s", dir)
		}
		return models.WrapError(models.KindIOError, err, "failed to create %s", dir)
	}
	if err := os.Chmod(dir, 0700); err != nil {
		return models.WrapError(models.KindPermissionError, err, "failed to restrict %s", dir)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isLaunchFailure(err error) bool {
	var pathErr *fs.PathError
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.As(err, &pathErr)
}
