package remote

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

// Executor runs commands and copies files on the device over ssh.
//
// Every invocation uses StrictHostKeyChecking=accept-new: the first host
// key seen for the device is trusted and later changes are refused. That
// suits a consumer device on a private network. It does not protect the
// very first connection on a hostile network.
type Executor struct {
	paths          Paths
	user           string
	connectTimeout time.Duration
	identityFile   string
	runner         Runner
}

type Options struct {
	Paths          Paths
	User           string
	ConnectTimeout time.Duration
	// IdentityFile is optional; without it ssh uses its own key search.
	IdentityFile string
	Runner       Runner
}

func NewExecutor(opts Options) *Executor {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 3 * time.Second
	}
	if len(opts.User) == 0 {
		opts.User = "ableton"
	}

	return &Executor{
		paths:          opts.Paths,
		user:           opts.User,
		connectTimeout: opts.ConnectTimeout,
		identityFile:   opts.IdentityFile,
		runner:         opts.Runner,
	}
}

func (e *Executor) User() string {
	return e.user
}

func (e *Executor) policyArgs() []string {
	seconds := int(e.connectTimeout.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	args := []string{
		"-o", fmt.Sprintf("ConnectTimeout=%d", seconds),
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "LogLevel=ERROR",
	}
	if len(e.identityFile) > 0 {
		args = append(args, "-i", e.identityFile, "-o", "IdentitiesOnly=yes")
	}
	return args
}

// Run executes command and reports the outcome. The error is only set when
// ssh itself could not be launched.
func (e *Executor) Run(ctx context.Context, addr netip.Addr, command string) (models.RemoteCommandResult, error) {
	args := append(e.policyArgs(), fmt.Sprintf("%s@%s", e.user, addr.String()), command)

	logrus.WithFields(logrus.Fields{
		"host":    addr.String(),
		"user":    e.user,
		"command": command,
	}).Debugln("Running remote command")

	result, err := e.runner.Run(ctx, e.paths.SSH, args...)
	if err != nil {
		return models.RemoteCommandResult{}, models.WrapError(models.KindLaunchError, err,
			"failed to run %s", e.paths.SSH)
	}

	return models.RemoteCommandResult{
		Succeeded: result.Succeeded(),
		Stdout:    result.Stdout,
		Stderr:    result.Stderr,
	}, nil
}

// Execute runs command and returns its stdout. A non-zero exit becomes
// RemoteCommandFailed carrying the remote stderr.
func (e *Executor) Execute(ctx context.Context, addr netip.Addr, command string) (string, error) {
	result, err := e.Run(ctx, addr, command)
	if err != nil {
		return "", err
	}

	if !result.Succeeded {
		logrus.WithFields(logrus.Fields{
			"host":    addr.String(),
			"command": command,
			"stderr":  strings.TrimSpace(result.Stderr),
		}).Debugln("Remote command failed")

		return "", models.NewError(models.KindRemoteCommandFailed,
			"%s", failureText(result.Stderr, "command exited with non-zero status"))
	}

	return result.Stdout, nil
}

// Upload copies localPath to remotePath on the device.
func (e *Executor) Upload(ctx context.Context, localPath, remotePath string, addr netip.Addr) error {
	host := addr.String()
	if addr.Is6() {
		host = "[" + host + "]"
	}
	target := fmt.Sprintf("%s@%s:%s", e.user, host, remotePath)
	args := append(e.policyArgs(), localPath, target)

	logrus.WithFields(logrus.Fields{
		"local":  localPath,
		"remote": target,
	}).Debugln("Uploading file")

	result, err := e.runner.Run(ctx, e.paths.SCP, args...)
	if err != nil {
		return models.WrapError(models.KindLaunchError, err, "failed to run %s", e.paths.SCP)
	}

	if !result.Succeeded() {
		return models.NewError(models.KindRemoteTransferFailed,
			"%s", failureText(result.Stderr, "transfer exited with non-zero status"))
	}

	return nil
}

// TestConnection reports whether a no-op command succeeds with the
// current key.
func (e *Executor) TestConnection(ctx context.Context, addr netip.Addr) bool {
	result, err := e.Run(ctx, addr, "true")
	return err == nil && result.Succeeded
}

func failureText(stderr, fallback string) string {
	if text := strings.TrimSpace(stderr); len(text) > 0 {
		return text
	}
	return fallback
}
