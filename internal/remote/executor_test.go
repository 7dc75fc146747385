package remote

import (
	"context"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
)

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []recordedCall
	result ProcessResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (ProcessResult, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	return f.result, f.err
}

var device = netip.MustParseAddr("192.168.1.77")

func TestExecute_ConnectionPolicy(t *testing.T) {
	runner := &fakeRunner{result: ProcessResult{Stdout: "ok\n"}}
	executor := NewExecutor(Options{
		Paths:          DefaultPaths("linux", ""),
		User:           "ableton",
		ConnectTimeout: 3 * time.Second,
		IdentityFile:   "/home/user/.ssh/ableton_move",
		Runner:         runner,
	})

	out, err := executor.Execute(context.Background(), device, "cat /data/UserData/move-anything/version.txt")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "/usr/bin/ssh", call.name)
	assert.Equal(t, []string{
		"-o", "ConnectTimeout=3",
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "LogLevel=ERROR",
		"-i", "/home/user/.ssh/ableton_move",
		"-o", "IdentitiesOnly=yes",
		"ableton@192.168.1.77",
		"cat /data/UserData/move-anything/version.txt",
	}, call.args)
}

func TestExecute_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		result   ProcessResult
		err      error
		wantKind models.ErrorKind
		wantText string
	}{
		{
			name:   "success",
			result: ProcessResult{ExitCode: 0, Stdout: "done"},
		},
		{
			name:     "remote failure keeps stderr",
			result:   ProcessResult{ExitCode: 1, Stderr: "tar: short read\n"},
			wantKind: models.KindRemoteCommandFailed,
			wantText: "tar: short read",
		},
		{
			name:     "remote failure without stderr",
			result:   ProcessResult{ExitCode: 255},
			wantKind: models.KindRemoteCommandFailed,
			wantText: "non-zero",
		},
		{
			name:     "launch failure",
			err:      errors.New("exec: \"ssh\": executable file not found in $PATH"),
			wantKind: models.KindLaunchError,
			wantText: "executable file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := NewExecutor(Options{
				Paths:  DefaultPaths("linux", ""),
				Runner: &fakeRunner{result: tt.result, err: tt.err},
			})

			_, err := executor.Execute(context.Background(), device, "true")
			if len(tt.wantKind) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, models.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

func TestUpload(t *testing.T) {
	runner := &fakeRunner{}
	executor := NewExecutor(Options{Paths: DefaultPaths("linux", ""), Runner: runner})

	require.NoError(t, executor.Upload(context.Background(), "/tmp/local.tar.gz", "/tmp/move-anything.tar.gz", device))

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "/usr/bin/scp", call.name)
	assert.Contains(t, call.args, "StrictHostKeyChecking=accept-new")
	assert.Equal(t, []string{"/tmp/local.tar.gz", "ableton@192.168.1.77:/tmp/move-anything.tar.gz"},
		call.args[len(call.args)-2:])
}

func TestUpload_IPv6AndFailures(t *testing.T) {
	runner := &fakeRunner{result: ProcessResult{ExitCode: 1, Stderr: "scp: /tmp: No space left on device"}}
	executor := NewExecutor(Options{Paths: DefaultPaths("linux", ""), Runner: runner})

	err := executor.Upload(context.Background(), "a.tar.gz", "/tmp/a.tar.gz", netip.MustParseAddr("fe80::1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRemoteTransferFailed)
	assert.Contains(t, err.Error(), "No space left on device")
	assert.Equal(t, "ableton@[fe80::1]:/tmp/a.tar.gz", runner.calls[0].args[len(runner.calls[0].args)-1])

	executor = NewExecutor(Options{Paths: DefaultPaths("linux", ""), Runner: &fakeRunner{err: os.ErrNotExist}})
	err = executor.Upload(context.Background(), "a.tar.gz", "/tmp/a.tar.gz", device)
	assert.ErrorIs(t, err, models.ErrLaunchError)
}

func TestDefaultPaths(t *testing.T) {
	linux := DefaultPaths("linux", "/ignored")
	assert.Equal(t, Paths{SSH: "/usr/bin/ssh", SCP: "/usr/bin/scp", Keygen: "/usr/bin/ssh-keygen"}, linux)

	darwin := DefaultPaths("darwin", "")
	assert.Equal(t, linux, darwin)

	windows := DefaultPaths("windows", filepath.Join("C:", "Program Files", "Move Installer"))
	assert.True(t, strings.HasSuffix(windows.SSH, filepath.Join("bin", "ssh.exe")))
	assert.True(t, strings.HasSuffix(windows.SCP, filepath.Join("bin", "scp.exe")))
	assert.True(t, strings.HasSuffix(windows.Keygen, filepath.Join("bin", "ssh-keygen.exe")))
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ssh")
	require.NoError(t, os.WriteFile(script, []byte(`#!/bin/sh
for last; do :; done
case "$last" in
  fail) echo "remote boom" >&2; exit 3 ;;
  *) echo "ran: $last" ;;
esac
`), 0700))

	executor := NewExecutor(Options{Paths: Paths{SSH: script}, Runner: ExecRunner{}})

	out, err := executor.Execute(context.Background(), device, "uname")
	require.NoError(t, err)
	assert.Equal(t, "ran: uname\n", out)

	result, err := executor.Run(context.Background(), device, "fail")
	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	assert.Equal(t, "remote boom\n", result.Stderr)

	_, err = executor.Execute(context.Background(), device, "fail")
	assert.ErrorIs(t, err, models.ErrRemoteCommandFailed)
	assert.Contains(t, err.Error(), "remote boom")

	assert.True(t, executor.TestConnection(context.Background(), device))

	missing := NewExecutor(Options{Paths: Paths{SSH: filepath.Join(dir, "does-not-exist")}})
	_, err = missing.Execute(context.Background(), device, "true")
	assert.ErrorIs(t, err, models.ErrLaunchError)
	assert.False(t, missing.TestConnection(context.Background(), device))
}
