package installer

import (
	"archive/tar"
	"context"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
	"github.com/move-everything/installer/internal/remote"
)

var device = netip.MustParseAddr("127.0.0.1")

// loopbackRunner stands in for ssh and scp: commands run in a local sh and
// uploads are plain file copies.
type loopbackRunner struct {
	commands []string
}

func (r *loopbackRunner) Run(ctx context.Context, name string, args ...string) (remote.ProcessResult, error) {
	switch name {
	case "ssh":
		command := args[len(args)-1]
		r.commands = append(r.commands, command)
		return remote.ExecRunner{}.Run(ctx, "sh", "-c", command)
	case "scp":
		source := args[len(args)-2]
		target := args[len(args)-1]
		destination := target[strings.Index(target, ":")+1:]
		if err := copyFile(source, destination); err != nil {
			return remote.ProcessResult{ExitCode: 1, Stderr: err.Error()}, nil
		}
		return remote.ProcessResult{}, nil
	}
	return remote.ProcessResult{}, os.ErrNotExist
}

func copyFile(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func newLoopbackExecutor() (*remote.Executor, *loopbackRunner) {
	runner := &loopbackRunner{}
	return remote.NewExecutor(remote.Options{
		Paths:  remote.Paths{SSH: "ssh", SCP: "scp", Keygen: "ssh-keygen"},
		User:   "ableton",
		Runner: runner,
	}), runner
}

// testLayout points every device path into a temporary directory and runs
// privileged commands without sudo.
func testLayout(t *testing.T) (models.InstallConfig, string) {
	t.Helper()
	root := t.TempDir()

	layout := models.InstallConfig{
		RemoteTempDir:   filepath.Join(root, "tmp"),
		CoreArchiveName: "move-anything.tar.gz",
		CoreExtractDir:  "move-anything",
		InstallScript:   "install.sh",
		BinaryPath:      filepath.Join(root, "opt", "Move"),
		BackupPath:      filepath.Join(root, "opt", "MoveOriginal"),
		DataRoot:        filepath.Join(root, "data"),
		ModulesRoot:     filepath.Join(root, "data", "modules"),
		ShimPath:        filepath.Join(root, "lib", "move-anything-shim.so"),
		ServiceName:     "move-installer-test-service",
	}
	require.NoError(t, os.MkdirAll(layout.RemoteTempDir, 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(layout.BinaryPath), 0755))

	return layout, root
}

type archiveFile struct {
	name    string
	content string
	mode    int64
}

func writeArchive(t *testing.T, dir, name string, files []archiveFile) string {
	t.Helper()
	archivePath := filepath.Join(dir, name)

	file, err := os.Create(archivePath)
	require.NoError(t, err)
	defer file.Close()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for _, f := range files {
		mode := f.mode
		if mode == 0 {
			mode = 0644
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     f.name,
			Mode:     mode,
			Size:     int64(len(f.content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return archivePath
}

type progressRecorder struct {
	messages []string
}

func (p *progressRecorder) sink(message string) {
	p.messages = append(p.messages, message)
}

// scriptedShell records commands and answers them from a fixed table.
type scriptedShell struct {
	commands []string
	uploads  []string
	replies  func(command string) (string, error)
}

func (s *scriptedShell) Execute(ctx context.Context, addr netip.Addr, command string) (string, error) {
	s.commands = append(s.commands, command)
	if s.replies == nil {
		return "", nil
	}
	return s.replies(command)
}

func (s *scriptedShell) Upload(ctx context.Context, localPath, remotePath string, addr netip.Addr) error {
	s.uploads = append(s.uploads, remotePath)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
