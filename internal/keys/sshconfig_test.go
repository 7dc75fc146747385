package keys

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
)

func TestWriteRemoteShellConfig_Idempotent(t *testing.T) {
	sshDir := t.TempDir()
	manager := NewManager(Options{SSHDir: sshDir})

	require.NoError(t, manager.WriteRemoteShellConfig())
	once, err := os.ReadFile(manager.ConfigPath())
	require.NoError(t, err)

	require.NoError(t, manager.WriteRemoteShellConfig())
	twice, err := os.ReadFile(manager.ConfigPath())
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
	assert.Equal(t, 1, strings.Count(string(twice), ConfigMarker))

	content := string(once)
	assert.Contains(t, content, "Host move\n")
	assert.Contains(t, content, "  HostName move.local\n")
	assert.Contains(t, content, "  User ableton\n")
	assert.Contains(t, content, "  IdentityFile "+filepath.Join(sshDir, "ableton_move")+"\n")
	assert.Contains(t, content, "  IdentitiesOnly yes\n")
}

func TestWriteRemoteShellConfig_PreservesExisting(t *testing.T) {
	sshDir := t.TempDir()
	manager := NewManager(Options{SSHDir: sshDir})

	existing := "Host github.com\n  User git"
	require.NoError(t, os.WriteFile(manager.ConfigPath(), []byte(existing), 0600))

	require.NoError(t, manager.WriteRemoteShellConfig())

	content, err := os.ReadFile(manager.ConfigPath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), existing+"\n"))
	assert.Contains(t, string(content), ConfigMarker)
}

func TestWriteRemoteShellConfig_MarkerAlreadyPresent(t *testing.T) {
	sshDir := t.TempDir()
	manager := NewManager(Options{SSHDir: sshDir})

	existing := ConfigMarker + "\nHost move\n  HostName 10.0.0.5\n"
	require.NoError(t, os.WriteFile(manager.ConfigPath(), []byte(existing), 0600))

	require.NoError(t, manager.WriteRemoteShellConfig())

	content, err := os.ReadFile(manager.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, existing, string(content))
}

func TestWriteRemoteShellConfig_QuotesPathsWithSpaces(t *testing.T) {
	sshDir := filepath.Join(t.TempDir(), "My Documents", ".ssh")
	manager := NewManager(Options{SSHDir: sshDir})

	require.NoError(t, manager.WriteRemoteShellConfig())
	content, err := os.ReadFile(manager.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), `IdentityFile "`+filepath.Join(sshDir, "ableton_move")+`"`)
}

func TestWriteRemoteShellConfig_NoHome(t *testing.T) {
	err := NewManager(Options{}).WriteRemoteShellConfig()
	assert.ErrorIs(t, err, models.ErrHomeDirUnavailable)
}
