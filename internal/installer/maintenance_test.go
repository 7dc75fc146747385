package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
)

func TestUninstall(t *testing.T) {
	layout := withLayoutDefaults(models.InstallConfig{Sudo: "sudo"})
	shell := &scriptedShell{
		replies: func(command string) (string, error) {
			switch {
			case strings.HasPrefix(command, "if [ -f /opt/move/MoveOriginal ]"):
				return "restored\n", nil
			case command == "sudo reboot":
				return "", models.NewError(models.KindRemoteCommandFailed, "Connection closed by remote host")
			}
			return "", nil
		},
	}
	progress := &progressRecorder{}

	result, err := NewOrchestrator(shell, layout, WithProgress(progress.sink)).Uninstall(context.Background(), device)
	require.NoError(t, err)
	assert.True(t, result.Restored)

	assert.Equal(t, []string{
		"sudo systemctl stop move-anything 2>/dev/null || sudo killall move-anything 2>/dev/null || true",
		"sudo rm -f /usr/lib/move-anything-shim.so",
		"sudo rm -rf /data/UserData/move-anything",
		"if [ -f /opt/move/MoveOriginal ]; then sudo mv /opt/move/MoveOriginal /opt/move/Move && echo restored; else echo no_backup; fi",
		"sudo reboot",
	}, shell.commands)
	assert.Equal(t, "Uninstall complete!", progress.messages[len(progress.messages)-1])
}

func TestUninstall_NoBackup(t *testing.T) {
	layout := withLayoutDefaults(models.InstallConfig{})
	shell := &scriptedShell{
		replies: func(command string) (string, error) {
			if strings.HasPrefix(command, "if [ -f") {
				return "no_backup\n", nil
			}
			return "", nil
		},
	}

	result, err := NewOrchestrator(shell, layout).Uninstall(context.Background(), device)
	require.NoError(t, err)
	assert.False(t, result.Restored)
}

func TestUninstall_RemoveFails(t *testing.T) {
	layout := withLayoutDefaults(models.InstallConfig{Sudo: "sudo"})
	shell := &scriptedShell{
		replies: func(command string) (string, error) {
			if command == "sudo rm -rf /data/UserData/move-anything" {
				return "", models.NewError(models.KindRemoteCommandFailed, "rm: Permission denied")
			}
			return "", nil
		},
	}

	_, err := NewOrchestrator(shell, layout).Uninstall(context.Background(), device)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepRemove, stepErr.Step)
	assert.Len(t, shell.commands, 3)
}

func TestUninstall_RebootFailures(t *testing.T) {
	tests := []struct {
		name      string
		rebootErr error
		cancel    bool
		wantErr   bool
	}{
		{
			name:      "connection dropped",
			rebootErr: models.NewError(models.KindRemoteCommandFailed, "Connection closed by remote host"),
		},
		{
			name:      "ssh could not start",
			rebootErr: models.NewError(models.KindLaunchError, "ssh: executable file not found"),
			wantErr:   true,
		},
		{
			name:      "cancelled",
			rebootErr: models.NewError(models.KindRemoteCommandFailed, "signal: killed"),
			cancel:    true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			layout := withLayoutDefaults(models.InstallConfig{})
			shell := &scriptedShell{
				replies: func(command string) (string, error) {
					if command == "reboot" {
						if tt.cancel {
							cancel()
						}
						return "", tt.rebootErr
					}
					return "", nil
				},
			}
			progress := &progressRecorder{}

			_, err := NewOrchestrator(shell, layout, WithProgress(progress.sink)).Uninstall(ctx, device)
			last := progress.messages[len(progress.messages)-1]
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "Uninstall complete!", last)
				return
			}

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, StepReboot, stepErr.Step)
			assert.Equal(t, "Restarting Move...", last)
		})
	}
}

func TestScreenReader(t *testing.T) {
	layout, _ := testLayout(t)
	shell, _ := newLoopbackExecutor()
	orchestrator := NewOrchestrator(shell, layout)
	ctx := context.Background()

	enabled, err := orchestrator.ScreenReaderEnabled(ctx, device)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, orchestrator.SetScreenReader(ctx, device, true))
	state, err := os.ReadFile(filepath.Join(layout.DataRoot, "config", "screen_reader_state.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(state))

	enabled, err = orchestrator.ScreenReaderEnabled(ctx, device)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, orchestrator.SetScreenReader(ctx, device, false))
	enabled, err = orchestrator.ScreenReaderEnabled(ctx, device)
	require.NoError(t, err)
	assert.False(t, enabled)
}
