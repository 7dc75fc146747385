package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
)

func TestSubdirectoryFor(t *testing.T) {
	tests := []struct {
		componentType string
		want          string
	}{
		{"sound_generator", "sound_generators"},
		{"audio_fx", "audio_fx"},
		{"midi_fx", "midi_fx"},
		{"utility", "utilities"},
		{"overtake", "overtake"},
		{"featured", ""},
		{"system", ""},
		{"", "other"},
		{"sequencer", "other"},
		{"Utility", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.componentType, func(t *testing.T) {
			assert.Equal(t, tt.want, SubdirectoryFor(tt.componentType))
		})
	}
}

func moduleArchive(t *testing.T, id string, files ...archiveFile) string {
	return writeArchive(t, t.TempDir(), id+"-module.tar.gz", files)
}

func TestInstallModule(t *testing.T) {
	layout, _ := testLayout(t)
	shell, _ := newLoopbackExecutor()
	progress := &progressRecorder{}
	orchestrator := NewOrchestrator(shell, layout, WithProgress(progress.sink))

	artifact := moduleArchive(t, "braids",
		archiveFile{name: "braids/module.json", content: `{"id":"braids","version":"0.1.0"}`},
		archiveFile{name: "braids/dsp.so", content: "binary"},
	)

	target, err := orchestrator.InstallModule(context.Background(), device,
		models.NewModuleJob("braids", "sound_generator", artifact))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(layout.ModulesRoot, "sound_generators", "braids"), target)
	assert.True(t, fileExists(filepath.Join(target, "module.json")))
	assert.True(t, fileExists(filepath.Join(target, "dsp.so")))
	assert.False(t, fileExists(filepath.Join(layout.RemoteTempDir, "braids-module.tar.gz")))
	assert.False(t, fileExists(filepath.Join(layout.RemoteTempDir, "braids")))

	assert.Equal(t, "Validating braids package...", progress.messages[0])
	assert.Equal(t, "Clearing stale temporary files...", progress.messages[1])
	assert.Equal(t, "braids installed!", progress.messages[len(progress.messages)-1])
}

func TestInstallModule_OverwritesPriorInstall(t *testing.T) {
	layout, _ := testLayout(t)
	shell, _ := newLoopbackExecutor()
	orchestrator := NewOrchestrator(shell, layout)

	first := moduleArchive(t, "arp",
		archiveFile{name: "arp/module.json", content: `{"id":"arp","version":"1.0.0"}`},
		archiveFile{name: "arp/old-preset.json", content: "{}"},
	)
	second := moduleArchive(t, "arp",
		archiveFile{name: "arp/module.json", content: `{"id":"arp","version":"1.1.0"}`},
		archiveFile{name: "arp/new-preset.json", content: "{}"},
	)

	target, err := orchestrator.InstallModule(context.Background(), device, models.NewModuleJob("arp", "midi_fx", first))
	require.NoError(t, err)
	again, err := orchestrator.InstallModule(context.Background(), device, models.NewModuleJob("arp", "midi_fx", second))
	require.NoError(t, err)
	assert.Equal(t, target, again)

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"module.json", "new-preset.json"}, names)

	manifest, err := os.ReadFile(filepath.Join(target, "module.json"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "1.1.0")
}

func TestInstallModule_RootComponents(t *testing.T) {
	layout := withLayoutDefaults(models.InstallConfig{})
	shell := &scriptedShell{}

	artifact := moduleArchive(t, "chain",
		archiveFile{name: "chain/module.json", content: `{"id":"chain","version":"0.2.0"}`},
	)

	target, err := NewOrchestrator(shell, layout).InstallModule(context.Background(), device,
		models.NewModuleJob("chain", "featured", artifact))
	require.NoError(t, err)

	assert.Equal(t, "/data/UserData/move-anything/modules/chain", target)
	assert.Equal(t, []string{"/tmp/chain-module.tar.gz"}, shell.uploads)
	assert.Equal(t, []string{
		"rm -rf /tmp/chain /tmp/chain-module.tar.gz",
		"cd /tmp && tar -xzf chain-module.tar.gz",
		"rm -rf /data/UserData/move-anything/modules/chain",
		"mv /tmp/chain /data/UserData/move-anything/modules/chain",
		"rm -f /tmp/chain-module.tar.gz",
	}, shell.commands)
}

func TestInstallModule_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		moduleID string
		files    []archiveFile
		wantKind models.ErrorKind
	}{
		{
			name:     "path traversal id",
			moduleID: "../etc",
			files:    []archiveFile{{name: "etc/module.json", content: "{}"}},
			wantKind: models.KindInvalidArgument,
		},
		{
			name:     "shell metacharacters",
			moduleID: "x;reboot",
			files:    []archiveFile{{name: "x/module.json", content: "{}"}},
			wantKind: models.KindInvalidArgument,
		},
		{
			name:     "archive without module directory",
			moduleID: "braids",
			files:    []archiveFile{{name: "plaits/module.json", content: "{}"}},
			wantKind: models.KindArtifactInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := withLayoutDefaults(models.InstallConfig{})
			shell := &scriptedShell{replies: func(string) (string, error) {
				return "", models.NewError(models.KindLaunchError, "ssh: connect to host refused")
			}}

			artifact := writeArchive(t, t.TempDir(), "module.tar.gz", tt.files)
			_, err := NewOrchestrator(shell, layout).InstallModule(context.Background(), device,
				models.NewModuleJob(tt.moduleID, "utility", artifact))
			require.Error(t, err)

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, StepValidate, stepErr.Step)
			assert.Equal(t, tt.wantKind, models.KindOf(err))
			assert.Empty(t, shell.commands)
			assert.Empty(t, shell.uploads)
		})
	}
}

func TestInstallModule_FailingStepAborts(t *testing.T) {
	layout := withLayoutDefaults(models.InstallConfig{})
	shell := &scriptedShell{
		replies: func(command string) (string, error) {
			if command == "mkdir -p /data/UserData/move-anything/modules/utilities" {
				return "", models.NewError(models.KindRemoteCommandFailed, "mkdir: Read-only file system")
			}
			return "", nil
		},
	}

	artifact := moduleArchive(t, "tuner",
		archiveFile{name: "tuner/module.json", content: `{"id":"tuner","version":"1.0.0"}`},
	)
	_, err := NewOrchestrator(shell, layout).InstallModule(context.Background(), device,
		models.NewModuleJob("tuner", "utility", artifact))
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepInstall, stepErr.Step)
	assert.Contains(t, err.Error(), "Read-only file system")
	assert.Equal(t, "mkdir -p /data/UserData/move-anything/modules/utilities", shell.commands[len(shell.commands)-1])
}
