package cli

import (
	"errors"
	"net/netip"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
)

func update(t *testing.T, m progressModel, msg tea.Msg) (progressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(progressModel)
	require.True(t, ok)
	return model, cmd
}

func TestProgressModel_Steps(t *testing.T) {
	m := newProgressModel("Installing")

	m, _ = update(t, m, stepMsg{message: "Uploading to Move..."})
	assert.Empty(t, m.completed)
	assert.Equal(t, "Uploading to Move...", m.current)

	m, _ = update(t, m, stepMsg{message: "Warning: backup failed: cp: denied"})
	assert.Equal(t, []string{"Warning: backup failed: cp: denied"}, m.completed)
	assert.Equal(t, "Uploading to Move...", m.current)

	m, _ = update(t, m, stepMsg{message: "Extracting files..."})
	assert.Equal(t, []string{"Warning: backup failed: cp: denied", "Uploading to Move..."}, m.completed)

	m, cmd := update(t, m, doneMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, m.finished)
	assert.Empty(t, m.current)
	assert.Contains(t, m.completed, "Extracting files...")

	view := m.View()
	assert.Contains(t, view, "Installing")
	assert.Contains(t, view, "Extracting files...")
	assert.Contains(t, view, "! Warning: backup failed")
}

func TestProgressModel_Failure(t *testing.T) {
	m := newProgressModel("Installing")
	m, _ = update(t, m, stepMsg{message: "Installing Move Everything..."})
	m, _ = update(t, m, doneMsg{err: errors.New("install step failed")})

	assert.Equal(t, "Installing Move Everything...", m.current)
	assert.Contains(t, m.View(), "✗ Installing Move Everything...")
}

func TestProgressModel_Quit(t *testing.T) {
	m := newProgressModel("Installing")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Cancelling...")
}

func TestRenderStatus(t *testing.T) {
	device := models.DeviceHandle{Hostname: "move.local", Address: netip.MustParseAddr("192.168.1.40")}

	t.Run("with plan", func(t *testing.T) {
		out := renderStatus(statusReport{
			Device:       device,
			Installation: models.Installation{Installed: true, Core: "0.3.0"},
			LatestCore:   "0.4.0",
			Plan: &models.UpgradePlan{
				CoreUpgrade: &models.VersionUpgrade{Current: "0.3.0", Available: "0.4.0"},
				UpgradableModules: []models.ModuleStatus{
					{Module: models.Module{ID: "braids", Name: "Braids", Version: "1.2.0"}, CurrentVersion: "1.1.0"},
				},
				UpToDateModules: []models.ModuleStatus{
					{Module: models.Module{ID: "arp", Name: "Arpeggiator", Version: "0.2.0"}, CurrentVersion: "0.2.0"},
				},
				NewModules: []models.Module{{ID: "reverb", Name: "Reverb", Description: "Plate reverb"}},
			},
		})

		assert.Contains(t, out, "192.168.1.40")
		assert.Contains(t, out, "UPGRADE 0.4.0")
		assert.Contains(t, out, "Braids")
		assert.Contains(t, out, "Arpeggiator")
		assert.Contains(t, out, "Reverb")
		assert.Contains(t, out, "Plate reverb")
	})

	t.Run("offline", func(t *testing.T) {
		out := renderStatus(statusReport{
			Device: device,
			Installation: models.Installation{
				Installed: true,
				Modules:   []models.InstalledModule{{ID: "braids", Name: "Braids", Version: "1.1.0"}},
			},
		})

		assert.Contains(t, out, "installed (unknown version)")
		assert.Contains(t, out, "Braids")
		assert.NotContains(t, out, "UPGRADE")
	})

	t.Run("not installed", func(t *testing.T) {
		out := renderStatus(statusReport{Device: device})
		assert.Contains(t, out, "not installed")
		assert.Contains(t, out, "none installed")
	})
}
