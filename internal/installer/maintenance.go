package installer

import (
	"context"
	"net/netip"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

const (
	restoredMarker    = "restored"
	screenReaderState = "config/screen_reader_state.txt"
)

// UninstallResult reports what the uninstall found on the device.
type UninstallResult struct {
	Restored bool `json:"restored"`
}

// Uninstall stops the service, removes the shim and all installer data,
// puts the original binary back when a backup exists and reboots the device.
func (o *Orchestrator) Uninstall(ctx context.Context, addr netip.Addr) (UninstallResult, error) {
	result := UninstallResult{}
	service := quote(o.layout.ServiceName)

	o.progress("Stopping Move Everything...")
	stop := o.privileged("systemctl stop "+service) + " 2>/dev/null || " +
		o.privileged("killall "+service) + " 2>/dev/null || true"
	if _, err := o.run(ctx, addr, StepStop, stop); err != nil {
		return result, err
	}

	o.progress("Removing shim library...")
	if _, err := o.run(ctx, addr, StepRemove, o.privileged("rm -f "+quote(o.layout.ShimPath))); err != nil {
		return result, err
	}

	o.progress("Removing Move Everything files...")
	if _, err := o.run(ctx, addr, StepRemove, o.privileged("rm -rf "+quote(o.layout.DataRoot))); err != nil {
		return result, err
	}

	o.progress("Restoring original Move binary...")
	restore := "if [ -f " + quote(o.layout.BackupPath) + " ]; then " +
		o.privileged("mv "+quote(o.layout.BackupPath, o.layout.BinaryPath)) +
		" && echo " + restoredMarker + "; else echo no_backup; fi"
	out, err := o.run(ctx, addr, StepRestore, restore)
	if err != nil {
		return result, err
	}
	result.Restored = strings.TrimSpace(out) == restoredMarker
	if !result.Restored {
		logrus.WithField("backup", o.layout.BackupPath).Warnln("No backup of the original binary found")
	}

	o.progress("Restarting Move...")
	if _, err := o.shell.Execute(ctx, addr, o.privileged("reboot")); err != nil {
		if ctx.Err() != nil {
			return result, &StepError{Step: StepReboot, Err: ctx.Err()}
		}
		if models.KindOf(err) != models.KindRemoteCommandFailed {
			return result, &StepError{Step: StepReboot, Err: err}
		}
		// The device drops the connection while going down
		logrus.WithError(err).Debugln("Reboot command did not complete cleanly")
	}

	o.progress("Uninstall complete!")
	return result, nil
}

func (o *Orchestrator) screenReaderPath() string {
	return path.Join(o.layout.DataRoot, screenReaderState)
}

// ScreenReaderEnabled reads the persisted screen reader toggle. A missing
// state file means disabled.
func (o *Orchestrator) ScreenReaderEnabled(ctx context.Context, addr netip.Addr) (bool, error) {
	out, err := o.run(ctx, addr, StepInspect,
		"cat "+quote(o.screenReaderPath())+" 2>/dev/null || echo 0")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "1", nil
}

// SetScreenReader persists the toggle and restarts the service so it picks
// up the new value.
func (o *Orchestrator) SetScreenReader(ctx context.Context, addr netip.Addr, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	state := o.screenReaderPath()

	o.progress("Updating screen reader setting...")
	command := "mkdir -p " + quote(path.Dir(state)) + " && echo " + value + " > " + quote(state)
	if _, err := o.run(ctx, addr, StepConfigure, command); err != nil {
		return err
	}

	if _, err := o.run(ctx, addr, StepConfigure,
		"killall "+quote(o.layout.ServiceName)+" 2>/dev/null || true"); err != nil {
		return err
	}

	logrus.WithField("enabled", enabled).Infoln("Screen reader setting updated")
	return nil
}
