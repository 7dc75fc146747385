package installer

import (
	"context"
	"fmt"
	"net/netip"
	"path"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

// Shell is the remote side of an install. remote.Executor satisfies it.
type Shell interface {
	Execute(ctx context.Context, addr netip.Addr, command string) (string, error)
	Upload(ctx context.Context, localPath, remotePath string, addr netip.Addr) error
}

// ProgressFunc receives one human readable line per workflow step.
type ProgressFunc func(message string)

// Step names reported in StepError.
const (
	StepPrepare   = "prepare"
	StepValidate  = "validate"
	StepUpload    = "upload"
	StepBackup    = "backup"
	StepExtract   = "extract"
	StepInstall   = "install"
	StepCleanup   = "cleanup"
	StepInspect   = "inspect"
	StepStop      = "stop"
	StepRemove    = "remove"
	StepRestore   = "restore"
	StepReboot    = "reboot"
	StepConfigure = "configure"
)

// StepError names the workflow step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Orchestrator sequences the install workflows against one device. It keeps
// no state between calls.
type Orchestrator struct {
	shell  Shell
	layout models.InstallConfig
	sink   ProgressFunc
}

type OrchestratorOption func(*Orchestrator)

// WithProgress sets the progress callback. Without it progress is only logged.
func WithProgress(sink ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

func NewOrchestrator(shell Shell, layout models.InstallConfig, opts ...OrchestratorOption) *Orchestrator {
	layout = withLayoutDefaults(layout)

	o := &Orchestrator{
		shell:  shell,
		layout: layout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func withLayoutDefaults(layout models.InstallConfig) models.InstallConfig {
	if len(layout.RemoteTempDir) == 0 {
		layout.RemoteTempDir = "/tmp"
	}
	if len(layout.CoreArchiveName) == 0 {
		layout.CoreArchiveName = "move-anything.tar.gz"
	}
	if len(layout.CoreExtractDir) == 0 {
		layout.CoreExtractDir = "move-anything"
	}
	if len(layout.InstallScript) == 0 {
		layout.InstallScript = "install.sh"
	}
	if len(layout.BinaryPath) == 0 {
		layout.BinaryPath = "/opt/move/Move"
	}
	if len(layout.BackupPath) == 0 {
		layout.BackupPath = "/opt/move/MoveOriginal"
	}
	if len(layout.DataRoot) == 0 {
		layout.DataRoot = "/data/UserData/move-anything"
	}
	if len(layout.ModulesRoot) == 0 {
		layout.ModulesRoot = path.Join(layout.DataRoot, "modules")
	}
	if len(layout.ShimPath) == 0 {
		layout.ShimPath = "/usr/lib/move-anything-shim.so"
	}
	if len(layout.ServiceName) == 0 {
		layout.ServiceName = "move-anything"
	}
	return layout
}

func (o *Orchestrator) Layout() models.InstallConfig {
	return o.layout
}

func (o *Orchestrator) progress(message string) {
	logrus.Infoln(message)
	if o.sink != nil {
		o.sink(message)
	}
}

func (o *Orchestrator) run(ctx context.Context, addr netip.Addr, step, command string) (string, error) {
	out, err := o.shell.Execute(ctx, addr, command)
	if err != nil {
		return "", &StepError{Step: step, Err: err}
	}
	return out, nil
}

func (o *Orchestrator) privileged(command string) string {
	if len(o.layout.Sudo) == 0 {
		return command
	}
	return o.layout.Sudo + " " + command
}

func (o *Orchestrator) tempPath(name string) string {
	return path.Join(o.layout.RemoteTempDir, name)
}

func quote(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = shellescape.Quote(part)
	}
	return strings.Join(quoted, " ")
}
