package installer

import (
	"context"
	"net/netip"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

const noBinaryMarker = "no_binary"

// InstallCore validates the local package, uploads it, makes a best effort
// backup of the stock binary, extracts it, runs the bundled install script
// and cleans up.
// The first failing step aborts the workflow.
func (o *Orchestrator) InstallCore(ctx context.Context, addr netip.Addr, job models.InstallJob) error {
	archive := o.tempPath(o.layout.CoreArchiveName)
	extractDir := o.tempPath(o.layout.CoreExtractDir)

	logrus.WithFields(logrus.Fields{
		"host":     addr.String(),
		"artifact": job.ArtifactPath,
	}).Debugln("Starting core install")

	o.progress("Validating package...")
	if _, err := ValidateArtifact(job.ArtifactPath); err != nil {
		return &StepError{Step: StepValidate, Err: err}
	}

	o.progress("Clearing stale temporary files...")
	if _, err := o.run(ctx, addr, StepPrepare, "rm -rf "+quote(extractDir, archive)); err != nil {
		return err
	}

	o.progress("Uploading to Move...")
	if err := o.shell.Upload(ctx, job.ArtifactPath, archive, addr); err != nil {
		return &StepError{Step: StepUpload, Err: err}
	}

	o.progress("Backing up original Move binary...")
	if err := o.backupBinary(ctx, addr); err != nil {
		return err
	}

	o.progress("Extracting files...")
	if _, err := o.run(ctx, addr, StepExtract, extractCommand(o.layout.RemoteTempDir, o.layout.CoreArchiveName)); err != nil {
		return err
	}

	o.progress("Installing Move Everything...")
	script := path.Join(extractDir, o.layout.InstallScript)
	if _, err := o.run(ctx, addr, StepInstall, o.privileged(quote(script))); err != nil {
		return err
	}

	o.progress("Cleaning up...")
	if _, err := o.run(ctx, addr, StepCleanup, "rm -rf "+quote(extractDir, archive)); err != nil {
		return err
	}

	o.progress("Installation complete!")
	return nil
}

// backupBinary copies the stock binary aside. A missing binary or a failing
// copy never aborts the install; only a cancelled context does.
func (o *Orchestrator) backupBinary(ctx context.Context, addr netip.Addr) error {
	command := "if [ -f " + quote(o.layout.BinaryPath) + " ]; then " +
		o.privileged("cp "+quote(o.layout.BinaryPath, o.layout.BackupPath)) +
		"; else echo " + noBinaryMarker + "; fi"

	out, err := o.shell.Execute(ctx, addr, command)
	switch {
	case ctx.Err() != nil:
		return &StepError{Step: StepBackup, Err: ctx.Err()}
	case err != nil:
		logrus.WithError(err).WithField("binary", o.layout.BinaryPath).
			Warnln("Backup of the original binary failed, continuing")
		if o.sink != nil {
			o.sink("Warning: backup failed: " + err.Error())
		}
	case strings.TrimSpace(out) == noBinaryMarker:
		logrus.WithField("binary", o.layout.BinaryPath).
			Infoln("No prior binary to back up")
	}
	return nil
}

func extractCommand(dir, archive string) string {
	return "cd " + quote(dir) + " && tar -xzf " + quote(archive)
}
