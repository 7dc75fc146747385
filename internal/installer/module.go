package installer

import (
	"context"
	"net/netip"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

var componentSubdirectories = map[string]string{
	"sound_generator": "sound_generators",
	"audio_fx":        "audio_fx",
	"midi_fx":         "midi_fx",
	"utility":         "utilities",
	"overtake":        "overtake",
	"featured":        "",
	"system":          "",
}

// SubdirectoryFor maps a component type to its directory under the modules
// root. An empty result means the module installs at the root itself.
func SubdirectoryFor(componentType string) string {
	if dir, ok := componentSubdirectories[componentType]; ok {
		return dir
	}
	return "other"
}

// TargetDirectory is where a module with this id and component type lives.
func (o *Orchestrator) TargetDirectory(moduleID, componentType string) string {
	return path.Join(o.layout.ModulesRoot, SubdirectoryFor(componentType), moduleID)
}

// InstallModule installs one module and returns its directory on the
// device. Any prior install at that path is replaced.
func (o *Orchestrator) InstallModule(ctx context.Context, addr netip.Addr, job models.InstallJob) (string, error) {
	if !common.IsValidModuleID(job.ModuleID) {
		return "", &StepError{Step: StepValidate, Err: models.NewError(
			models.KindInvalidArgument, "invalid module id %q", job.ModuleID)}
	}

	archiveName := job.ModuleID + "-module.tar.gz"
	archive := o.tempPath(archiveName)
	extracted := o.tempPath(job.ModuleID)

	logrus.WithFields(logrus.Fields{
		"host":           addr.String(),
		"module":         job.ModuleID,
		"component_type": job.ComponentType,
	}).Debugln("Starting module install")

	o.progress("Validating " + job.ModuleID + " package...")
	summary, err := ValidateArtifact(job.ArtifactPath)
	if err != nil {
		return "", &StepError{Step: StepValidate, Err: err}
	}
	if !summary.Contains(job.ModuleID) {
		return "", &StepError{Step: StepValidate, Err: models.NewError(models.KindArtifactInvalid,
			"package does not contain a %s/ directory", job.ModuleID)}
	}

	o.progress("Clearing stale temporary files...")
	if _, err := o.run(ctx, addr, StepPrepare, "rm -rf "+quote(extracted, archive)); err != nil {
		return "", err
	}

	o.progress("Uploading " + job.ModuleID + "...")
	if err := o.shell.Upload(ctx, job.ArtifactPath, archive, addr); err != nil {
		return "", &StepError{Step: StepUpload, Err: err}
	}

	o.progress("Extracting " + job.ModuleID + "...")
	if _, err := o.run(ctx, addr, StepExtract, extractCommand(o.layout.RemoteTempDir, archiveName)); err != nil {
		return "", err
	}

	target := o.TargetDirectory(job.ModuleID, job.ComponentType)

	o.progress("Installing " + job.ModuleID + "...")
	if len(SubdirectoryFor(job.ComponentType)) > 0 {
		if _, err := o.run(ctx, addr, StepInstall, "mkdir -p "+quote(path.Dir(target))); err != nil {
			return "", err
		}
	}
	if _, err := o.run(ctx, addr, StepInstall, "rm -rf "+quote(target)); err != nil {
		return "", err
	}
	if _, err := o.run(ctx, addr, StepInstall, "mv "+quote(extracted, target)); err != nil {
		return "", err
	}

	o.progress("Cleaning up...")
	if _, err := o.run(ctx, addr, StepCleanup, "rm -f "+quote(archive)); err != nil {
		return "", err
	}

	o.progress(job.ModuleID + " installed!")
	return target, nil
}
