package installer

import (
	"context"
	"encoding/json"
	"net/netip"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

const (
	installedMarker = "installed"
	versionFile     = "version.txt"
	moduleManifest  = "module.json"
)

type moduleManifestFile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	ComponentType string `json:"component_type"`
}

// InspectInstallation reads the core version and every module manifest
// found on the device. Unreadable manifests are skipped.
func (o *Orchestrator) InspectInstallation(ctx context.Context, addr netip.Addr) (models.Installation, error) {
	installation := models.Installation{Modules: []models.InstalledModule{}}

	out, err := o.run(ctx, addr, StepInspect,
		"test -d "+quote(o.layout.DataRoot)+" && echo "+installedMarker+" || echo not_installed")
	if err != nil {
		return installation, err
	}
	if strings.TrimSpace(out) != installedMarker {
		return installation, nil
	}
	installation.Installed = true

	out, err = o.run(ctx, addr, StepInspect,
		"cat "+quote(path.Join(o.layout.DataRoot, versionFile))+" 2>/dev/null || true")
	if err != nil {
		return installation, err
	}
	installation.Core = strings.TrimSpace(out)

	out, err = o.run(ctx, addr, StepInspect,
		"find "+quote(o.layout.ModulesRoot)+" -name "+moduleManifest+" -type f 2>/dev/null || true")
	if err != nil {
		return installation, err
	}

	for _, manifestPath := range strings.Split(out, "\n") {
		manifestPath = strings.TrimSpace(manifestPath)
		if len(manifestPath) == 0 {
			continue
		}

		module, err := o.readManifest(ctx, addr, manifestPath)
		if err != nil {
			logrus.WithError(err).WithField("manifest", manifestPath).
				Debugln("Skipping unreadable module manifest")
			continue
		}
		installation.Modules = append(installation.Modules, module)
	}

	sort.Slice(installation.Modules, func(i, j int) bool {
		return installation.Modules[i].ID < installation.Modules[j].ID
	})

	logrus.WithFields(logrus.Fields{
		"core":    installation.Core,
		"modules": len(installation.Modules),
	}).Debugln("Inspected installation")

	return installation, nil
}

func (o *Orchestrator) readManifest(ctx context.Context, addr netip.Addr, manifestPath string) (models.InstalledModule, error) {
	out, err := o.shell.Execute(ctx, addr, "cat "+quote(manifestPath))
	if err != nil {
		return models.InstalledModule{}, err
	}

	var manifest moduleManifestFile
	if err := json.Unmarshal([]byte(out), &manifest); err != nil {
		return models.InstalledModule{}, models.WrapError(models.KindUnexpected, err,
			"invalid manifest %s", manifestPath)
	}
	if len(manifest.ID) == 0 || len(manifest.Version) == 0 {
		return models.InstalledModule{}, models.NewError(models.KindUnexpected,
			"manifest %s has no id or version", manifestPath)
	}

	module := models.InstalledModule{
		ID:            manifest.ID,
		Name:          manifest.Name,
		Version:       manifest.Version,
		ComponentType: manifest.ComponentType,
	}
	if len(module.Name) == 0 {
		module.Name = module.ID
	}
	if len(module.ComponentType) == 0 {
		module.ComponentType = "utility"
	}
	return module, nil
}

// ComparePlan compares what is installed with the latest core version and
// the catalog. Catalog entries are expected to carry their latest version.
func ComparePlan(installation models.Installation, latestCore string, catalog []models.Module) models.UpgradePlan {
	plan := models.UpgradePlan{
		UpgradableModules: []models.ModuleStatus{},
		UpToDateModules:   []models.ModuleStatus{},
		NewModules:        []models.Module{},
	}

	if len(installation.Core) > 0 && common.IsNewerVersion(installation.Core, latestCore) {
		plan.CoreUpgrade = &models.VersionUpgrade{
			Current:   installation.Core,
			Available: latestCore,
		}
	}

	installed := make(map[string]models.InstalledModule, len(installation.Modules))
	for _, module := range installation.Modules {
		installed[module.ID] = module
	}

	for _, module := range catalog {
		current, ok := installed[module.ID]
		if !ok {
			plan.NewModules = append(plan.NewModules, module)
			continue
		}

		status := models.ModuleStatus{Module: module, CurrentVersion: current.Version}
		if common.IsNewerVersion(current.Version, module.Version) {
			plan.UpgradableModules = append(plan.UpgradableModules, status)
		} else {
			plan.UpToDateModules = append(plan.UpToDateModules, status)
		}
	}

	return plan
}
