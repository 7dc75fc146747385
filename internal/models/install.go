package models

// JobKind selects the install workflow.
type JobKind string

const (
	JobKindCore   JobKind = "core"
	JobKindModule JobKind = "module"
)

// InstallJob is created per orchestrator invocation and discarded when the
// workflow finishes. Nothing about it survives a process restart.
type InstallJob struct {
	Kind            JobKind `json:"kind"`
	ModuleID        string  `json:"module_id,omitempty"`
	ComponentType   string  `json:"component_type,omitempty"`
	ArtifactPath    string  `json:"artifact_path"`
	TargetDirectory string  `json:"target_directory,omitempty"`
}

func NewCoreJob(artifactPath string) InstallJob {
	return InstallJob{
		Kind:         JobKindCore,
		ArtifactPath: artifactPath,
	}
}

func NewModuleJob(moduleID, componentType, artifactPath string) InstallJob {
	return InstallJob{
		Kind:          JobKindModule,
		ModuleID:      moduleID,
		ComponentType: componentType,
		ArtifactPath:  artifactPath,
	}
}

// InstalledModule is read from a module.json found on the device.
type InstalledModule struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	ComponentType string `json:"component_type"`
}

// Installation describes what is currently on the device.
type Installation struct {
	Installed bool              `json:"installed"`
	Core      string            `json:"core,omitempty"`
	Modules   []InstalledModule `json:"modules"`
}

// VersionUpgrade is a current/available pair.
type VersionUpgrade struct {
	Current   string `json:"current"`
	Available string `json:"available"`
}

// ModuleStatus pairs a catalog entry with the version found on the device.
type ModuleStatus struct {
	Module
	CurrentVersion string `json:"current_version,omitempty"`
}

// UpgradePlan is the result of comparing the device against the catalog.
type UpgradePlan struct {
	CoreUpgrade       *VersionUpgrade `json:"core_upgrade,omitempty"`
	UpgradableModules []ModuleStatus  `json:"upgradable_modules"`
	UpToDateModules   []ModuleStatus  `json:"up_to_date_modules"`
	NewModules        []Module        `json:"new_modules"`
}
