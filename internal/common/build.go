package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version and GitCommit can be set via ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func GetModuleBuildInfo() (string, string, bool) {
	// If version was set via ldflags, use it
	if Version != "dev" {
		return Version, GitCommit, true
	}

	// Otherwise, try to get from runtime debug info
	if info, ok := debug.ReadBuildInfo(); ok {
		version := info.Main.Version
		gitCommit := GitCommit

		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitCommit = setting.Value
				break
			}
		}

		return version, gitCommit, true
	}
	return "", "", false
}

// GetReleaseVersion returns the bare version used when checking for updates
func GetReleaseVersion() string {
	version, _, ok := GetModuleBuildInfo()
	if !ok || len(version) == 0 || version == "(devel)" {
		return Version
	}
	return version
}

// GetUserAgent identifies the installer on outbound HTTP requests
func GetUserAgent(product string) string {
	return fmt.Sprintf("%s/%s (%s; %s)", product, GetReleaseVersion(), runtime.GOOS, runtime.GOARCH)
}
