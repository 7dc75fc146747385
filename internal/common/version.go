package common

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

func GetVersion() string {
	version, gitCommit, ok := GetModuleBuildInfo()
	if ok {
		return fmt.Sprintf("%s (git: %s)", version, gitCommit)
	}
	return "unknown"
}

// ParseVersion accepts tags such as "v0.3.1" or "installer-v1.2.0"
func ParseVersion(raw string) (*version.Version, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, "-v"); idx >= 0 && !strings.HasPrefix(raw, "v") {
		raw = raw[idx+1:]
	}
	return version.NewVersion(raw)
}

// IsNewerVersion reports whether available is strictly newer than current.
// Unparseable versions fall back to a plain inequality check.
func IsNewerVersion(current, available string) bool {
	if len(available) == 0 {
		return false
	}
	if len(current) == 0 {
		return true
	}
	cv, err1 := ParseVersion(current)
	av, err2 := ParseVersion(available)
	if err1 != nil || err2 != nil {
		return strings.TrimPrefix(current, "v") != strings.TrimPrefix(available, "v")
	}
	return av.GreaterThan(cv)
}
