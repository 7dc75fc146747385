package models

import "time"

type EnvironmentConfig struct {
	// Local machine name, used in generated key comments
	Hostname string `mapstructure:"hostname" json:"hostname" default:"localhost"`

	// Operating System details
	OperatingSystem        string    `mapstructure:"os" json:"os" default:"linux"`          // windows, darwin, linux
	OperatingSystemVersion string    `mapstructure:"os_version" json:"os_version"`          // e.g. 14.5 for macOS
	Architecture           string    `mapstructure:"arch" json:"arch" default:"amd64"`      // amd64, arm64
	DetectedAt             time.Time `mapstructure:"-" json:"detected_at,omitempty"`
}

func (e *EnvironmentConfig) GetPlatform() string {
	return e.OperatingSystem + "/" + e.Architecture
}
