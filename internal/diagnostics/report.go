package diagnostics

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/config"
	"github.com/move-everything/installer/internal/models"
)

// KeyFinder reports the key pair the installer would use.
type KeyFinder interface {
	FindExisting() (*models.KeyPair, bool)
}

// TokenLoader reports the stored session token.
type TokenLoader interface {
	Load() (*models.SessionToken, bool, error)
}

// EventSource supplies recent log entries.
type EventSource interface {
	SessionID() string
	Filter(filter config.LogFilter) []*models.LogEntry
}

// Report is the document a user attaches to a support request. It never
// contains the token value or key material.
type Report struct {
	Timestamp    time.Time          `json:"timestamp"`
	AppVersion   string             `json:"app_version"`
	Platform     string             `json:"platform"`
	Arch         string             `json:"arch"`
	OSVersion    string             `json:"os_version,omitempty"`
	ClientID     string             `json:"client_id"`
	SessionID    string             `json:"session_id,omitempty"`
	DeviceIP     string             `json:"device_ip,omitempty"`
	SSHKeyExists bool               `json:"ssh_key_exists"`
	SSHKeyPath   string             `json:"ssh_key_path,omitempty"`
	HasCookie    bool               `json:"has_cookie"`
	CookieExpiry *time.Time         `json:"cookie_expiry,omitempty"`
	Errors       []*models.LogEntry `json:"errors"`
}

// Inputs gathers what a report is built from. Every field is optional.
type Inputs struct {
	Environment models.EnvironmentConfig
	Device      *models.DeviceHandle
	Keys        KeyFinder
	Tokens      TokenLoader
	Events      EventSource
	ErrorLimit  int
}

// Collect builds a report. Failures while inspecting local state are logged
// and leave the corresponding fields at their zero values.
func Collect(in Inputs) Report {
	report := Report{
		Timestamp:  time.Now().UTC(),
		AppVersion: common.GetReleaseVersion(),
		Platform:   in.Environment.OperatingSystem,
		Arch:       in.Environment.Architecture,
		OSVersion:  in.Environment.OperatingSystemVersion,
		ClientID:   common.GetClientIdentifier().String(),
		Errors:     []*models.LogEntry{},
	}

	if in.Device != nil && in.Device.Address.IsValid() {
		report.DeviceIP = in.Device.Address.String()
	}

	if in.Keys != nil {
		if pair, ok := in.Keys.FindExisting(); ok {
			report.SSHKeyExists = true
			report.SSHKeyPath = pair.PublicKeyPath
		}
	}

	if in.Tokens != nil {
		token, ok, err := in.Tokens.Load()
		switch {
		case err != nil:
			logrus.WithError(err).Debugln("Failed to read stored session token")
		case ok:
			report.HasCookie = true
			report.CookieExpiry = token.Expiry
		}
	}

	if in.Events != nil {
		limit := in.ErrorLimit
		if limit <= 0 {
			limit = defaultErrorLimit
		}
		report.SessionID = in.Events.SessionID()
		entries := in.Events.Filter(config.LogFilter{
			Levels: []logrus.Level{logrus.ErrorLevel, logrus.WarnLevel},
			Limit:  limit,
		})
		report.Errors = append(report.Errors, entries...)
	}

	return report
}

const defaultErrorLimit = 20

// JSON renders the report for copying into a bug report.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
