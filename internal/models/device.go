package models

import (
	"fmt"
	"net/netip"
	"time"
)

// DeviceHandle is the resolved network identity of the device. It is
// re-resolved every session and never persisted.
type DeviceHandle struct {
	Hostname string     `json:"hostname"`
	Address  netip.Addr `json:"ip"`
}

// BaseURL returns the device HTTP root. IPv6 addresses are bracketed.
func (d DeviceHandle) BaseURL(port int) string {
	return BaseURLFor(d.Address, port)
}

func BaseURLFor(addr netip.Addr, port int) string {
	host := addr.String()
	if addr.Is6() {
		host = "[" + host + "]"
	}
	if port == 0 || port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// SessionToken is the credential obtained by the challenge-response exchange.
type SessionToken struct {
	Value  string     `json:"value" yaml:"value"`
	Expiry *time.Time `json:"expiry,omitempty" yaml:"expiry,omitempty"`
}

func (t SessionToken) IsExpired() bool {
	if t.Expiry == nil {
		return false
	}
	return time.Now().After(*t.Expiry)
}

// KeyPair references an on-disk ssh key pair. Both halves exist whenever
// a KeyPair is returned as usable.
type KeyPair struct {
	PublicKeyPath  string `json:"public_key_path"`
	PrivateKeyPath string `json:"private_key_path"`
}

// RemoteCommandResult normalizes the outcome of one remote invocation.
type RemoteCommandResult struct {
	Succeeded bool   `json:"succeeded"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
}
