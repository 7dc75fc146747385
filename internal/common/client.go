package common

import (
	"crypto/sha256"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

const clientAppID = "move-installer"

// GetClientIdentifier returns a UUID that identifies this machine in
// diagnostics reports. The raw machine id never leaves the host.
func GetClientIdentifier() uuid.UUID {

	id, err := machineid.ProtectedID(clientAppID)
	if err != nil {
		// Fallback to a random ephemeral UUID if machine ID cannot be obtained
		return uuid.New()
	}

	hash := sha256.Sum256([]byte(id))
	return uuid.UUID(hash[:16])
}
