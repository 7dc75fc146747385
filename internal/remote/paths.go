package remote

import (
	"path/filepath"
)

// Paths locates the ssh client binaries. It is resolved once at startup.
type Paths struct {
	SSH    string
	SCP    string
	Keygen string
}

// DefaultPaths selects the binaries for goos. Windows uses the copies
// bundled in resourceDir/bin; everything else uses the system client.
func DefaultPaths(goos, resourceDir string) Paths {
	if goos == "windows" {
		bin := filepath.Join(resourceDir, "bin")
		return Paths{
			SSH:    filepath.Join(bin, "ssh.exe"),
			SCP:    filepath.Join(bin, "scp.exe"),
			Keygen: filepath.Join(bin, "ssh-keygen.exe"),
		}
	}

	return Paths{
		SSH:    "/usr/bin/ssh",
		SCP:    "/usr/bin/scp",
		Keygen: "/usr/bin/ssh-keygen",
	}
}
