package environment

import (
	"os"
	"runtime"
	"strings"
)

// DetectOperatingSystem returns the operating system name
func DetectOperatingSystem() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "darwin"
	case "linux":
		return "linux"
	default:
		return runtime.GOOS
	}
}

// DetectArchitecture returns the CPU architecture the binary was built for
func DetectArchitecture() string {
	return runtime.GOARCH
}

// DetectHostname returns the local machine name used in generated key
// comments. The .local suffix macOS appends is dropped.
func DetectHostname() string {
	hostname, err := os.Hostname()
	if err != nil || len(hostname) == 0 {
		return "unknown"
	}

	return strings.TrimSuffix(hostname, ".local")
}

// DetectOSVersion attempts to detect the OS version
func DetectOSVersion() string {
	switch runtime.GOOS {
	case "windows":
		return detectWindowsVersion()
	case "darwin":
		return detectDarwinVersion()
	case "linux":
		return detectLinuxVersion()
	default:
		return "unknown"
	}
}

// detectWindowsVersion detects Windows version
func detectWindowsVersion() string {
	if version := os.Getenv("OS"); len(version) > 0 {
		return version
	}
	return "windows"
}

// detectDarwinVersion reads the product version from the system plist
func detectDarwinVersion() string {
	data, err := os.ReadFile("/System/Library/CoreServices/SystemVersion.plist")
	if err != nil {
		return "darwin"
	}

	content := string(data)
	key := "<key>ProductVersion</key>"
	idx := strings.Index(content, key)
	if idx < 0 {
		return "darwin"
	}

	rest := content[idx+len(key):]
	start := strings.Index(rest, "<string>")
	end := strings.Index(rest, "</string>")
	if start < 0 || end < start {
		return "darwin"
	}

	return strings.TrimSpace(rest[start+len("<string>") : end])
}

// detectLinuxVersion detects Linux distribution and version
func detectLinuxVersion() string {
	// Try reading /etc/os-release
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
			}
		}
	}

	return "linux"
}
