package common

import (
	"regexp"
	"strings"
)

var moduleIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// IsAllDigits checks if a string contains only digits (0-9)
// This is optimized for speed by checking each byte directly
func IsAllDigits(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// IsChallengeCode reports whether code is the six digit code shown on the device
func IsChallengeCode(code string) bool {
	return len(code) == 6 && IsAllDigits(code)
}

// IsValidModuleID reports whether id is safe to embed in a remote path.
// Module ids become directory names on the device.
func IsValidModuleID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	if strings.Contains(id, "..") {
		return false
	}
	return moduleIDPattern.MatchString(id)
}
