package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllDigits(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123456", true},
		{"000000", true}, // Valid with leading zeros
		{"12345", true},  // Short number
		{"", false},      // Empty string
		{"12345a", false},
		{"12345 ", false},
		{"123-456", false},
		{"a12345", false},
	}

	for _, test := range tests {
		result := IsAllDigits(test.input)
		if result != test.expected {
			t.Errorf("IsAllDigits(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestIsChallengeCode(t *testing.T) {
	assert.True(t, IsChallengeCode("123456"))
	assert.True(t, IsChallengeCode("000000"))
	assert.False(t, IsChallengeCode("12345"))
	assert.False(t, IsChallengeCode("1234567"))
	assert.False(t, IsChallengeCode("12345a"))
	assert.False(t, IsChallengeCode("１２３４５６")) // full width digits
}

func TestIsValidModuleID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"braids", true},
		{"sf2-player", true},
		{"jv_880.v2", true},
		{"", false},
		{"../etc", false},
		{"a..b", false},
		{"-rf", false},
		{"mod; reboot", false},
		{"mod$(id)", false},
		{"dir/mod", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, IsValidModuleID(test.id), test.id)
	}
}

func BenchmarkIsAllDigits(b *testing.B) {
	testString := "123456"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsAllDigits(testString)
	}
}
