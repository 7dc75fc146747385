package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-everything/installer/internal/models"
)

func TestValidateArtifact(t *testing.T) {
	dir := t.TempDir()

	artifact := writeArchive(t, dir, "ok.tar.gz", []archiveFile{
		{name: "move-anything/install.sh", content: "#!/bin/sh\n", mode: 0755},
		{name: "move-anything/modules/chain/module.json", content: "{}"},
		{name: "./README", content: "hello"},
	})

	summary, err := ValidateArtifact(artifact)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, []string{"README", "move-anything"}, summary.TopLevel)
	assert.True(t, summary.Contains("move-anything"))
	assert.False(t, summary.Contains("modules"))

	// Validation never extracts
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidateArtifact_Invalid(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.tar.gz")
	require.NoError(t, os.WriteFile(plain, []byte("this is not gzip"), 0644))

	gzippedText := filepath.Join(dir, "text.tar.gz")
	file, err := os.Create(gzippedText)
	require.NoError(t, err)
	gz := gzip.NewWriter(file)
	_, err = gz.Write([]byte("gzip but not a tar archive"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, file.Close())

	empty := writeArchive(t, dir, "empty.tar.gz", nil)
	traversal := writeArchive(t, dir, "traversal.tar.gz", []archiveFile{
		{name: "../escape.sh", content: "#!/bin/sh\n"},
	})
	absolute := writeArchive(t, dir, "absolute.tar.gz", []archiveFile{
		{name: "/etc/passwd", content: "root"},
	})

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.tar.gz")},
		{"not gzip", plain},
		{"not tar", gzippedText},
		{"empty", empty},
		{"path traversal", traversal},
		{"absolute path", absolute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateArtifact(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrArtifactInvalid)
		})
	}
}
