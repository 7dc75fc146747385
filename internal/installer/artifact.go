package installer

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

// ArtifactSummary is what validation learned from the archive listing.
type ArtifactSummary struct {
	Entries  int
	TopLevel []string
}

// Contains reports whether name is one of the archive's top level entries.
func (s ArtifactSummary) Contains(name string) bool {
	for _, entry := range s.TopLevel {
		if entry == name {
			return true
		}
	}
	return false
}

// ValidateArtifact reads the gzip stream and walks the tar table of contents
// without extracting anything. Absolute paths and entries escaping the
// extraction directory are rejected.
func ValidateArtifact(artifactPath string) (ArtifactSummary, error) {
	file, err := os.Open(artifactPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ArtifactSummary{}, models.NewError(models.KindArtifactInvalid,
				"package not found: %s", artifactPath)
		}
		return ArtifactSummary{}, models.WrapError(models.KindIOError, err,
			"failed to open %s", artifactPath)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return ArtifactSummary{}, models.WrapError(models.KindArtifactInvalid, err,
			"%s is not a gzip stream", artifactPath)
	}
	defer gz.Close()

	seen := map[string]bool{}
	summary := ArtifactSummary{}
	reader := tar.NewReader(gz)

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ArtifactSummary{}, models.WrapError(models.KindArtifactInvalid, err,
				"%s is not a valid tar archive", artifactPath)
		}

		name := strings.TrimPrefix(header.Name, "./")
		if len(name) == 0 {
			continue
		}
		if path.IsAbs(name) || escapes(name) {
			return ArtifactSummary{}, models.NewError(models.KindArtifactInvalid,
				"archive entry %q is outside the extraction directory", header.Name)
		}

		summary.Entries++
		top := strings.SplitN(name, "/", 2)[0]
		if !seen[top] {
			seen[top] = true
			summary.TopLevel = append(summary.TopLevel, top)
		}
	}

	if summary.Entries == 0 {
		return ArtifactSummary{}, models.NewError(models.KindArtifactInvalid,
			"%s is empty", artifactPath)
	}

	sort.Strings(summary.TopLevel)

	logrus.WithFields(logrus.Fields{
		"artifact": artifactPath,
		"entries":  summary.Entries,
	}).Debugln("Validated package")

	return summary, nil
}

func escapes(name string) bool {
	cleaned := path.Clean(name)
	return cleaned == ".." || strings.HasPrefix(cleaned, "../")
}
