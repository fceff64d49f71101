package store

import (
	"path/filepath"
	"strings"
)

// ArtifactPath returns the absolute location of the recording's audio file
// inside the library directory.
func (r *Recording) ArtifactPath(libraryDir string) string {
	libraryDir = strings.TrimSpace(libraryDir)
	if libraryDir == "" || r == nil {
		return ""
	}
	return filepath.Join(libraryDir, r.Filename)
}
