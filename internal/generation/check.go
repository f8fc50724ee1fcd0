package generation

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
)

// Drift is an artifact whose file on disk differs from a fresh render.
type Drift struct {
	Path    string
	Missing bool
	// Diff is line oriented, "-" for the file on disk and "+" for the render.
	Diff string
}

// Compare checks freshly rendered artifacts against the files under dir.
func Compare(dir string, artifacts []Artifact) ([]Drift, error) {
	var drifts []Drift
	for _, artifact := range artifacts {
		current, err := os.ReadFile(filepath.Join(dir, artifact.Path))
		if errors.Is(err, os.ErrNotExist) {
			drifts = append(drifts, Drift{Path: artifact.Path, Missing: true})
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", artifact.Path)
		}

		if diff := cmp.Diff(strings.Split(string(current), "\n"), strings.Split(string(artifact.Content), "\n")); diff != "" {
			drifts = append(drifts, Drift{Path: artifact.Path, Diff: diff})
		}
	}
	return drifts, nil
}
