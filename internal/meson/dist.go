// SPDX-License-Identifier: MPL-2.0

package meson

import (
	"fmt"
	"path/filepath"
)

// DistOutput locates the archive the dist phase left under builddir. The
// dist step names its output after the project, so the only expectation
// here is a single gzip-compressed tarball.
func DistOutput(builddir string) (string, error) {
	distDir := filepath.Join(builddir, "meson-dist")
	matches, err := filepath.Glob(filepath.Join(distDir, "*.tar.gz"))
	if err != nil {
		return "", &PhaseError{Phase: PhaseDist, Cause: err}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", &PhaseError{Phase: PhaseDist, Cause: fmt.Errorf("no archive under %s", distDir)}
	default:
		return "", &PhaseError{Phase: PhaseDist, Cause: fmt.Errorf("%d archives under %s, expected one", len(matches), distDir)}
	}
}
