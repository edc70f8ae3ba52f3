// SPDX-License-Identifier: MPL-2.0

package meson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectInfo is the project identity meson records during setup.
type ProjectInfo struct {
	Name    string `json:"descriptive_name"`
	Version string `json:"version"`
}

// Introspect reads the project identity from the introspection data a
// successful setup leaves under <builddir>/meson-info.
func Introspect(builddir string) (ProjectInfo, error) {
	path := filepath.Join(builddir, "meson-info", "intro-projectinfo.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectInfo{}, &PhaseError{Phase: PhaseIntrospect, Cause: fmt.Errorf("read project info: %w", err)}
	}
	var info ProjectInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ProjectInfo{}, &PhaseError{Phase: PhaseIntrospect, Cause: fmt.Errorf("decode %s: %w", path, err)}
	}
	return info, nil
}

// ProjectIdentity implements the metadata resolver's identity interface.
func (p ProjectInfo) ProjectIdentity() (string, string, error) {
	return p.Name, p.Version, nil
}
