// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// nameRE accepts package names per the packaging naming rules: ASCII
	// letters, digits, and interior runs of -_. separators.
	nameRE = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

	// versionRE is a permissive version check: a usable version starts with a
	// digit and sticks to version-ish characters. Full scheme enforcement
	// belongs to installers, not the backend.
	versionRE = regexp.MustCompile(`^[0-9][0-9A-Za-z.!+*-]*$`)

	normalizeRE = regexp.MustCompile(`[-_.]+`)
	escapeRE    = regexp.MustCompile(`[^A-Za-z0-9.]+`)
)

// NormalizeName lowercases a package name and collapses runs of -_. into a
// single hyphen, the canonical comparison form used across package indexes.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRE.ReplaceAllString(name, "-"))
}

// EscapeName converts a package name into the form used inside archive file
// names: runs of characters outside [A-Za-z0-9.] become a single underscore.
// Builders apply it to the normalized name.
func EscapeName(name string) string {
	return escapeRE.ReplaceAllString(name, "_")
}

// FileStem returns the "{name}-{version}" stem shared by archive file names
// and the metadata subdirectory.
func (r *Record) FileStem() string {
	return EscapeName(NormalizeName(r.Name)) + "-" + r.Version
}

// ContentTypeForPath maps a readme file suffix to its description content
// type. Unknown suffixes (including none) fall back to plain text.
func ContentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rst":
		return "text/x-rst"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

func validName(name string) bool { return nameRE.MatchString(name) }

func validVersion(ver string) bool { return versionRE.MatchString(ver) }
