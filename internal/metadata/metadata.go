// SPDX-License-Identifier: MPL-2.0

// Package metadata resolves package metadata from a parsed pyproject.toml and
// serializes it into the formats installers consume: the core metadata record
// (METADATA in binary archives, PKG-INFO in source archives) and the
// entry_points.txt group file.
//
// Resolution is a pure data transformation over the config document plus an
// injected identity source. The build system is only consulted, through that
// source, when the config does not state the package name or version
// explicitly.
package metadata

type (
	// Record is the canonical metadata record: one resolved value per logical
	// field, with modern keys taking precedence over deprecated ones.
	Record struct {
		Name    string
		Version string
		Summary string

		// Description is the long description body; DescriptionContentType
		// identifies its markup.
		Description            string
		DescriptionContentType string

		Authors     []Contact
		Maintainers []Contact
		License     string
		Classifiers []string
		Platforms   []string

		Dependencies []Dependency
		// OptionalDependencies maps extra names to their dependency lists.
		OptionalDependencies map[string][]Dependency
		RequiresPython       string

		// URLs keeps the label order from the config file.
		URLs []URL

		// EntryPoints maps group names to name/target pairs.
		EntryPoints map[string]map[string]string

		// DynamicVersion marks a version obtained from the build system
		// rather than the config file.
		DynamicVersion bool

		// overridden holds a pre-authored metadata summary file that replaces
		// serialization of the fields above (pkg-info-file config key).
		overridden []byte
	}

	// Contact is a resolved author or maintainer.
	Contact struct {
		Name  string
		Email string
	}

	// URL is one resolved project URL.
	URL struct {
		Label  string
		Target string
	}

	// IdentitySource reports the name and version the build system knows the
	// project under. Implementations are queried at most once per resolution,
	// and only when the config leaves name or version unstated.
	IdentitySource interface {
		ProjectIdentity() (name, version string, err error)
	}
)

// IdentityFunc adapts a function to the IdentitySource interface.
type IdentityFunc func() (name, version string, err error)

// ProjectIdentity implements IdentitySource.
func (f IdentityFunc) ProjectIdentity() (string, string, error) { return f() }

// Overridden reports whether the record carries a pre-authored metadata file
// instead of resolved fields.
func (r *Record) Overridden() bool { return r.overridden != nil }

// HasEntryPoints reports whether any entry-point group has at least one entry.
func (r *Record) HasEntryPoints() bool {
	for _, entries := range r.EntryPoints {
		if len(entries) > 0 {
			return true
		}
	}
	return false
}
