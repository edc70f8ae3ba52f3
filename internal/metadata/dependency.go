// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"regexp"
	"strings"
)

// Dependency is one parsed dependency declaration. Raw keeps the string as
// written in the config; the split fields exist for callers that need the
// name or want to recombine the requirement with an extra marker.
type Dependency struct {
	// Name is the bare package name.
	Name string
	// Extras lists requested extras, e.g. requests[socks] -> ["socks"].
	Extras []string
	// Specifier is the version constraint, e.g. ">=2.0", "" when absent.
	Specifier string
	// Marker is the environment marker after ";", "" when absent.
	Marker string
	// Raw is the declaration as written.
	Raw string
}

// requirementRE splits "name[extras]specifier" without attempting full
// grammar enforcement; installers re-validate downstream.
var requirementRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*(.*)$`)

// ParseDependency parses a single dependency declaration. The field name
// parameter identifies the config field in error messages ("dependencies" or
// an optional-dependencies group).
func ParseDependency(raw, field string) (Dependency, error) {
	dep := Dependency{Raw: strings.TrimSpace(raw)}
	if dep.Raw == "" {
		return dep, fieldErr(field, "empty dependency declaration")
	}

	req := dep.Raw
	if i := strings.IndexByte(req, ';'); i >= 0 {
		dep.Marker = strings.TrimSpace(req[i+1:])
		req = strings.TrimSpace(req[:i])
		if dep.Marker == "" {
			return dep, fieldErr(field, "dependency "+dep.Raw+" has an empty environment marker")
		}
	}

	m := requirementRE.FindStringSubmatch(req)
	if m == nil {
		return dep, fieldErr(field, "malformed dependency declaration "+dep.Raw)
	}
	dep.Name = m[1]
	if m[2] != "" {
		for _, extra := range strings.Split(m[2], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				dep.Extras = append(dep.Extras, extra)
			}
		}
	}
	dep.Specifier = strings.TrimSpace(m[3])

	return dep, nil
}

// parseDependencies parses a declaration list, failing on the first malformed
// entry.
func parseDependencies(raws []string, field string) ([]Dependency, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	deps := make([]Dependency, 0, len(raws))
	for _, raw := range raws {
		dep, err := ParseDependency(raw, field)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Requirement returns the declaration without its environment marker.
func (d Dependency) Requirement() string {
	if d.Marker == "" {
		return d.Raw
	}
	i := strings.IndexByte(d.Raw, ';')
	return strings.TrimSpace(d.Raw[:i])
}

// WithExtra returns the Requires-Dist value for a dependency that belongs to
// an extra: the existing marker, if any, is parenthesized and conjoined with
// the extra marker.
func (d Dependency) WithExtra(extra string) string {
	if d.Marker == "" {
		return d.Requirement() + ` ; extra == "` + extra + `"`
	}
	return d.Requirement() + ` ; (` + d.Marker + `) and extra == "` + extra + `"`
}
