// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const metadataVersion = "2.1"

// CoreMetadata serializes the record into the core metadata format written as
// METADATA into binary archives and PKG-INFO into source archives: RFC
// 822-style headers, a blank line, then the long description body.
//
// When the record carries a pre-authored metadata file, that file is returned
// with its Metadata-Version, Name, and Version headers restamped and every
// other line kept as written.
func (r *Record) CoreMetadata() []byte {
	if r.overridden != nil {
		return r.restamped()
	}

	var w headerWriter
	w.field("Metadata-Version", metadataVersion)
	w.field("Name", r.Name)
	w.field("Version", r.Version)
	w.field("Summary", r.Summary)

	author, authorEmail := contactHeaders(r.Authors)
	w.field("Author", author)
	w.field("Author-email", authorEmail)
	maintainer, maintainerEmail := contactHeaders(r.Maintainers)
	w.field("Maintainer", maintainer)
	w.field("Maintainer-email", maintainerEmail)

	w.field("License", r.License)
	for _, platform := range r.Platforms {
		w.field("Platform", platform)
	}
	for _, classifier := range r.Classifiers {
		w.field("Classifier", classifier)
	}
	w.field("Requires-Python", r.RequiresPython)
	for _, dep := range r.Dependencies {
		w.field("Requires-Dist", dep.Raw)
	}

	extras := maps.Keys(r.OptionalDependencies)
	slices.Sort(extras)
	for _, extra := range extras {
		w.field("Provides-Extra", extra)
		for _, dep := range r.OptionalDependencies[extra] {
			w.field("Requires-Dist", dep.WithExtra(extra))
		}
	}

	for _, url := range r.URLs {
		w.field("Project-URL", url.Label+", "+url.Target)
	}
	w.field("Description-Content-Type", r.DescriptionContentType)

	if r.Description != "" {
		w.b.WriteByte('\n')
		w.b.WriteString(r.Description)
		if !strings.HasSuffix(r.Description, "\n") {
			w.b.WriteByte('\n')
		}
	}

	return []byte(w.b.String())
}

// EntryPointsFile serializes the entry-point groups in INI form, groups and
// entries sorted for deterministic output. Returns nil when no group has any
// entries, in which case the file is omitted from archives.
func (r *Record) EntryPointsFile() []byte {
	if !r.HasEntryPoints() {
		return nil
	}

	groups := maps.Keys(r.EntryPoints)
	slices.Sort(groups)

	var b strings.Builder
	for _, group := range groups {
		entries := r.EntryPoints[group]
		if len(entries) == 0 {
			continue
		}
		b.WriteString("[" + group + "]\n")
		names := maps.Keys(entries)
		slices.Sort(names)
		for _, name := range names {
			b.WriteString(name + " = " + entries[name] + "\n")
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// restamped rewrites the header section of a pre-authored metadata file with
// the resolved identity. Body lines after the first blank line are never
// touched, so a Version: line inside the long description survives.
func (r *Record) restamped() []byte {
	var b strings.Builder
	b.WriteString("Metadata-Version: " + metadataVersion + "\n")
	b.WriteString("Name: " + r.Name + "\n")
	b.WriteString("Version: " + r.Version + "\n")

	content := strings.TrimRight(string(r.overridden), "\n")
	inHeaders := true
	for _, line := range strings.Split(content, "\n") {
		if inHeaders {
			if strings.TrimSpace(line) == "" {
				inHeaders = false
			} else if hasHeaderPrefix(line, "Metadata-Version", "Name", "Version") {
				continue
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func hasHeaderPrefix(line string, names ...string) bool {
	for _, name := range names {
		if strings.HasPrefix(line, name+":") {
			return true
		}
	}
	return false
}

// headerWriter emits "Name: value" lines, folding embedded newlines into
// continuation lines so multi-line values stay one logical header.
type headerWriter struct {
	b strings.Builder
}

func (w *headerWriter) field(name, value string) {
	if value == "" {
		return
	}
	value = strings.ReplaceAll(value, "\n", "\n        ")
	w.b.WriteString(name)
	w.b.WriteString(": ")
	w.b.WriteString(value)
	w.b.WriteByte('\n')
}

// contactHeaders splits contacts across the name-only and email-bearing
// headers: entries without an email land in the first return value, entries
// with one land in the second as "Name <email>" (or the bare address).
func contactHeaders(contacts []Contact) (names, emails string) {
	var n, e []string
	for _, c := range contacts {
		switch {
		case c.Email != "" && c.Name != "":
			e = append(e, fmt.Sprintf("%s <%s>", c.Name, c.Email))
		case c.Email != "":
			e = append(e, c.Email)
		case c.Name != "":
			n = append(n, c.Name)
		}
	}
	return strings.Join(n, ", "), strings.Join(e, ", ")
}
