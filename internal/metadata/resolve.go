// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

// Resolve builds the canonical metadata record from a parsed config document.
// Per logical field the modern [project] key wins and its deprecated
// counterpart is ignored, never merged. Name and version fall back to the
// identity the build system reports; identity is queried at most once and
// only when actually needed, so a fully explicit config resolves without the
// build system ever running.
//
// A configured pkg-info-file short-circuits field resolution: the record
// carries the file body and only name, version, and entry points are
// resolved.
func Resolve(doc *pyproject.Document, identity IdentitySource) (*Record, error) {
	var modern pyproject.Project
	if doc.Project != nil {
		modern = *doc.Project
	}
	var legacy pyproject.LegacyMetadata
	if l := doc.Legacy(); l != nil {
		legacy = *l
	}
	root := "."
	if doc.Path != "" {
		root = filepath.Dir(doc.Path)
	}

	if modern.HasDynamic("name") {
		return nil, fieldErr("name", "may not be listed in dynamic")
	}
	if modern.HasDynamic("version") && modern.Version != "" {
		return nil, fieldErr("version", "listed in dynamic but set in config")
	}

	ident := &lazyIdentity{src: identity}

	name, err := resolveName(modern.Name, legacy.Module, ident)
	if err != nil {
		return nil, err
	}
	version, dynamicVersion, err := resolveVersion(modern.Version, ident)
	if err != nil {
		return nil, err
	}

	entryPoints, err := resolveEntryPoints(modern, doc.Tool)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Name:           name,
		Version:        version,
		DynamicVersion: dynamicVersion,
		EntryPoints:    entryPoints,
	}

	// A pre-authored metadata file replaces resolution of everything below.
	if override := doc.PkgInfoFile(); override != "" {
		data, err := os.ReadFile(filepath.Join(root, override))
		if err != nil {
			return nil, fieldErrCause("pkg-info-file", "unreadable metadata override", err)
		}
		rec.overridden = data
		return rec, nil
	}

	// Scalar fields resolve through one ordered table: destination, modern
	// source, deprecated source.
	for _, f := range []struct {
		dst    *string
		modern string
		legacy string
	}{
		{&rec.Summary, modern.Description, legacy.Summary},
		{&rec.RequiresPython, modern.RequiresPython, legacy.RequiresPython},
	} {
		*f.dst = pick(f.modern, f.legacy)
	}
	rec.Classifiers = pickList(modern.Classifiers, legacy.Classifiers)

	var toolPlatforms []string
	if doc.Tool != nil {
		toolPlatforms = doc.Tool.Platforms
	}
	rec.Platforms = pickList(toolPlatforms, legacy.Platforms)

	rec.Authors = resolveContacts(modern.Authors, legacy.Author, legacy.AuthorEmail)
	rec.Maintainers = resolveContacts(modern.Maintainers, legacy.Maintainer, legacy.MaintainerEmail)

	rec.License, err = resolveLicense(root, modern.License, legacy.License)
	if err != nil {
		return nil, err
	}

	rec.Description, rec.DescriptionContentType, err = resolveDescription(root, modern, legacy)
	if err != nil {
		return nil, err
	}

	rec.URLs, err = resolveURLs(modern, legacy)
	if err != nil {
		return nil, err
	}

	if len(modern.Dependencies) > 0 {
		rec.Dependencies, err = parseDependencies(modern.Dependencies, "dependencies")
	} else {
		rec.Dependencies, err = parseDependencies(legacy.Requires, "requires")
	}
	if err != nil {
		return nil, err
	}

	if len(modern.OptionalDependencies) > 0 {
		rec.OptionalDependencies = make(map[string][]Dependency, len(modern.OptionalDependencies))
		for group, raws := range modern.OptionalDependencies {
			deps, err := parseDependencies(raws, "optional-dependencies."+group)
			if err != nil {
				return nil, err
			}
			rec.OptionalDependencies[group] = deps
		}
	}

	return rec, nil
}

// ResolveRequires resolves only the declared dependency list, for the
// build-requirement hooks. The modern dependencies key wins over the
// deprecated requires key. Identity is never consulted, so a config that
// leaves name and version to the build system still answers without a
// configure step.
func ResolveRequires(doc *pyproject.Document) ([]Dependency, error) {
	if doc.Project != nil && len(doc.Project.Dependencies) > 0 {
		return parseDependencies(doc.Project.Dependencies, "dependencies")
	}
	if l := doc.Legacy(); l != nil {
		return parseDependencies(l.Requires, "requires")
	}
	return nil, nil
}

// lazyIdentity memoizes the single allowed identity query.
type lazyIdentity struct {
	src     IdentitySource
	queried bool
	name    string
	version string
	err     error
}

func (l *lazyIdentity) get() (string, string, error) {
	if !l.queried {
		l.queried = true
		if l.src == nil {
			return "", "", nil
		}
		l.name, l.version, l.err = l.src.ProjectIdentity()
	}
	return l.name, l.version, l.err
}

func resolveName(modern, legacyModule string, ident *lazyIdentity) (string, error) {
	name := pick(modern, legacyModule)
	if name == "" {
		reported, _, err := ident.get()
		if err != nil {
			// Identity failures keep their own kind (a failed configure step
			// is a build failure, not a validation problem).
			return "", err
		}
		name = reported
	}
	if name == "" {
		return "", fieldErr("name", "not set in config and not reported by the build system")
	}
	if !validName(name) {
		return "", fieldErr("name", "invalid package name "+name)
	}
	return name, nil
}

func resolveVersion(modern string, ident *lazyIdentity) (version string, dynamic bool, err error) {
	version = modern
	if version == "" {
		_, reported, err := ident.get()
		if err != nil {
			return "", false, err
		}
		version, dynamic = reported, true
	}
	if version == "" {
		return "", false, fieldErr("version", "not set in config and not reported by the build system")
	}
	if !validVersion(version) {
		return "", false, fieldErr("version", "invalid version "+version)
	}
	return version, dynamic, nil
}

func resolveContacts(modern []pyproject.Contact, legacyName, legacyEmail string) []Contact {
	if len(modern) > 0 {
		contacts := make([]Contact, 0, len(modern))
		for _, c := range modern {
			contacts = append(contacts, Contact{Name: c.Name, Email: c.Email})
		}
		return contacts
	}
	if legacyName != "" || legacyEmail != "" {
		return []Contact{{Name: legacyName, Email: legacyEmail}}
	}
	return nil
}

func resolveLicense(root string, modern *pyproject.License, legacy string) (string, error) {
	if modern == nil {
		return legacy, nil
	}
	switch {
	case modern.Expression != "":
		return modern.Expression, nil
	case modern.Text != "":
		return modern.Text, nil
	case modern.File != "":
		data, err := os.ReadFile(filepath.Join(root, modern.File))
		if err != nil {
			return "", fieldErrCause("license", "unreadable license file", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return "", nil
	}
}

func resolveDescription(root string, modern pyproject.Project, legacy pyproject.LegacyMetadata) (body, contentType string, err error) {
	switch {
	case modern.Readme != nil && modern.Readme.Text != "":
		body = modern.Readme.Text
		contentType = pick(modern.Readme.ContentType, "text/plain")
	case modern.Readme != nil && modern.Readme.File != "":
		data, err := os.ReadFile(filepath.Join(root, modern.Readme.File))
		if err != nil {
			return "", "", fieldErrCause("readme", "unreadable readme file", err)
		}
		body = string(data)
		contentType = pick(modern.Readme.ContentType, ContentTypeForPath(modern.Readme.File))
	case legacy.DescriptionFile != "":
		data, err := os.ReadFile(filepath.Join(root, legacy.DescriptionFile))
		if err != nil {
			return "", "", fieldErrCause("readme", "unreadable description-file", err)
		}
		body = string(data)
		contentType = ContentTypeForPath(legacy.DescriptionFile)
	case legacy.Description != "":
		body = legacy.Description
		contentType = "text/plain"
	}
	return body, contentType, nil
}

func resolveURLs(modern pyproject.Project, legacy pyproject.LegacyMetadata) ([]URL, error) {
	if len(modern.URLs) > 0 {
		urls := make([]URL, 0, len(modern.URLs))
		for _, label := range modern.URLOrder {
			urls = append(urls, URL{Label: label, Target: modern.URLs[label]})
		}
		return urls, nil
	}

	var urls []URL
	if legacy.HomePage != "" {
		urls = append(urls, URL{Label: "Homepage", Target: legacy.HomePage})
	}
	for _, entry := range legacy.ProjectURLs {
		label, target, ok := strings.Cut(entry, ",")
		if !ok {
			return nil, fieldErr("urls", `project-urls entry `+entry+` is not in "Label, https://..." form`)
		}
		urls = append(urls, URL{
			Label:  strings.TrimSpace(label),
			Target: strings.TrimSpace(target),
		})
	}
	return urls, nil
}

func resolveEntryPoints(modern pyproject.Project, tool *pyproject.Tool) (map[string]map[string]string, error) {
	hasModern := len(modern.Scripts) > 0 || len(modern.GUIScripts) > 0 || len(modern.EntryPoints) > 0
	if hasModern {
		groups := make(map[string]map[string]string)
		for group, entries := range modern.EntryPoints {
			if group == "console_scripts" || group == "gui_scripts" {
				return nil, fieldErr("entry-points",
					"group "+group+" must use the scripts / gui-scripts shorthand")
			}
			groups[group] = entries
		}
		if len(modern.Scripts) > 0 {
			groups["console_scripts"] = modern.Scripts
		}
		if len(modern.GUIScripts) > 0 {
			groups["gui_scripts"] = modern.GUIScripts
		}
		return groups, nil
	}

	if tool == nil || len(tool.EntryPoints) == 0 {
		return nil, nil
	}
	groups := make(map[string]map[string]string, len(tool.EntryPoints))
	for group, lines := range tool.EntryPoints {
		entries := make(map[string]string, len(lines))
		for _, line := range lines {
			name, target, ok := strings.Cut(line, "=")
			if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(target) == "" {
				return nil, fieldErr("entry-points",
					"entry "+line+` is not in "name = module:attr" form`)
			}
			entries[strings.TrimSpace(name)] = strings.TrimSpace(target)
		}
		groups[group] = entries
	}
	return groups, nil
}

func pick(modern, legacy string) string {
	if modern != "" {
		return modern
	}
	return legacy
}

func pickList(modern, legacy []string) []string {
	if len(modern) > 0 {
		return modern
	}
	return legacy
}
