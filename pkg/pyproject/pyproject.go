// SPDX-License-Identifier: MPL-2.0

// Package pyproject defines the schema and parsing for the subset of
// pyproject.toml that mesonpack reads: the standard [project] table, the
// [tool.mesonpack] table, and the deprecated [tool.mesonpack.metadata]
// namespace kept for projects written against the original key set.
//
// Parsing never consults the build system. Unknown keys in open tables are
// ignored so configs shared with other tools keep working; the structured
// entries mesonpack does own (author and maintainer tables, entry-point
// groups) are validated strictly against an embedded CUE schema.
package pyproject

import "fmt"

// FileName is the canonical config file name at the project root.
const FileName = "pyproject.toml"

// Backend source policies accepted by [tool.mesonpack] source-policy.
const (
	// SourcePolicyGit snapshots the version-controlled source tree.
	SourcePolicyGit = "git"
	// SourcePolicyMesonDist delegates to the build system's dist step and
	// normalizes its output.
	SourcePolicyMesonDist = "meson-dist"
)

type (
	// Document is a parsed pyproject.toml.
	Document struct {
		// Project is the standard [project] table, nil when absent.
		Project *Project
		// Tool is the [tool.mesonpack] table, nil when absent.
		Tool *Tool
		// BuildSystem is the standard [build-system] table, nil when absent.
		BuildSystem *BuildSystem

		// Path is the location the document was read from ("" for ParseBytes).
		Path string
		// Raw holds the original file bytes so source archives can include
		// the config exactly as the user wrote it.
		Raw []byte
	}

	// Project holds the standard metadata fields (the "modern" key set).
	Project struct {
		Name           string
		Version        string
		Description    string
		Readme         *Readme
		RequiresPython string
		License        *License
		Authors        []Contact
		Maintainers    []Contact
		Classifiers    []string
		// URLs maps display labels to addresses. URLOrder preserves the
		// order labels appear in the file; serialized output follows it.
		URLs     map[string]string
		URLOrder []string
		// Scripts and GUIScripts are the console_scripts and gui_scripts
		// entry-point groups in shorthand form.
		Scripts    map[string]string
		GUIScripts map[string]string
		// EntryPoints maps arbitrary group names to name/target pairs.
		EntryPoints          map[string]map[string]string
		Dependencies         []string
		OptionalDependencies map[string][]string
		// Dynamic lists fields the config intentionally leaves to the build
		// system (PEP 621 dynamic marker).
		Dynamic []string
	}

	// Contact is an author or maintainer entry. Both fields are optional but
	// no other keys are allowed.
	Contact struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	}

	// Readme is the normalized form of the readme field, which the file may
	// spell as a plain path string or as an inline table.
	Readme struct {
		// File is a path relative to the project root, empty when Text is set.
		File string
		// Text is inline readme content, empty when File is set.
		Text string
		// ContentType is the explicit content type, empty when it should be
		// inferred from the file suffix.
		ContentType string
	}

	// License is the normalized form of the license field: either an SPDX-ish
	// expression string, inline text, or a file reference.
	License struct {
		Expression string
		Text       string
		File       string
	}

	// Tool is the [tool.mesonpack] table.
	Tool struct {
		// MesonOptions are extra -Dkey=value style options appended to the
		// build system's configure step.
		MesonOptions []string `toml:"meson-options"`
		// PythonTag, AbiTag and PlatformTag override the compatibility tag
		// segments of built binary archives.
		PythonTag   string `toml:"python-tag"`
		AbiTag      string `toml:"abi-tag"`
		PlatformTag string `toml:"platform-tag"`
		// Platforms lists supported platforms for the metadata record.
		Platforms []string `toml:"platforms"`
		// SourcePolicy selects how source archives are assembled.
		SourcePolicy string `toml:"source-policy"`
		// PkgInfoFile points at a pre-authored metadata summary file that
		// replaces field resolution entirely.
		PkgInfoFile string `toml:"pkg-info-file"`
		// Metadata is the deprecated key namespace.
		Metadata *LegacyMetadata `toml:"metadata"`
		// EntryPoints is the deprecated entry-point table: group name to a
		// list of "name = module:attr" strings.
		EntryPoints map[string][]string `toml:"entry-points"`
	}

	// LegacyMetadata is the deprecated [tool.mesonpack.metadata] table. Every
	// field has a modern counterpart that takes precedence when both are set.
	LegacyMetadata struct {
		Module          string   `toml:"module"`
		Author          string   `toml:"author"`
		AuthorEmail     string   `toml:"author-email"`
		Maintainer      string   `toml:"maintainer"`
		MaintainerEmail string   `toml:"maintainer-email"`
		Summary         string   `toml:"summary"`
		Description     string   `toml:"description"`
		DescriptionFile string   `toml:"description-file"`
		HomePage        string   `toml:"home-page"`
		License         string   `toml:"license"`
		Classifiers     []string `toml:"classifiers"`
		// ProjectURLs entries use the "Label, https://..." wire form.
		ProjectURLs    []string `toml:"project-urls"`
		Requires       []string `toml:"requires"`
		RequiresPython string   `toml:"requires-python"`
		Platforms      []string `toml:"platforms"`
		// MesonOptions and PkgInfoFile historically lived in this table.
		MesonOptions []string `toml:"meson-options"`
		PkgInfoFile  string   `toml:"pkg-info-file"`
	}

	// BuildSystem is the standard [build-system] table.
	BuildSystem struct {
		Requires     []string `toml:"requires"`
		BuildBackend string   `toml:"build-backend"`
	}
)

// mesonOptions returns configure options with the modern key winning over the
// deprecated one.
func (t *Tool) mesonOptions() []string {
	if t == nil {
		return nil
	}
	if len(t.MesonOptions) > 0 {
		return t.MesonOptions
	}
	if t.Metadata != nil {
		return t.Metadata.MesonOptions
	}
	return nil
}

// MesonOptions returns the configured extra configure options, honoring the
// deprecated spelling inside [tool.mesonpack.metadata].
func (d *Document) MesonOptions() []string {
	if d.Tool == nil {
		return nil
	}
	return d.Tool.mesonOptions()
}

// PkgInfoFile returns the configured metadata override file, or "".
func (d *Document) PkgInfoFile() string {
	if d.Tool == nil {
		return ""
	}
	if d.Tool.PkgInfoFile != "" {
		return d.Tool.PkgInfoFile
	}
	if d.Tool.Metadata != nil {
		return d.Tool.Metadata.PkgInfoFile
	}
	return ""
}

// SourcePolicy returns the configured source archive policy, defaulting to
// SourcePolicyGit.
func (d *Document) SourcePolicy() string {
	if d.Tool == nil || d.Tool.SourcePolicy == "" {
		return SourcePolicyGit
	}
	return d.Tool.SourcePolicy
}

// Legacy returns the deprecated metadata table, or nil.
func (d *Document) Legacy() *LegacyMetadata {
	if d.Tool == nil {
		return nil
	}
	return d.Tool.Metadata
}

// String identifies the document by path for log output.
func (d *Document) String() string {
	if d.Path == "" {
		return FileName
	}
	return d.Path
}

// HasDynamic reports whether the [project] table marks the given field as
// build-system provided.
func (p *Project) HasDynamic(field string) bool {
	if p == nil {
		return false
	}
	for _, f := range p.Dynamic {
		if f == field {
			return true
		}
	}
	return false
}

func normalizeReadme(v any) (*Readme, error) {
	switch rv := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &Readme{File: rv}, nil
	case map[string]any:
		r := &Readme{}
		r.File, _ = rv["file"].(string)
		r.Text, _ = rv["text"].(string)
		r.ContentType, _ = rv["content-type"].(string)
		if r.File != "" && r.Text != "" {
			return nil, fmt.Errorf("readme: file and text are mutually exclusive")
		}
		return r, nil
	default:
		return nil, fmt.Errorf("readme: expected string or table, got %T", v)
	}
}

func normalizeLicense(v any) (*License, error) {
	switch lv := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &License{Expression: lv}, nil
	case map[string]any:
		l := &License{}
		l.Text, _ = lv["text"].(string)
		l.File, _ = lv["file"].(string)
		if l.Text != "" && l.File != "" {
			return nil, fmt.Errorf("license: file and text are mutually exclusive")
		}
		return l, nil
	default:
		return nil, fmt.Errorf("license: expected string or table, got %T", v)
	}
}
