// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mesonpack/mesonpack/pkg/cueutil"
)

//go:embed pyproject_schema.cue
var pyprojectSchema string

// ErrInvalid is the sentinel error wrapped by every config shape failure
// reported from this package.
var ErrInvalid = errors.New("invalid pyproject.toml")

// ParseError reports a malformed or schema-violating config file.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrInvalid so callers can use errors.Is for programmatic
// detection; the underlying cause stays reachable through the message.
func (e *ParseError) Unwrap() error { return ErrInvalid }

// rawProject mirrors the [project] table for decoding. Fields with more than
// one wire shape (readme, license) decode as any and are normalized after
// schema validation.
type rawProject struct {
	Name                 string                       `toml:"name"`
	Version              string                       `toml:"version"`
	Description          string                       `toml:"description"`
	Readme               any                          `toml:"readme"`
	RequiresPython       string                       `toml:"requires-python"`
	License              any                          `toml:"license"`
	Authors              []Contact                    `toml:"authors"`
	Maintainers          []Contact                    `toml:"maintainers"`
	Classifiers          []string                     `toml:"classifiers"`
	URLs                 map[string]string            `toml:"urls"`
	Scripts              map[string]string            `toml:"scripts"`
	GUIScripts           map[string]string            `toml:"gui-scripts"`
	EntryPoints          map[string]map[string]string `toml:"entry-points"`
	Dependencies         []string                     `toml:"dependencies"`
	OptionalDependencies map[string][]string          `toml:"optional-dependencies"`
	Dynamic              []string                     `toml:"dynamic"`
}

type rawDocument struct {
	Project     *rawProject  `toml:"project"`
	Tool        rawTool      `toml:"tool"`
	BuildSystem *BuildSystem `toml:"build-system"`
}

type rawTool struct {
	Mesonpack *Tool `toml:"mesonpack"`
}

// Load reads and parses a pyproject.toml from the given path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(data, path)
}

// Parse parses pyproject.toml content from bytes. The path parameter is only
// used in error messages and the returned Document.
//
// Parsing is a three-step flow: decode generically and validate the [project]
// and [tool.mesonpack] tables against the embedded CUE schema, decode into
// typed structs, then normalize union-shaped fields.
func Parse(data []byte, path string) (*Document, error) {
	name := path
	if name == "" {
		name = FileName
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, name); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	var generic map[string]any
	if err := toml.Unmarshal(data, &generic); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	if err := validateTables(generic, name); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	var raw rawDocument
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	doc := &Document{
		Tool:        raw.Tool.Mesonpack,
		BuildSystem: raw.BuildSystem,
		Path:        path,
		Raw:         data,
	}

	if raw.Project != nil {
		project, err := raw.Project.normalize()
		if err != nil {
			return nil, &ParseError{Path: name, Err: err}
		}
		project.URLOrder = projectURLOrder(data, project.URLs)
		doc.Project = project
	}

	return doc, nil
}

// validateTables checks the two tables mesonpack reads against the embedded
// schema. Other top-level tables belong to other tools and are left alone.
func validateTables(generic map[string]any, name string) error {
	if project, ok := generic["project"]; ok {
		if err := cueutil.Validate(pyprojectSchema, "#Project", project,
			cueutil.WithFilename(name)); err != nil {
			return err
		}
	}
	tool, ok := generic["tool"].(map[string]any)
	if !ok {
		return nil
	}
	if mp, ok := tool["mesonpack"]; ok {
		if err := cueutil.Validate(pyprojectSchema, "#Tool", mp,
			cueutil.WithFilename(name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *rawProject) normalize() (*Project, error) {
	readme, err := normalizeReadme(r.Readme)
	if err != nil {
		return nil, err
	}
	license, err := normalizeLicense(r.License)
	if err != nil {
		return nil, err
	}

	return &Project{
		Name:                 r.Name,
		Version:              r.Version,
		Description:          r.Description,
		Readme:               readme,
		RequiresPython:       r.RequiresPython,
		License:              license,
		Authors:              r.Authors,
		Maintainers:          r.Maintainers,
		Classifiers:          r.Classifiers,
		URLs:                 r.URLs,
		Scripts:              r.Scripts,
		GUIScripts:           r.GUIScripts,
		EntryPoints:          r.EntryPoints,
		Dependencies:         r.Dependencies,
		OptionalDependencies: r.OptionalDependencies,
		Dynamic:              r.Dynamic,
	}, nil
}
