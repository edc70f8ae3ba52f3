// SPDX-License-Identifier: MPL-2.0

// Package layout maps installed files onto the archive categories of the
// binary package format. Classification is a longest-matching-prefix test of
// the install-relative path against the configured category roots; entries
// matching no root are an error, never silently dropped.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesonpack/mesonpack/internal/meson"
)

// ErrUnclassified is the sentinel error wrapped by UnclassifiedPathError.
var ErrUnclassified = errors.New("unclassified install path")

type (
	// Category is the archive category assigned to one installed file.
	Category int

	// Roots names the prefix-relative subdirectories the build system
	// installs into, slash-separated. The zero value of a field disables
	// that root.
	Roots struct {
		Scripts string
		Data    string
		Headers string
		Lib     string

		// Priority breaks ties between roots with equal-length matches
		// (identically configured roots). Earlier entries win; the
		// library root ranks at the position of Purelib.
		Priority []Category
	}

	// Classified is one manifest entry with its category and the
	// category-relative path the archive builder will use.
	Classified struct {
		Entry    meson.Entry
		Category Category
		ArcRel   string
	}

	// UnclassifiedPathError reports an installed file outside every
	// configured root.
	UnclassifiedPathError struct {
		Path string
	}
)

const (
	// Purelib holds platform-independent importable code.
	Purelib Category = iota
	// Platlib holds compiled extension modules and shared libraries.
	Platlib
	// Scripts holds executables installed under the scripts root.
	Scripts
	// Data holds files that round-trip to the install prefix.
	Data
	// Headers holds C/C++ headers for source-level consumers.
	Headers
)

// String returns the category name as used in archive data subdirectories.
func (c Category) String() string {
	switch c {
	case Purelib:
		return "purelib"
	case Platlib:
		return "platlib"
	case Scripts:
		return "scripts"
	case Data:
		return "data"
	case Headers:
		return "headers"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *UnclassifiedPathError) Error() string {
	return fmt.Sprintf("installed file %q matches no configured category root", e.Path)
}

// Unwrap returns ErrUnclassified so callers can use errors.Is for
// programmatic detection.
func (e *UnclassifiedPathError) Unwrap() error { return ErrUnclassified }

// DefaultRoots returns the conventional meson install layout. The library
// root matches the -Dlibdir=lib normalization applied at the setup phase.
func DefaultRoots() Roots {
	return Roots{
		Scripts:  "bin",
		Data:     "share",
		Headers:  "include",
		Lib:      "lib",
		Priority: []Category{Scripts, Data, Headers, Purelib},
	}
}

// Classify assigns the entry its archive category and category-relative
// path:
//
//   - Scripts and Headers entries strip their root.
//   - Data entries keep the full prefix-relative path, so installing the
//     data category back into a prefix recreates the original layout.
//   - Library entries are split on the site-packages component when present
//     and keep their path below it; otherwise they strip the library root.
//     Native extension suffixes select Platlib, everything else Purelib.
func (r Roots) Classify(e meson.Entry) (Classified, error) {
	type candidate struct {
		root string
		cat  Category
	}
	candidates := []candidate{
		{r.Scripts, Scripts},
		{r.Data, Data},
		{r.Headers, Headers},
		{r.Lib, Purelib},
	}

	matched := false
	var best candidate
	for _, c := range candidates {
		if c.root == "" || !underRoot(e.Rel, c.root) {
			continue
		}
		if !matched ||
			len(c.root) > len(best.root) ||
			(len(c.root) == len(best.root) && r.rank(c.cat) < r.rank(best.cat)) {
			matched = true
			best = c
		}
	}
	if !matched {
		return Classified{}, &UnclassifiedPathError{Path: e.Rel}
	}

	out := Classified{Entry: e, Category: best.cat}
	switch best.cat {
	case Scripts, Headers:
		out.ArcRel = stripRoot(e.Rel, best.root)
	case Data:
		out.ArcRel = e.Rel
	default:
		out.ArcRel = libRel(e.Rel, best.root)
		if nativeExtension(e.Rel) {
			out.Category = Platlib
		}
	}
	return out, nil
}

func (r Roots) rank(c Category) int {
	for i, p := range r.Priority {
		if p == c {
			return i
		}
	}
	return len(r.Priority)
}

func underRoot(rel, root string) bool {
	return rel == root || strings.HasPrefix(rel, root+"/")
}

func stripRoot(rel, root string) string {
	return strings.TrimPrefix(strings.TrimPrefix(rel, root), "/")
}

// libRel keeps the path below the site-packages component when the library
// root contains one, mapping entries straight into the import root.
func libRel(rel, root string) string {
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		if part == "site-packages" && i < len(parts)-1 {
			return strings.Join(parts[i+1:], "/")
		}
	}
	return stripRoot(rel, root)
}

func nativeExtension(rel string) bool {
	for _, suffix := range []string{".so", ".pyd", ".dylib"} {
		if strings.HasSuffix(rel, suffix) {
			return true
		}
	}
	// versioned shared objects, e.g. libdemo.so.1.0
	return strings.Contains(rel, ".so.")
}
