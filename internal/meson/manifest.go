// SPDX-License-Identifier: MPL-2.0

package meson

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type (
	// Entry is one installed file: where it lives on disk and where it
	// sits relative to the install prefix.
	Entry struct {
		// Source is the absolute on-disk path, with symlinks resolved.
		Source string
		// Rel is the slash-separated path relative to the prefix.
		Rel string
	}

	// Manifest lists every file the install phase placed under the
	// scratch prefix, in walk order (lexicographic). It is produced once
	// per build and not mutated afterwards.
	Manifest []Entry
)

// WalkPrefix enumerates the regular files under an install prefix. Symlinks
// are resolved and recorded under their link path; anything that is neither
// a regular file nor a symlink to one is skipped.
func WalkPrefix(prefix string) (Manifest, error) {
	var manifest Manifest
	err := filepath.WalkDir(prefix, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		source := path
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return fmt.Errorf("resolve symlink %s: %w", path, err)
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			source = resolved
		} else if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(prefix, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		manifest = append(manifest, Entry{Source: source, Rel: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}
