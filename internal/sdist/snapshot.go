// SPDX-License-Identifier: MPL-2.0

package sdist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluxcd/pkg/sourceignore"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	"github.com/mesonpack/mesonpack/internal/record"
)

// snapshot lists the files the archive should carry, relative to SourceDir.
func (b *Builder) snapshot(outDir string) ([]Entry, error) {
	root, err := filepath.Abs(b.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source dir %s: %w", b.SourceDir, err)
	}
	excluded, err := b.excludedDirs(root, outDir)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(root)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			b.logger().Debug("source dir is not a git repository, walking tree", "dir", root)
			return b.walkSnapshot(root, excluded)
		}
		return nil, fmt.Errorf("open git repository %s: %w", root, err)
	}
	return b.indexSnapshot(repo, root, excluded)
}

// excludedDirs resolves the scratch directories and the output directory to
// absolute paths. The source root itself is never excluded, so writing
// archives into the project directory keeps working.
func (b *Builder) excludedDirs(root, outDir string) ([]string, error) {
	dirs := make([]string, 0, len(b.ScratchDirs)+1)
	for _, d := range append(append([]string(nil), b.ScratchDirs...), outDir) {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolve excluded dir %s: %w", d, err)
		}
		if abs == root {
			continue
		}
		dirs = append(dirs, abs)
	}
	return dirs, nil
}

func underAny(path string, dirs []string) bool {
	for _, d := range dirs {
		if path == d || strings.HasPrefix(path, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// indexSnapshot lists the tracked files from the repository index. Index
// paths are relative to the repository root and slash-separated, so root
// must be where the repository was opened.
func (b *Builder) indexSnapshot(repo *git.Repository, root string, excluded []string) ([]Entry, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read git index %s: %w", root, err)
	}

	entries := make([]Entry, 0, len(idx.Entries))
	seen := make(map[string]bool, len(idx.Entries))
	for _, ie := range idx.Entries {
		// Conflicted paths appear once per merge stage. First one wins.
		if seen[ie.Name] {
			continue
		}
		seen[ie.Name] = true

		source := filepath.Join(root, filepath.FromSlash(ie.Name))
		if underAny(source, excluded) {
			continue
		}
		switch ie.Mode {
		case filemode.Regular:
			entries = append(entries, Entry{Rel: ie.Name, Source: source, Mode: 0o644})
		case filemode.Executable:
			entries = append(entries, Entry{Rel: ie.Name, Source: source, Mode: 0o755})
		case filemode.Symlink:
			resolved, fi, err := resolveLink(source)
			if err != nil {
				return nil, err
			}
			if fi == nil {
				continue
			}
			entries = append(entries, Entry{Rel: ie.Name, Source: resolved, Mode: normalizeMode(fi.Mode())})
		default:
			// Submodule pointers carry no file content.
		}
	}
	return entries, nil
}

// walkSnapshot lists the tree by walking it, excluding VCS internals and
// anything the root .gitignore matches.
func (b *Builder) walkSnapshot(root string, excluded []string) ([]Entry, error) {
	domain := strings.Split(root, string(filepath.Separator))
	ps := sourceignore.VCSPatterns(domain)
	ignorePath := filepath.Join(root, ".gitignore")
	if f, err := os.Open(ignorePath); err == nil {
		ps = append(ps, sourceignore.ReadPatterns(f, domain)...)
		f.Close()
	} else if !os.IsNotExist(err) {
		return nil, &record.ReadError{Path: ignorePath, Cause: err}
	}
	matcher := sourceignore.NewMatcher(ps)

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		isDir := d.IsDir()
		if underAny(path, excluded) || matcher.Match(strings.Split(path, string(filepath.Separator)), isDir) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return &record.ReadError{Path: path, Cause: err}
		}
		source, mode := path, info.Mode()
		if mode&fs.ModeSymlink != 0 {
			resolved, fi, err := resolveLink(path)
			if err != nil {
				return err
			}
			if fi == nil {
				return nil
			}
			source, mode = resolved, fi.Mode()
		} else if !mode.IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Rel: filepath.ToSlash(rel), Source: source, Mode: normalizeMode(mode)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", root, err)
	}
	return entries, nil
}

// resolveLink follows a symlink and reports the resolved regular file.
// A nil FileInfo means the target is not a regular file and the entry
// should be skipped.
func resolveLink(path string) (string, os.FileInfo, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", nil, &record.ReadError{Path: path, Cause: err}
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return "", nil, &record.ReadError{Path: resolved, Cause: err}
	}
	if !fi.Mode().IsRegular() {
		return "", nil, nil
	}
	return resolved, fi, nil
}

func normalizeMode(m fs.FileMode) int64 {
	if m&0o111 != 0 {
		return 0o755
	}
	return 0o644
}
