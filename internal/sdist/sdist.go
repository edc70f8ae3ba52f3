// SPDX-License-Identifier: MPL-2.0

// Package sdist assembles source distribution archives. A snapshot of the
// project tree (the git index when the source directory is a repository
// root, an ignore-filtered walk otherwise) or a normalized build-system
// dist archive becomes a deterministic gzip-compressed tarball named
// {name}-{version}.tar.gz with a generated PKG-INFO at its root.
package sdist

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/mesonpack/mesonpack/internal/metadata"
	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

// pkgInfoName is the metadata summary file at the archive root.
const pkgInfoName = "PKG-INFO"

// Entry is one archive member, backed either by a file on disk or by
// generated content.
type Entry struct {
	// Rel is the slash-separated path below the archive root directory.
	Rel string
	// Source is the absolute path on disk. Empty when Data is inline.
	Source string
	// Data is generated content for entries without a Source.
	Data []byte
	// Mode is the normalized permission mode, 0644 or 0755.
	Mode int64
}

// Builder assembles source archives for one resolved project.
type Builder struct {
	// Meta names the archive and renders its PKG-INFO.
	Meta *metadata.Record
	// Doc supplies the config file bytes when the snapshot misses them.
	Doc *pyproject.Document
	// SourceDir is the project root to snapshot.
	SourceDir string
	// ScratchDirs are excluded from snapshots: build trees, staging
	// prefixes and other transient directories below SourceDir.
	ScratchDirs []string
	// Log receives progress output. Nil discards.
	Log *log.Logger
}

// Build snapshots the source tree and writes the archive into outDir,
// returning the archive path. Tracked files come from the git index when
// SourceDir is a repository root; otherwise the tree is walked with VCS
// and root .gitignore patterns excluded.
func (b *Builder) Build(outDir string) (string, error) {
	entries, err := b.snapshot(outDir)
	if err != nil {
		return "", err
	}
	return b.write(outDir, entries)
}

// Repack normalizes an archive produced by the build system's dist step:
// its root directory is replaced with the canonical one, ownership and
// timestamps are cleared, and PKG-INFO is injected.
func (b *Builder) Repack(distArchive, outDir string) (string, error) {
	entries, err := readDist(distArchive)
	if err != nil {
		return "", err
	}
	return b.write(outDir, entries)
}

func (b *Builder) write(outDir string, entries []Entry) (string, error) {
	entries = b.inject(entries)
	path, err := writeTarball(outDir, b.Meta.FileStem(), entries)
	if err != nil {
		return "", err
	}
	b.logger().Info("source archive written", "path", path, "files", len(entries))
	return path, nil
}

// inject replaces any snapshot PKG-INFO with the freshly serialized record
// and adds the config file when the snapshot does not already carry it.
func (b *Builder) inject(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries)+2)
	haveConfig := false
	for _, e := range entries {
		switch e.Rel {
		case pkgInfoName:
			continue
		case pyproject.FileName:
			haveConfig = true
		}
		kept = append(kept, e)
	}
	kept = append(kept, Entry{Rel: pkgInfoName, Data: b.Meta.CoreMetadata(), Mode: 0o644})
	if !haveConfig && b.Doc != nil && len(b.Doc.Raw) > 0 {
		kept = append(kept, Entry{Rel: pyproject.FileName, Data: b.Doc.Raw, Mode: 0o644})
	}
	return kept
}

func (b *Builder) logger() *log.Logger {
	if b.Log != nil {
		return b.Log
	}
	return log.New(io.Discard)
}
