// SPDX-License-Identifier: MPL-2.0

// Package wheel assembles the binary package archive: classified install
// files under their category paths, then the dist-info metadata subdirectory,
// in a byte-reproducible zip.
package wheel

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/flate"

	"github.com/mesonpack/mesonpack/internal/layout"
	"github.com/mesonpack/mesonpack/internal/metadata"
	"github.com/mesonpack/mesonpack/internal/record"
)

// zipEpoch is the fixed timestamp on every archive entry, chosen so archive
// bytes depend on content alone. Zip cannot represent anything earlier.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Builder assembles one wheel from a resolved metadata record and the
// classified install manifest.
type Builder struct {
	Meta  *metadata.Record
	Files []layout.Classified

	// Generator names this tool in the WHEEL file.
	Generator string
	// PythonTag, AbiTag, and PlatformTag override the tag defaults.
	// PlatformTag is only consulted for impure wheels.
	PythonTag   string
	AbiTag      string
	PlatformTag string

	Log *log.Logger
}

// entry is one planned archive member.
type entry struct {
	arcpath string
	source  string // on-disk path; empty for generated content
	data    []byte // generated content; used when source is empty
	mode    os.FileMode
}

// Build writes the wheel into outDir and returns its path. The archive is
// written to a temporary file and renamed into place; on any error nothing
// is left behind.
func (b *Builder) Build(outDir string) (path string, err error) {
	pure := b.pure()
	tag := b.tag(pure)
	stem := b.Meta.FileStem()
	distInfo := stem + ".dist-info"
	filename := stem + "-" + tag + ".whl"

	entries, err := b.contentEntries()
	if err != nil {
		return "", err
	}

	tf, err := os.CreateTemp(outDir, ".tmp-*.whl")
	if err != nil {
		return "", err
	}
	tmpName := tf.Name()
	defer func() {
		if err != nil {
			tf.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	records := make([]record.Record, 0, len(entries)+3)
	for _, e := range entries {
		rec, err := b.writeEntry(zw, e)
		if err != nil {
			zw.Close()
			return "", err
		}
		records = append(records, rec)
	}

	// The metadata subdirectory goes last, its manifest last of all, so
	// every preceding member is already hashed when RECORD is rendered.
	metaEntries := []entry{
		{arcpath: distInfo + "/METADATA", data: b.Meta.CoreMetadata(), mode: 0o644},
		{arcpath: distInfo + "/WHEEL", data: b.wheelFile(pure, tag), mode: 0o644},
	}
	if ep := b.Meta.EntryPointsFile(); ep != nil {
		metaEntries = append(metaEntries, entry{arcpath: distInfo + "/entry_points.txt", data: ep, mode: 0o644})
	}
	for _, e := range metaEntries {
		rec, err := b.writeEntry(zw, e)
		if err != nil {
			zw.Close()
			return "", err
		}
		records = append(records, rec)
	}

	recordData, err := record.RenderRecord(records, distInfo+"/RECORD")
	if err != nil {
		zw.Close()
		return "", err
	}
	if _, err := b.writeEntry(zw, entry{arcpath: distInfo + "/RECORD", data: recordData, mode: 0o644}); err != nil {
		zw.Close()
		return "", err
	}

	if err := zw.Close(); err != nil {
		return "", err
	}
	if err := tf.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", err
	}

	path = filepath.Join(outDir, filename)
	if err := os.Rename(tmpName, path); err != nil {
		return "", err
	}
	b.logger().Info("wheel assembled", "path", path, "tag", tag, "files", len(entries))
	return path, nil
}

// pure reports whether the manifest contains no platform-specific library
// entries.
func (b *Builder) pure() bool {
	for _, f := range b.Files {
		if f.Category == layout.Platlib {
			return false
		}
	}
	return true
}

// contentEntries maps the classified files onto in-archive paths, sorted
// lexicographically. Library entries sit at the archive root; the other
// categories live under the .data subdirectory installers scatter back into
// an install scheme.
func (b *Builder) contentEntries() ([]entry, error) {
	dataRoot := b.Meta.FileStem() + ".data"
	entries := make([]entry, 0, len(b.Files))
	seen := make(map[string]string, len(b.Files))
	for _, f := range b.Files {
		var arcpath string
		var mode os.FileMode = 0o644
		switch f.Category {
		case layout.Purelib, layout.Platlib:
			arcpath = f.ArcRel
		case layout.Scripts:
			arcpath = dataRoot + "/scripts/" + f.ArcRel
			mode = 0o755
		case layout.Data:
			arcpath = dataRoot + "/data/" + f.ArcRel
		case layout.Headers:
			arcpath = dataRoot + "/headers/" + f.ArcRel
		}
		if prev, dup := seen[arcpath]; dup {
			return nil, fmt.Errorf("install entries %s and %s collide at archive path %s", prev, f.Entry.Rel, arcpath)
		}
		seen[arcpath] = f.Entry.Rel

		if mode == 0o644 {
			if info, err := os.Stat(f.Entry.Source); err == nil && info.Mode()&0o111 != 0 {
				mode = 0o755
			}
		}
		entries = append(entries, entry{arcpath: arcpath, source: f.Entry.Source, mode: mode})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].arcpath < entries[j].arcpath })
	return entries, nil
}

// writeEntry streams one member into the archive, hashing while writing.
func (b *Builder) writeEntry(zw *zip.Writer, e entry) (record.Record, error) {
	h := &zip.FileHeader{
		Name:     e.arcpath,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	h.SetMode(e.mode)
	w, err := zw.CreateHeader(h)
	if err != nil {
		return record.Record{}, err
	}

	sum := record.NewSummer()
	if e.source != "" {
		f, err := os.Open(e.source)
		if err != nil {
			return record.Record{}, &record.ReadError{Path: e.source, Cause: err}
		}
		if _, err := io.Copy(io.MultiWriter(w, sum), f); err != nil {
			f.Close()
			return record.Record{}, &record.ReadError{Path: e.source, Cause: err}
		}
		if err := f.Close(); err != nil {
			return record.Record{}, err
		}
	} else if len(e.data) > 0 {
		if _, err := io.MultiWriter(w, sum).Write(e.data); err != nil {
			return record.Record{}, err
		}
	}
	b.logger().Debug("archived", "path", e.arcpath, "mode", e.mode)
	return sum.Record(e.arcpath), nil
}

func (b *Builder) logger() *log.Logger {
	if b.Log != nil {
		return b.Log
	}
	return log.New(io.Discard)
}
