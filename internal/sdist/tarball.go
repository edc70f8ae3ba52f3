// SPDX-License-Identifier: MPL-2.0

package sdist

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/mesonpack/mesonpack/internal/record"
)

// archiveEpoch stamps entries when SOURCE_DATE_EPOCH is unset, so repeated
// builds from identical inputs stay byte-identical.
var archiveEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

const epochEnv = "SOURCE_DATE_EPOCH"

// archiveTime returns the timestamp for archive entries, honoring the
// reproducible-builds SOURCE_DATE_EPOCH convention.
func archiveTime() time.Time {
	raw := os.Getenv(epochEnv)
	if raw == "" {
		return archiveEpoch
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return archiveEpoch
	}
	return time.Unix(sec, 0).UTC()
}

// member is one tar header to emit: a directory or a file entry.
type member struct {
	name string
	dir  bool
	e    Entry
}

// plan expands entries into the full sorted member list, adding the root
// directory and every intermediate directory. Directory names end with a
// slash, which sorts each directory directly before its contents.
func plan(stem string, entries []Entry) []member {
	dirs := map[string]bool{stem: true}
	members := make([]member, 0, len(entries)+1)
	for _, e := range entries {
		members = append(members, member{name: stem + "/" + e.Rel, e: e})
		for d := path.Dir(e.Rel); d != "."; d = path.Dir(d) {
			dirs[stem+"/"+d] = true
		}
	}
	for d := range dirs {
		members = append(members, member{name: d + "/", dir: true})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })
	return members
}

// writeTarball writes a deterministic gzip-compressed tarball into outDir.
// The archive lands under a temporary name first and is renamed only after
// every entry was written, so failures never leave a partial archive.
func writeTarball(outDir, stem string, entries []Entry) (archivePath string, err error) {
	tf, err := os.CreateTemp(outDir, ".tmp-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("create archive temp file: %w", err)
	}
	tmpName := tf.Name()
	defer func() {
		if err != nil {
			tf.Close()
			os.Remove(tmpName)
		}
	}()

	gw, err := gzip.NewWriterLevel(tf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("init gzip writer: %w", err)
	}
	tw := tar.NewWriter(gw)

	mtime := archiveTime()
	for _, m := range plan(stem, entries) {
		if err = writeMember(tw, m, mtime); err != nil {
			return "", err
		}
	}

	if err = tw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err = gw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err = tf.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	if err = os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod archive: %w", err)
	}
	archivePath = filepath.Join(outDir, stem+".tar.gz")
	if err = os.Rename(tmpName, archivePath); err != nil {
		return "", fmt.Errorf("move archive into place: %w", err)
	}
	return archivePath, nil
}

// writeMember emits one header, with ownership cleared and the shared
// timestamp applied.
func writeMember(tw *tar.Writer, m member, mtime time.Time) error {
	hdr := &tar.Header{
		Name:    m.name,
		ModTime: mtime,
		Format:  tar.FormatPAX,
	}
	if m.dir {
		hdr.Typeflag = tar.TypeDir
		hdr.Mode = 0o755
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write archive header %s: %w", hdr.Name, err)
		}
		return nil
	}

	hdr.Typeflag = tar.TypeReg
	hdr.Mode = m.e.Mode
	if m.e.Source == "" {
		hdr.Size = int64(len(m.e.Data))
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write archive header %s: %w", hdr.Name, err)
		}
		if _, err := tw.Write(m.e.Data); err != nil {
			return fmt.Errorf("write archive entry %s: %w", hdr.Name, err)
		}
		return nil
	}

	f, err := os.Open(m.e.Source)
	if err != nil {
		return &record.ReadError{Path: m.e.Source, Cause: err}
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return &record.ReadError{Path: m.e.Source, Cause: err}
	}
	hdr.Size = fi.Size()
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write archive header %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return &record.ReadError{Path: m.e.Source, Cause: err}
	}
	return nil
}

// readDist loads the members of a build-system dist archive, dropping its
// root directory so entries can be re-rooted under the canonical one.
// Modes are normalized and only regular files survive.
func readDist(archive string) ([]Entry, error) {
	f, err := os.Open(archive)
	if err != nil {
		return nil, &record.ReadError{Path: archive, Cause: err}
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read dist archive %s: %w", archive, err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	var entries []Entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dist archive %s: %w", archive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		rel := stripRoot(hdr.Name)
		if rel == "" {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read dist archive %s: %w", archive, err)
		}
		entries = append(entries, Entry{Rel: rel, Data: data, Mode: normalizeMode(hdr.FileInfo().Mode())})
	}
	return entries, nil
}

// stripRoot removes the archive's leading path component.
func stripRoot(name string) string {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	_, rest, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	return rest
}
