// SPDX-License-Identifier: MPL-2.0

// Package record computes the content digest and byte size of every file
// that enters an archive, and renders the archive manifest listing them.
// Generated metadata files go through the same code path as installed files.
package record

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrIO is the sentinel error wrapped by ReadError.
var ErrIO = errors.New("archive input unreadable")

type (
	// Record is one manifest line: in-archive path, content digest, and
	// byte size. Digest is empty only for the manifest's own line, which
	// cannot hash itself.
	Record struct {
		Path   string
		Digest string
		Size   int64
	}

	// ReadError reports a file that vanished or turned unreadable
	// between manifest enumeration and archive assembly.
	ReadError struct {
		Path  string
		Cause error
	}

	// Summer accumulates a digest and byte count while content streams
	// through it, so hashing and archiving share a single read.
	Summer struct {
		hash hash.Hash
		size int64
	}
)

// digestPrefix tags the hash algorithm in manifest lines.
const digestPrefix = "sha256="

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read archive input %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrIO so callers can use errors.Is for programmatic
// detection.
func (e *ReadError) Unwrap() error { return ErrIO }

// NewSummer returns a Summer ready to receive content.
func NewSummer() *Summer {
	return &Summer{hash: sha256.New()}
}

// Write implements io.Writer.
func (s *Summer) Write(p []byte) (int, error) {
	s.hash.Write(p)
	s.size += int64(len(p))
	return len(p), nil
}

// Record returns the manifest line for the content written so far.
func (s *Summer) Record(arcpath string) Record {
	return Record{
		Path:   arcpath,
		Digest: digestPrefix + base64.RawURLEncoding.EncodeToString(s.hash.Sum(nil)),
		Size:   s.size,
	}
}

// Bytes records an in-memory file.
func Bytes(arcpath string, data []byte) Record {
	s := NewSummer()
	s.Write(data)
	return s.Record(arcpath)
}

// File records a file on disk.
func File(arcpath, srcpath string) (Record, error) {
	f, err := os.Open(srcpath)
	if err != nil {
		return Record{}, &ReadError{Path: srcpath, Cause: err}
	}
	defer f.Close()

	s := NewSummer()
	if _, err := io.Copy(s, f); err != nil {
		return Record{}, &ReadError{Path: srcpath, Cause: err}
	}
	return s.Record(arcpath), nil
}

// RenderRecord serializes manifest lines in the order given and appends the
// manifest's own unhashed line for selfPath. Paths containing commas or
// quotes are CSV-escaped the way installers expect.
func RenderRecord(records []Record, selfPath string) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, r := range records {
		if err := w.Write([]string{r.Path, r.Digest, strconv.FormatInt(r.Size, 10)}); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{selfPath, "", ""}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
