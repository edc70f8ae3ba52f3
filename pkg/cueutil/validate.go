// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize is the maximum input size accepted by CheckFileSize
// callers that do not configure their own limit (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

// Option configures a Validate call.
type Option func(*options)

type options struct {
	filename string
}

func defaultOptions() options {
	return options{}
}

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// Validate checks an already-decoded Go value against a definition in an
// embedded CUE schema:
//
//  1. Compile the embedded schema and look up the root definition
//  2. Encode the Go value into the same CUE context
//  3. Unify and validate, reporting violations with their CUE paths
//
// The value is typically a map[string]any produced by a TOML decoder. Schema
// definitions control strictness: closed definitions reject unknown fields,
// open ones (declared with "...") ignore them.
func Validate(schema, schemaPath string, value any, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	encoded := ctx.Encode(value)
	if encoded.Err() != nil {
		return FormatError(encoded.Err(), filename)
	}

	unified := schemaRoot.Unify(encoded)
	// Concrete(false): every schema field is optional, presence is enforced
	// by the caller after decoding.
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return FormatError(err, filename)
	}

	return nil
}

// CheckFileSize verifies that data does not exceed the specified maximum size.
// Returns an error if the size limit is exceeded.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
