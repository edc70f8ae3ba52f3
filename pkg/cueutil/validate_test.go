// SPDX-License-Identifier: MPL-2.0

package cueutil_test

import (
	"strings"
	"testing"

	"github.com/mesonpack/mesonpack/pkg/cueutil"
)

const testSchema = `
#Contact: {
	name?:  string
	email?: string
}

#Project: {
	name?:    string
	version?: string
	authors?: [...#Contact]
	...
}
`

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		wantErr bool
		errPart string
	}{
		{
			name: "valid value",
			value: map[string]any{
				"name":    "demo",
				"version": "1.2.0",
				"authors": []any{map[string]any{"name": "Jane", "email": "jane@example.com"}},
			},
			wantErr: false,
		},
		{
			name:    "unknown top-level field ignored by open definition",
			value:   map[string]any{"name": "demo", "homepage": "https://example.com"},
			wantErr: false,
		},
		{
			name:    "wrong type reported with path",
			value:   map[string]any{"version": 3},
			wantErr: true,
			errPart: "version",
		},
		{
			name: "closed definition rejects extra keys",
			value: map[string]any{
				"authors": []any{map[string]any{"name": "Jane", "homepage": "https://example.com"}},
			},
			wantErr: true,
			errPart: "homepage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := cueutil.Validate(testSchema, "#Project", tt.value,
				cueutil.WithFilename("pyproject.toml"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errPart != "" && !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Validate() error %q should mention %q", err, tt.errPart)
			}
			if err != nil && !strings.Contains(err.Error(), "pyproject.toml") {
				t.Errorf("Validate() error %q should mention the filename", err)
			}
		})
	}
}

func TestValidate_BadSchemaPath(t *testing.T) {
	t.Parallel()

	err := cueutil.Validate(testSchema, "#Missing", map[string]any{})
	if err == nil {
		t.Fatal("expected error for missing schema definition")
	}
	if !strings.Contains(err.Error(), "#Missing") {
		t.Errorf("error should name the missing definition, got: %v", err)
	}
}
