// SPDX-License-Identifier: MPL-2.0

package meson_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesonpack/mesonpack/internal/meson"
)

func TestIntrospect(t *testing.T) {
	t.Parallel()

	builddir := t.TempDir()
	infoDir := filepath.Join(builddir, "meson-info")
	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	payload := `{"version": "1.2.0", "descriptive_name": "demo", "subprojects": []}`
	if err := os.WriteFile(filepath.Join(infoDir, "intro-projectinfo.json"), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := meson.Introspect(builddir)
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if info.Name != "demo" || info.Version != "1.2.0" {
		t.Errorf("Introspect() = %+v", info)
	}

	name, version, err := info.ProjectIdentity()
	if err != nil || name != "demo" || version != "1.2.0" {
		t.Errorf("ProjectIdentity() = %q, %q, %v", name, version, err)
	}
}

func TestIntrospect_MissingInfo(t *testing.T) {
	t.Parallel()

	_, err := meson.Introspect(t.TempDir())
	if !errors.Is(err, meson.ErrBuildFailure) {
		t.Fatalf("Introspect() error = %v, want build failure", err)
	}
}

func TestIntrospect_MalformedInfo(t *testing.T) {
	t.Parallel()

	builddir := t.TempDir()
	infoDir := filepath.Join(builddir, "meson-info")
	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(infoDir, "intro-projectinfo.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := meson.Introspect(builddir)
	if !errors.Is(err, meson.ErrBuildFailure) {
		t.Fatalf("Introspect() error = %v, want build failure", err)
	}
}
