// SPDX-License-Identifier: MPL-2.0

package sdist_test

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/klauspost/compress/gzip"

	"github.com/mesonpack/mesonpack/internal/metadata"
	"github.com/mesonpack/mesonpack/internal/record"
	"github.com/mesonpack/mesonpack/internal/sdist"
	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

var tarballEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

type tarMember struct {
	name  string
	dir   bool
	mode  int64
	mtime time.Time
	body  string
}

func readTarball(t *testing.T, path string) []tarMember {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer gr.Close()

	var members []tarMember
	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		members = append(members, tarMember{
			name:  hdr.Name,
			dir:   hdr.Typeflag == tar.TypeDir,
			mode:  hdr.Mode,
			mtime: hdr.ModTime,
			body:  string(body),
		})
	}
	return members
}

func memberNames(members []tarMember) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.name
	}
	return names
}

func findMember(t *testing.T, members []tarMember, name string) tarMember {
	t.Helper()
	for _, m := range members {
		if m.name == name {
			return m
		}
	}
	t.Fatalf("member %q not found in %q", name, memberNames(members))
	return tarMember{}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func demoMeta() *metadata.Record {
	return &metadata.Record{Name: "demo", Version: "1.0.0", Summary: "A demo"}
}

func TestBuild_WalkFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not preserved on windows")
	}
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pyproject.toml": "[project]\nname = \"demo\"\n",
		"meson.build":    "project('demo', version: '1.0.0')\n",
		"src/demo.py":    "x = 1\n",
		".gitignore":     "dist/\n*.log\n",
		"dist/stale.whl": "stale",
		"build.log":      "noise",
	})
	script := filepath.Join(root, "tools", "release.sh")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	b := &sdist.Builder{Meta: demoMeta(), SourceDir: root}
	path, err := b.Build(t.TempDir())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if filepath.Base(path) != "demo-1.0.0.tar.gz" {
		t.Errorf("archive name = %q", filepath.Base(path))
	}

	members := readTarball(t, path)
	want := []string{
		"demo-1.0.0/",
		"demo-1.0.0/PKG-INFO",
		"demo-1.0.0/meson.build",
		"demo-1.0.0/pyproject.toml",
		"demo-1.0.0/src/",
		"demo-1.0.0/src/demo.py",
		"demo-1.0.0/tools/",
		"demo-1.0.0/tools/release.sh",
	}
	got := memberNames(members)
	if len(got) != len(want) {
		t.Fatalf("members = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("member %d = %q, want %q", i, got[i], want[i])
		}
	}

	pkgInfo := findMember(t, members, "demo-1.0.0/PKG-INFO")
	if !strings.HasPrefix(pkgInfo.body, "Metadata-Version: 2.1\nName: demo\nVersion: 1.0.0\n") {
		t.Errorf("PKG-INFO header:\n%s", pkgInfo.body)
	}
	if m := findMember(t, members, "demo-1.0.0/tools/release.sh"); m.mode != 0o755 {
		t.Errorf("release.sh mode = %o, want 755", m.mode)
	}
	if m := findMember(t, members, "demo-1.0.0/src/demo.py"); m.mode != 0o644 {
		t.Errorf("demo.py mode = %o, want 644", m.mode)
	}
	for _, m := range members {
		if !m.mtime.Equal(tarballEpoch) {
			t.Errorf("%s mtime = %v, want fixed epoch", m.name, m.mtime)
		}
	}
}

func TestBuild_GitIndexPolicy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not preserved on windows")
	}
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pyproject.toml": "[project]\nname = \"demo\"\n",
		"meson.build":    "project('demo', version: '1.0.0')\n",
		"src/demo.py":    "x = 1\n",
		"notes.txt":      "untracked scribbles",
	})
	run := filepath.Join(root, "scripts", "run")
	if err := os.MkdirAll(filepath.Dir(run), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(run, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatal(err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	// pyproject.toml and notes.txt stay untracked.
	for _, rel := range []string{"meson.build", "src/demo.py", "scripts/run"} {
		if _, err := w.Add(rel); err != nil {
			t.Fatalf("stage %s: %v", rel, err)
		}
	}

	raw := []byte("[project]\nname = \"demo\"\nversion = \"1.0.0\"\n")
	b := &sdist.Builder{
		Meta:      demoMeta(),
		Doc:       &pyproject.Document{Raw: raw},
		SourceDir: root,
	}
	path, err := b.Build(t.TempDir())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	members := readTarball(t, path)
	want := []string{
		"demo-1.0.0/",
		"demo-1.0.0/PKG-INFO",
		"demo-1.0.0/meson.build",
		"demo-1.0.0/pyproject.toml",
		"demo-1.0.0/scripts/",
		"demo-1.0.0/scripts/run",
		"demo-1.0.0/src/",
		"demo-1.0.0/src/demo.py",
	}
	got := memberNames(members)
	if len(got) != len(want) {
		t.Fatalf("members = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("member %d = %q, want %q", i, got[i], want[i])
		}
	}

	if m := findMember(t, members, "demo-1.0.0/pyproject.toml"); m.body != string(raw) {
		t.Errorf("untracked config not taken from resolved document: %q", m.body)
	}
	if m := findMember(t, members, "demo-1.0.0/scripts/run"); m.mode != 0o755 {
		t.Errorf("scripts/run mode = %o, want 755", m.mode)
	}
}

func TestBuild_MissingTrackedFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"ghost.py": "x = 1\n"})
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatal(err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add("ghost.py"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "ghost.py")); err != nil {
		t.Fatal(err)
	}

	b := &sdist.Builder{Meta: demoMeta(), SourceDir: root}
	outDir := t.TempDir()
	_, err = b.Build(outDir)
	if !errors.Is(err, record.ErrIO) {
		t.Fatalf("Build() error = %v, want IO failure", err)
	}
	left, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("output directory not clean after failure: %v", left)
	}
}

func TestBuild_Reproducible(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pyproject.toml": "[project]\nname = \"demo\"\n",
		"src/demo.py":    "x = 1\n",
	})
	var archives [][]byte
	for i := 0; i < 2; i++ {
		b := &sdist.Builder{Meta: demoMeta(), SourceDir: root}
		path, err := b.Build(t.TempDir())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		archives = append(archives, data)
	}
	if !bytes.Equal(archives[0], archives[1]) {
		t.Error("two builds from identical inputs produced different archive bytes")
	}
}

func TestBuild_SourceDateEpoch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pyproject.toml": "[project]\nname = \"demo\"\n"})

	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")
	b := &sdist.Builder{Meta: demoMeta(), SourceDir: root}
	path, err := b.Build(t.TempDir())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := time.Unix(1700000000, 0)
	for _, m := range readTarball(t, path) {
		if !m.mtime.Equal(want) {
			t.Errorf("%s mtime = %v, want %v", m.name, m.mtime, want)
		}
	}

	t.Setenv("SOURCE_DATE_EPOCH", "not-a-number")
	path, err = b.Build(t.TempDir())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, m := range readTarball(t, path) {
		if !m.mtime.Equal(tarballEpoch) {
			t.Errorf("%s mtime = %v, want fixed epoch fallback", m.name, m.mtime)
		}
	}
}

// writeDistTarball fakes the build system's dist output with a differing
// root directory, a stale PKG-INFO and a symlink member.
func writeDistTarball(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "demo-next.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	if err := tw.WriteHeader(&tar.Header{Typeflag: tar.TypeDir, Name: "demo/", Mode: 0o775}); err != nil {
		t.Fatal(err)
	}
	for _, m := range []struct {
		name, body string
		mode       int64
	}{
		{"demo/meson.build", "project('demo')\n", 0o664},
		{"demo/src/main.c", "int main(void) { return 0; }\n", 0o775},
		{"demo/PKG-INFO", "Metadata-Version: 1.0\nName: stale\n", 0o664},
	} {
		hdr := &tar.Header{Typeflag: tar.TypeReg, Name: m.name, Mode: m.mode, Size: int64(len(m.body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(m.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.WriteHeader(&tar.Header{Typeflag: tar.TypeSymlink, Name: "demo/link", Linkname: "meson.build"}); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRepack(t *testing.T) {
	t.Parallel()

	dist := writeDistTarball(t, t.TempDir())
	b := &sdist.Builder{
		Meta:      demoMeta(),
		Doc:       &pyproject.Document{Raw: []byte("[project]\nname = \"demo\"\n")},
		SourceDir: t.TempDir(),
	}
	path, err := b.Repack(dist, t.TempDir())
	if err != nil {
		t.Fatalf("Repack() error = %v", err)
	}
	if filepath.Base(path) != "demo-1.0.0.tar.gz" {
		t.Errorf("archive name = %q", filepath.Base(path))
	}

	members := readTarball(t, path)
	want := []string{
		"demo-1.0.0/",
		"demo-1.0.0/PKG-INFO",
		"demo-1.0.0/meson.build",
		"demo-1.0.0/pyproject.toml",
		"demo-1.0.0/src/",
		"demo-1.0.0/src/main.c",
	}
	got := memberNames(members)
	if len(got) != len(want) {
		t.Fatalf("members = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("member %d = %q, want %q", i, got[i], want[i])
		}
	}

	pkgInfo := findMember(t, members, "demo-1.0.0/PKG-INFO")
	if strings.Contains(pkgInfo.body, "stale") {
		t.Error("stale PKG-INFO from the dist archive survived the repack")
	}
	if !strings.HasPrefix(pkgInfo.body, "Metadata-Version: 2.1\n") {
		t.Errorf("PKG-INFO header:\n%s", pkgInfo.body)
	}
	if m := findMember(t, members, "demo-1.0.0/src/main.c"); m.mode != 0o755 {
		t.Errorf("src/main.c mode = %o, want normalized 755", m.mode)
	}
	if m := findMember(t, members, "demo-1.0.0/meson.build"); m.mode != 0o644 {
		t.Errorf("meson.build mode = %o, want normalized 644", m.mode)
	}
}

func TestBuild_ScratchDirExcluded(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pyproject.toml":     "[project]\nname = \"demo\"\n",
		"builddir/trace.txt": "scratch",
	})
	b := &sdist.Builder{
		Meta:        demoMeta(),
		SourceDir:   root,
		ScratchDirs: []string{filepath.Join(root, "builddir")},
	}
	path, err := b.Build(t.TempDir())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, name := range memberNames(readTarball(t, path)) {
		if strings.Contains(name, "builddir") {
			t.Errorf("scratch dir leaked into archive: %s", name)
		}
	}
}
