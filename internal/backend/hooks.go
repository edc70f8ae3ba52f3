// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"context"

	"github.com/mesonpack/mesonpack/internal/layout"
	"github.com/mesonpack/mesonpack/internal/meson"
	"github.com/mesonpack/mesonpack/internal/metadata"
	"github.com/mesonpack/mesonpack/internal/sdist"
	"github.com/mesonpack/mesonpack/internal/wheel"
	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

// RequiresForWheel returns the build requirements declared in the project
// config, one requirement string per entry. The declared runtime dependencies
// double as build requirements; no build system phase runs and the project
// identity is never consulted.
func (b *Backend) RequiresForWheel() ([]string, error) {
	doc, err := b.document()
	if err != nil {
		return nil, err
	}
	deps, err := metadata.ResolveRequires(doc)
	if err != nil {
		return nil, err
	}
	reqs := make([]string, 0, len(deps))
	for _, dep := range deps {
		reqs = append(reqs, dep.Raw)
	}
	return reqs, nil
}

// RequiresForSdist returns the same static answer as RequiresForWheel; both
// archive kinds build from the same requirement set.
func (b *Backend) RequiresForSdist() ([]string, error) {
	return b.RequiresForWheel()
}

// PrepareMetadata writes the {name}-{version}.dist-info metadata subdirectory
// standalone into outDir and returns its path. The build system is consulted
// only when the config leaves name or version unstated.
func (b *Backend) PrepareMetadata(ctx context.Context, outDir string) (string, error) {
	doc, err := b.document()
	if err != nil {
		return "", err
	}
	rec, err := b.resolve(ctx, doc)
	if err != nil {
		return "", err
	}
	return b.wheelBuilder(doc, rec, nil).DistInfo(outDir)
}

// BuildWheel drives the full binary-package pipeline: configure, resolve
// metadata, install into a scratch prefix, classify every installed file, and
// assemble the archive into outDir. Returns the archive path.
func (b *Backend) BuildWheel(ctx context.Context, outDir string) (string, error) {
	doc, err := b.document()
	if err != nil {
		return "", err
	}
	inv, err := b.invoker(doc)
	if err != nil {
		return "", err
	}

	builddir, prefix, cleanup, err := b.scratch()
	if err != nil {
		return "", err
	}
	defer cleanup()

	if err := inv.Setup(ctx, b.sourceDir(), builddir, prefix); err != nil {
		return "", err
	}
	// Resolving before the install phase surfaces metadata problems without
	// paying for a full build.
	rec, err := metadata.Resolve(doc, introspected(builddir))
	if err != nil {
		return "", err
	}
	if err := inv.Install(ctx, builddir); err != nil {
		return "", err
	}

	manifest, err := meson.WalkPrefix(prefix)
	if err != nil {
		return "", err
	}
	files, err := classify(manifest)
	if err != nil {
		return "", err
	}

	b.logger().Info("building wheel", "name", rec.Name, "version", rec.Version, "files", len(files))
	return b.wheelBuilder(doc, rec, files).Build(outDir)
}

// BuildSdist assembles the source archive into outDir and returns its path.
// The snapshot policy comes from the config: the default git policy archives
// the tracked tree without running the build system (unless identity must be
// introspected), the meson-dist policy delegates snapshotting to the build
// system's dist step and normalizes its output.
func (b *Backend) BuildSdist(ctx context.Context, outDir string) (string, error) {
	doc, err := b.document()
	if err != nil {
		return "", err
	}
	switch policy := doc.SourcePolicy(); policy {
	case pyproject.SourcePolicyGit:
		return b.sdistFromTree(ctx, doc, outDir)
	case pyproject.SourcePolicyMesonDist:
		return b.sdistFromDist(ctx, doc, outDir)
	default:
		return "", &metadata.FieldError{Field: "source-policy", Reason: "unsupported policy " + policy}
	}
}

func (b *Backend) sdistFromTree(ctx context.Context, doc *pyproject.Document, outDir string) (string, error) {
	rec, err := b.resolve(ctx, doc)
	if err != nil {
		return "", err
	}
	sb := &sdist.Builder{Meta: rec, Doc: doc, SourceDir: b.sourceDir(), Log: b.Log}
	return sb.Build(outDir)
}

func (b *Backend) sdistFromDist(ctx context.Context, doc *pyproject.Document, outDir string) (string, error) {
	inv, err := b.invoker(doc)
	if err != nil {
		return "", err
	}
	builddir, prefix, cleanup, err := b.scratch()
	if err != nil {
		return "", err
	}
	defer cleanup()

	if err := inv.Setup(ctx, b.sourceDir(), builddir, prefix); err != nil {
		return "", err
	}
	rec, err := metadata.Resolve(doc, introspected(builddir))
	if err != nil {
		return "", err
	}
	if err := inv.Dist(ctx, builddir, []string{"gztar"}); err != nil {
		return "", err
	}
	archive, err := meson.DistOutput(builddir)
	if err != nil {
		return "", err
	}
	sb := &sdist.Builder{Meta: rec, Doc: doc, SourceDir: b.sourceDir(), Log: b.Log}
	return sb.Repack(archive, outDir)
}

// resolve produces the metadata record for operations that do not otherwise
// run the build system. When the config states name and version explicitly no
// subprocess runs at all; otherwise a throwaway build directory is configured
// just long enough to introspect the project identity.
func (b *Backend) resolve(ctx context.Context, doc *pyproject.Document) (*metadata.Record, error) {
	inv, err := b.invoker(doc)
	if err != nil {
		return nil, err
	}
	ident := metadata.IdentityFunc(func() (string, string, error) {
		builddir, prefix, cleanup, err := b.scratch()
		if err != nil {
			return "", "", err
		}
		defer cleanup()
		if err := inv.Setup(ctx, b.sourceDir(), builddir, prefix); err != nil {
			return "", "", err
		}
		info, err := meson.Introspect(builddir)
		if err != nil {
			return "", "", err
		}
		return info.ProjectIdentity()
	})
	return metadata.Resolve(doc, ident)
}

// introspected returns an identity source reading the project info a
// completed setup left in builddir.
func introspected(builddir string) metadata.IdentitySource {
	return metadata.IdentityFunc(func() (string, string, error) {
		info, err := meson.Introspect(builddir)
		if err != nil {
			return "", "", err
		}
		return info.ProjectIdentity()
	})
}

// classify assigns every manifest entry its archive category. The first
// unclassifiable entry aborts the build; an archive with silently dropped or
// misplaced content would corrupt the distribution.
func classify(manifest meson.Manifest) ([]layout.Classified, error) {
	roots := layout.DefaultRoots()
	files := make([]layout.Classified, 0, len(manifest))
	for _, e := range manifest {
		c, err := roots.Classify(e)
		if err != nil {
			return nil, err
		}
		files = append(files, c)
	}
	return files, nil
}

// wheelBuilder wires the archive assembler with the configured tag overrides.
func (b *Backend) wheelBuilder(doc *pyproject.Document, rec *metadata.Record, files []layout.Classified) *wheel.Builder {
	wb := &wheel.Builder{Meta: rec, Files: files, Log: b.Log}
	if t := doc.Tool; t != nil {
		wb.PythonTag = t.PythonTag
		wb.AbiTag = t.AbiTag
		wb.PlatformTag = t.PlatformTag
	}
	return wb
}
