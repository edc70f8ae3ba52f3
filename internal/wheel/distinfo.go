// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"os"
	"path/filepath"
)

// DistInfo writes the metadata subdirectory standalone into outDir and
// returns its path. The directory carries METADATA, WHEEL, and, when any
// group has entries, entry_points.txt. RECORD is omitted: it manifests
// archive members, and there is no archive here.
//
// Purity cannot be read off an install manifest that does not exist yet, so
// a configured platform tag marks the metadata as platform-specific and
// everything else counts as pure.
func (b *Builder) DistInfo(outDir string) (dir string, err error) {
	pure := b.PlatformTag == ""
	tag := b.tag(pure)

	dir = filepath.Join(outDir, b.Meta.FileStem()+".dist-info")
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	files := []entry{
		{arcpath: "METADATA", data: b.Meta.CoreMetadata()},
		{arcpath: "WHEEL", data: b.wheelFile(pure, tag)},
	}
	if ep := b.Meta.EntryPointsFile(); ep != nil {
		files = append(files, entry{arcpath: "entry_points.txt", data: ep})
	}
	for _, f := range files {
		if err = os.WriteFile(filepath.Join(dir, f.arcpath), f.data, 0o644); err != nil {
			return "", err
		}
	}
	b.logger().Info("metadata directory written", "path", dir)
	return dir, nil
}
