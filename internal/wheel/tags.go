// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"fmt"
	"runtime"
	"strings"
)

// Tag defaults applied when the configuration leaves them unset. Compiled
// extensions are tagged for the build host; pure projects are importable
// anywhere.
const (
	defaultPythonTag = "py3"
	defaultAbiTag    = "none"
)

// tag returns the compatibility tag embedded in the archive name and the
// WHEEL file.
func (b *Builder) tag(pure bool) string {
	python := b.PythonTag
	if python == "" {
		python = defaultPythonTag
	}
	if pure {
		return python + "-none-any"
	}
	abi := b.AbiTag
	if abi == "" {
		abi = defaultAbiTag
	}
	platform := b.PlatformTag
	if platform == "" {
		platform = hostPlatformTag()
	}
	return python + "-" + abi + "-" + platform
}

// hostPlatformTag maps the build host onto the platform tag vocabulary
// installers match against.
func hostPlatformTag() string {
	switch runtime.GOOS {
	case "linux":
		switch runtime.GOARCH {
		case "amd64":
			return "linux_x86_64"
		case "arm64":
			return "linux_aarch64"
		case "386":
			return "linux_i686"
		}
	case "darwin":
		switch runtime.GOARCH {
		case "amd64":
			return "macosx_10_9_x86_64"
		case "arm64":
			return "macosx_11_0_arm64"
		}
	case "windows":
		switch runtime.GOARCH {
		case "amd64":
			return "win_amd64"
		case "386":
			return "win32"
		case "arm64":
			return "win_arm64"
		}
	}
	return strings.ReplaceAll(runtime.GOOS+"_"+runtime.GOARCH, "-", "_")
}

// wheelFile renders the format-declaration file for the metadata
// subdirectory.
func (b *Builder) wheelFile(pure bool, tag string) []byte {
	generator := b.Generator
	if generator == "" {
		generator = "mesonpack"
	}
	return []byte(fmt.Sprintf(
		"Wheel-Version: 1.0\nGenerator: %s\nRoot-Is-Purelib: %t\nTag: %s\n",
		generator, pure, tag))
}
