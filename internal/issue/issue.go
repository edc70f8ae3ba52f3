// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	MesonNotFoundId Id = iota + 1
	PyprojectNotFoundId
	PyprojectParseErrorId
	MetadataIncompleteId
	BuildFailedId
	UnclassifiedPathId
	SourceSnapshotFailedId
	SettingsInvalidId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to look up the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // links into the project documentation
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	mesonNotFoundIssue = &Issue{
		id: MesonNotFoundId,
		mdMsg: `
# Meson not found!

The meson binary could not be started. Every packaging phase runs
through meson, so nothing can be built without it.

## Things you can try:
- Install meson and ninja:
~~~
$ pip install meson ninja
~~~
  or use your system package manager: ` + "`apt install meson`" + `,
  ` + "`dnf install meson`" + ` or ` + "`brew install meson`" + `.

- Check that meson is on your PATH:
~~~
$ meson --version
~~~

- Point mesonpack at a specific binary in your config file:
~~~toml
meson = "/opt/meson/bin/meson"
~~~

- Or via the environment:
~~~
$ export MESONPACK_MESON=/opt/meson/bin/meson
~~~`,
	}

	pyprojectNotFoundIssue = &Issue{
		id: PyprojectNotFoundId,
		mdMsg: `
# No pyproject.toml found!

Project metadata comes from a pyproject.toml next to the top-level
meson.build, and none was found.

## Things you can try:
- Run from the project root; build front ends invoke the backend there:
~~~
$ cd /path/to/your/project
$ mesonpack build-wheel
~~~

- Create a minimal pyproject.toml:
~~~toml
[build-system]
requires = ["mesonpack"]
build-backend = "mesonpack"

[project]
name = "my-package"
version = "1.0.0"
~~~`,
	}

	pyprojectParseErrorIssue = &Issue{
		id: PyprojectParseErrorId,
		mdMsg: `
# Failed to parse pyproject.toml!

Your pyproject.toml contains syntax errors or invalid configuration.

## Common issues:
- Invalid TOML syntax (missing quotes, unbalanced brackets)
- Unknown keys under [tool.mesonpack]
- Wrong value types (a string where a list is expected)
- An author or maintainer entry with keys other than name and email

## Things you can try:
- Check the error message above for the offending key
- Run with verbose mode for more details:
~~~
$ mesonpack -v build-wheel
~~~

## Example of a valid configuration:
~~~toml
[project]
name = "my-package"
version = "1.0.0"
description = "One line about the package"
requires-python = ">=3.9"

[tool.mesonpack]
meson-options = ["-Doption=value"]
~~~`,
	}

	metadataIncompleteIssue = &Issue{
		id: MetadataIncompleteId,
		mdMsg: `
# Project metadata is incomplete!

The package name or version could not be determined, or a metadata
field has an invalid value.

## Name and version are resolved in this order:
1. [project] name and version in pyproject.toml
2. Fields listed in [project] dynamic, taken from meson introspection
3. Legacy [tool.mesonpack.metadata] entries
4. The meson project itself when no [project] table exists

## Things you can try:
- Declare both statically:
~~~toml
[project]
name = "my-package"
version = "1.0.0"
~~~

- Or defer the version to meson.build:
~~~toml
[project]
name = "my-package"
dynamic = ["version"]
~~~

- Check list-valued fields (dependencies, classifiers) for malformed entries`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Meson build failed!

A meson phase (setup, install or dist) exited with an error.

## Things you can try:
- Read the captured output above; setup failures include the tail of
  meson-log.txt, which usually names the failing check
- Re-run with streamed subprocess output:
~~~
$ mesonpack -v build-wheel
~~~

- Reproduce the failing phase by hand:
~~~
$ meson setup builddir --prefix /tmp/prefix -Dlibdir=lib
$ meson install -C builddir
~~~

- Check that the required compilers and pkg-config dependencies are installed`,
	}

	unclassifiedPathIssue = &Issue{
		id: UnclassifiedPathId,
		mdMsg: `
# Cannot place an installed file into the wheel!

The install phase produced a file outside the directories that map
into a wheel.

## Recognized install roots:
- **bin/**: console scripts
- **lib/**: libraries; anything below a site-packages component keeps
  its package path
- **share/**: data files, reinstalled under the target prefix
- **include/**: headers

## Things you can try:
- Fix the install_dir of the offending target in meson.build:
~~~meson
install_data('my.conf', install_dir: get_option('datadir') / 'my-package')
~~~

- Install Python sources with py.install_sources() so they land in
  site-packages
- Note that setup always forces -Dlibdir=lib; targets that hardcode
  another libdir will not be found`,
	}

	sourceSnapshotFailedIssue = &Issue{
		id: SourceSnapshotFailedId,
		mdMsg: `
# Source snapshot failed!

The set of files for the source archive could not be assembled.

With source-policy "git" the snapshot comes from the git index, or
from a filesystem walk when no repository is present. With
"meson-dist" it comes from the archive that meson dist produces.

## Things you can try:
- Track new files; only files in the git index are packed:
~~~
$ git add path/to/new-file
~~~

- Check for files deleted or renamed while the build was running
- Switch policies if your layout fits the other one better:
~~~toml
[tool.mesonpack]
source-policy = "meson-dist"
~~~`,
	}

	settingsInvalidIssue = &Issue{
		id: SettingsInvalidId,
		mdMsg: `
# Invalid settings!

The process configuration or a -C override could not be applied.

## Common causes:
- Unbalanced quotes in setup-args, install-args or dist-args
- A verbose value that is neither a number nor true/false
- Malformed TOML in the config file

## Configuration sources (later wins):
1. Built-in defaults
2. $XDG_CONFIG_HOME/mesonpack/config.toml
3. MESONPACK_* environment variables
4. -C key=value on the command line

## Example configuration:
~~~toml
meson = "meson"
verbosity = 0
setup_args = "-Dbuildtype=release"
~~~

## Things you can try:
- Quote arguments that contain spaces:
~~~
$ mesonpack -C setup-args="-Dc_args='-O2 -g'" build-wheel
~~~`,
	}

	issues = map[Id]*Issue{
		mesonNotFoundIssue.Id():        mesonNotFoundIssue,
		pyprojectNotFoundIssue.Id():    pyprojectNotFoundIssue,
		pyprojectParseErrorIssue.Id():  pyprojectParseErrorIssue,
		metadataIncompleteIssue.Id():   metadataIncompleteIssue,
		buildFailedIssue.Id():          buildFailedIssue,
		unclassifiedPathIssue.Id():     unclassifiedPathIssue,
		sourceSnapshotFailedIssue.Id(): sourceSnapshotFailedIssue,
		settingsInvalidIssue.Id():      settingsInvalidIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
