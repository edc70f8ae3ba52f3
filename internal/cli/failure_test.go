// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"testing"

	"github.com/mesonpack/mesonpack/internal/config"
	"github.com/mesonpack/mesonpack/internal/issue"
	"github.com/mesonpack/mesonpack/internal/layout"
	"github.com/mesonpack/mesonpack/internal/meson"
	"github.com/mesonpack/mesonpack/internal/metadata"
	"github.com/mesonpack/mesonpack/internal/record"
	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

func TestClassifyIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "missing pyproject maps to not-found card",
			err:  &pyproject.ParseError{Path: "pyproject.toml", Err: fmt.Errorf("open pyproject.toml: %w", fs.ErrNotExist)},
			want: issue.PyprojectNotFoundId,
		},
		{
			name: "broken pyproject maps to parse card",
			err:  &pyproject.ParseError{Path: "pyproject.toml", Err: errors.New("unexpected token")},
			want: issue.PyprojectParseErrorId,
		},
		{
			name: "unstartable meson maps to meson-not-found card",
			err:  &meson.PhaseError{Phase: meson.PhaseSetup, ExitCode: -1, Cause: fmt.Errorf("run meson: %w", exec.ErrNotFound)},
			want: issue.MesonNotFoundId,
		},
		{
			name: "failing phase maps to build card",
			err:  &meson.PhaseError{Phase: meson.PhaseInstall, ExitCode: 1, Output: "ninja: error"},
			want: issue.BuildFailedId,
		},
		{
			name: "metadata field error maps to metadata card",
			err:  &metadata.FieldError{Field: "version", Reason: "unset and not dynamic"},
			want: issue.MetadataIncompleteId,
		},
		{
			name: "settings error maps to settings card",
			err:  &config.InvalidSettingsError{FieldErrors: []error{errors.New("bad")}},
			want: issue.SettingsInvalidId,
		},
		{
			name: "unclassified install entry maps to layout card",
			err:  &layout.UnclassifiedPathError{Path: "etc/demo.conf"},
			want: issue.UnclassifiedPathId,
		},
		{
			name: "vanished archive input maps to snapshot card",
			err:  &record.ReadError{Path: "src/main.c", Cause: fs.ErrNotExist},
			want: issue.SourceSnapshotFailedId,
		},
		{
			name: "wrapped sentinel is still classified",
			err:  fmt.Errorf("building wheel: %w", &metadata.FieldError{Field: "name", Reason: "unset"}),
			want: issue.MetadataIncompleteId,
		},
		{
			name: "unknown error has no card",
			err:  errors.New("unexpected boom"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := classifyIssue(tt.err); got != tt.want {
				t.Errorf("classifyIssue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "phase failure",
			err:  &meson.PhaseError{Phase: meson.PhaseSetup, ExitCode: 2},
			want: exitBuild,
		},
		{
			name: "invalid pyproject",
			err:  &pyproject.ParseError{Path: "pyproject.toml", Err: errors.New("bad toml")},
			want: exitProject,
		},
		{
			name: "metadata validation",
			err:  &metadata.FieldError{Field: "version", Reason: "unset"},
			want: exitProject,
		},
		{
			name: "invalid settings",
			err:  &config.InvalidSettingsError{FieldErrors: []error{errors.New("bad")}},
			want: exitProject,
		},
		{
			name: "unclassifiable install entry",
			err:  &layout.UnclassifiedPathError{Path: "etc/demo.conf"},
			want: exitProject,
		},
		{
			name: "actionable wrapper keeps the build classification",
			err:  issue.WrapWithOperation(&meson.PhaseError{Phase: meson.PhaseDist, ExitCode: 1}, "build sdist"),
			want: exitBuild,
		},
		{
			name: "archive input failure is unexpected",
			err:  &record.ReadError{Path: "src/main.c", Cause: fs.ErrNotExist},
			want: exitFailure,
		},
		{
			name: "unknown error",
			err:  errors.New("boom"),
			want: exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := classifyExitCode(tt.err); got != tt.want {
				t.Errorf("classifyExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFail_WrapsIntoExitError(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	cause := &meson.PhaseError{Phase: meson.PhaseInstall, ExitCode: 1}

	err := fail(&stderr, cause, false)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("fail() returned %T, want *ExitError", err)
	}
	if exitErr.Code != exitBuild {
		t.Errorf("Code = %d, want %d", exitErr.Code, exitBuild)
	}
	if !errors.Is(err, meson.ErrBuildFailure) {
		t.Error("ExitError should keep the cause reachable for errors.Is")
	}
	if stderr.Len() == 0 {
		t.Error("fail() should render the failure on stderr")
	}
}

func TestRenderFailure(t *testing.T) {
	t.Parallel()

	t.Run("classified error renders the card and the error line", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		renderFailure(&stderr, &metadata.FieldError{Field: "version", Reason: "unset"}, false)

		out := stderr.String()
		if !strings.Contains(out, "Error:") {
			t.Errorf("output missing error line:\n%s", out)
		}
		if !strings.Contains(out, "metadata") {
			t.Errorf("output missing remediation card content:\n%s", out)
		}
	})

	t.Run("unclassified error renders only the error line", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		renderFailure(&stderr, errors.New("boom"), false)

		out := stderr.String()
		if !strings.Contains(out, "Error:") {
			t.Errorf("output missing error line:\n%s", out)
		}
		if !strings.Contains(out, "boom") {
			t.Errorf("output missing the error message:\n%s", out)
		}
	})

	t.Run("actionable error keeps its suggestions", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		aerr := issue.NewErrorContext().
			WithOperation("create output directory").
			WithResource("dist").
			WithSuggestion("Check the directory permissions").
			Wrap(errors.New("permission denied")).
			BuildError()
		renderFailure(&stderr, aerr, false)

		out := stderr.String()
		if !strings.Contains(out, "• Check the directory permissions") {
			t.Errorf("output missing suggestion bullet:\n%s", out)
		}
		if strings.Contains(out, "Error chain:") {
			t.Errorf("non-verbose output should not include the error chain:\n%s", out)
		}
	})

	t.Run("verbose actionable error includes the chain", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		aerr := issue.WrapWithOperation(errors.New("disk full"), "write archive")
		renderFailure(&stderr, aerr, true)

		if !strings.Contains(stderr.String(), "Error chain:") {
			t.Errorf("verbose output missing error chain:\n%s", stderr.String())
		}
	})
}
