// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	"github.com/mesonpack/mesonpack/internal/config"
	"github.com/mesonpack/mesonpack/internal/issue"
	"github.com/mesonpack/mesonpack/internal/layout"
	"github.com/mesonpack/mesonpack/internal/meson"
	"github.com/mesonpack/mesonpack/internal/metadata"
	"github.com/mesonpack/mesonpack/internal/record"
	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

// Process exit codes. Build front ends only distinguish zero from non-zero;
// the finer grading helps humans and wrapper scripts.
const (
	// exitFailure covers unexpected errors with no better classification.
	exitFailure = 1
	// exitProject covers pyproject.toml, metadata and settings problems
	// the user can fix.
	exitProject = 2
	// exitBuild covers meson subprocess failures.
	exitBuild = 3
)

// fail renders the failure on stderr and converts it to an ExitError so
// Execute can map it to the right process exit code.
func fail(stderr io.Writer, err error, verbose bool) error {
	renderFailure(stderr, err, verbose)
	return &ExitError{Code: classifyExitCode(err), Err: err}
}

// classifyExitCode maps a hook error to the process exit code.
func classifyExitCode(err error) int {
	switch {
	case errors.Is(err, meson.ErrBuildFailure):
		return exitBuild
	case errors.Is(err, pyproject.ErrInvalid),
		errors.Is(err, metadata.ErrValidation),
		errors.Is(err, config.ErrInvalidSettings),
		errors.Is(err, layout.ErrUnclassified):
		return exitProject
	default:
		return exitFailure
	}
}

// classifyIssue picks the remediation card for a hook error, or 0 when no
// catalog entry applies.
func classifyIssue(err error) issue.Id {
	var parseErr *pyproject.ParseError
	var phaseErr *meson.PhaseError
	switch {
	case errors.As(err, &parseErr):
		if errors.Is(parseErr.Err, fs.ErrNotExist) {
			return issue.PyprojectNotFoundId
		}
		return issue.PyprojectParseErrorId
	case errors.As(err, &phaseErr):
		if errors.Is(phaseErr.Cause, exec.ErrNotFound) {
			return issue.MesonNotFoundId
		}
		return issue.BuildFailedId
	case errors.Is(err, metadata.ErrValidation):
		return issue.MetadataIncompleteId
	case errors.Is(err, config.ErrInvalidSettings):
		return issue.SettingsInvalidId
	case errors.Is(err, layout.ErrUnclassified):
		return issue.UnclassifiedPathId
	case errors.Is(err, record.ErrIO):
		return issue.SourceSnapshotFailedId
	default:
		return 0
	}
}

// renderFailure prints the remediation card for the error when the catalog
// has one, then the styled error line.
func renderFailure(stderr io.Writer, err error, verbose bool) {
	if id := classifyIssue(err); id != 0 {
		if entry := issue.Get(id); entry != nil {
			if rendered, renderErr := entry.Render("dark"); renderErr == nil {
				fmt.Fprint(stderr, rendered)
			}
		}
	}
	fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
