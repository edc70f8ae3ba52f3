// SPDX-License-Identifier: MPL-2.0

package meson

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBuildFailure is the sentinel error wrapped by PhaseError.
var ErrBuildFailure = errors.New("meson build failure")

// PhaseError is returned when a meson phase cannot run or exits non-zero. It
// carries the captured combined output when the phase ran with captured
// streams; in streamed mode Output is empty because the caller already saw
// the subprocess output live.
type PhaseError struct {
	Phase    Phase
	ExitCode int
	Output   string
	Cause    error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	var b strings.Builder
	if e.Cause != nil {
		fmt.Fprintf(&b, "meson %s: %v", e.Phase, e.Cause)
	} else {
		fmt.Fprintf(&b, "meson %s exited with code %d", e.Phase, e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap returns ErrBuildFailure so callers can use errors.Is for
// programmatic detection.
func (e *PhaseError) Unwrap() error { return ErrBuildFailure }
