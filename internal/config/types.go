// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMesonBinary is returned when the meson binary setting is blank.
	ErrInvalidMesonBinary = errors.New("invalid meson binary")
	// ErrInvalidVerbosity is returned when the verbosity setting is negative.
	ErrInvalidVerbosity = errors.New("invalid verbosity")
	// ErrInvalidSettings is the sentinel error wrapped by InvalidSettingsError.
	ErrInvalidSettings = errors.New("invalid settings")
)

type (
	// Settings holds the process-wide configuration. It is read once at
	// startup and treated as immutable afterwards.
	Settings struct {
		// Meson is the build system binary to invoke: a name resolved via
		// PATH or an absolute path.
		Meson string `json:"meson" mapstructure:"meson"`
		// Verbosity gates subprocess output: 0 captures it and surfaces it
		// only on failure, 1 streams it live, 2 and up add debug logging.
		Verbosity int `json:"verbosity" mapstructure:"verbosity"`
		// SetupArgs, InstallArgs and DistArgs are process-wide defaults for
		// the per-phase pass-through argument strings. Caller-supplied
		// settings override them per invocation.
		SetupArgs   string `json:"setup_args" mapstructure:"setup_args"`
		InstallArgs string `json:"install_args" mapstructure:"install_args"`
		DistArgs    string `json:"dist_args" mapstructure:"dist_args"`
	}

	// InvalidMesonBinaryError is returned when the meson binary setting is
	// blank. It wraps ErrInvalidMesonBinary for errors.Is() compatibility.
	InvalidMesonBinaryError struct {
		Value string
	}

	// InvalidVerbosityError is returned when the verbosity setting is
	// negative. It wraps ErrInvalidVerbosity for errors.Is() compatibility.
	InvalidVerbosityError struct {
		Value int
	}

	// InvalidSettingsError is returned when Settings has invalid fields.
	// It wraps ErrInvalidSettings for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidSettingsError struct {
		FieldErrors []error
	}
)

// Default returns the built-in settings used when no config file and no
// environment override is present.
func Default() Settings {
	return Settings{Meson: "meson"}
}

// IsValid returns whether the Settings has valid fields.
func (s Settings) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(s.Meson) == "" {
		errs = append(errs, &InvalidMesonBinaryError{Value: s.Meson})
	}
	if s.Verbosity < 0 {
		errs = append(errs, &InvalidVerbosityError{Value: s.Verbosity})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSettingsError{FieldErrors: errs}}
	}
	return true, nil
}

// Streamed reports whether subprocess output should be streamed live.
func (s Settings) Streamed() bool {
	return s.Verbosity >= 1
}

// Error implements the error interface for InvalidMesonBinaryError.
func (e *InvalidMesonBinaryError) Error() string {
	return fmt.Sprintf("meson binary must not be blank, got %q", e.Value)
}

// Unwrap returns ErrInvalidMesonBinary for errors.Is() compatibility.
func (e *InvalidMesonBinaryError) Unwrap() error { return ErrInvalidMesonBinary }

// Error implements the error interface for InvalidVerbosityError.
func (e *InvalidVerbosityError) Error() string {
	return fmt.Sprintf("verbosity must not be negative, got %d", e.Value)
}

// Unwrap returns ErrInvalidVerbosity for errors.Is() compatibility.
func (e *InvalidVerbosityError) Unwrap() error { return ErrInvalidVerbosity }

// Error implements the error interface for InvalidSettingsError.
func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid settings: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSettings for errors.Is() compatibility.
func (e *InvalidSettingsError) Unwrap() error { return ErrInvalidSettings }
