// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE schema validation utilities.
//
// The package consolidates the validation pattern used by the pyproject and
// config packages: compile an embedded schema, encode an already-decoded Go
// value into the same CUE context, unify the two, and report violations with
// JSON-path locations.
//
// # Usage
//
//	//go:embed pyproject_schema.cue
//	var schemaSrc string
//
//	err := cueutil.Validate(schemaSrc, "#Project", projectMap,
//	    cueutil.WithFilename("pyproject.toml"))
//	if err != nil {
//	    return err  // Error includes the CUE path of the violation
//	}
package cueutil
