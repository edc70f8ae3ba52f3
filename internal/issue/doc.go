// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// This package defines error types that carry remediation steps and a catalog
// of Markdown-formatted guidance cards for the failure modes a packaging run
// can hit, improving the user experience when a build goes wrong.
package issue
