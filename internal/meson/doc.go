// SPDX-License-Identifier: MPL-2.0

// Package meson drives the meson build tool through its command line:
// configuring a build directory, installing into a scratch prefix, producing
// source archives, and reading back project introspection data. All
// subprocess execution goes through the Runner interface so pipelines can be
// exercised in tests without a meson binary on PATH.
package meson
