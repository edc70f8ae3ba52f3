// SPDX-License-Identifier: MPL-2.0

// Package config handles process-wide settings using Viper with TOML as the
// file format.
//
// Settings are loaded from ~/.config/mesonpack/config.toml (or XDG equivalent
// on Linux, ~/Library/Application Support/mesonpack/config.toml on macOS,
// %APPDATA%\mesonpack\config.toml on Windows), then overridden by MESONPACK_*
// environment variables. Loading happens once at CLI start; the resulting
// Settings value is threaded explicitly through the hook pipeline and never
// read ambiently afterwards.
package config
