// SPDX-License-Identifier: MPL-2.0

// Package cli contains all CLI commands for mesonpack.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mesonpack/mesonpack/internal/backend"
	"github.com/mesonpack/mesonpack/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbosity counts -v occurrences and overrides the configured level
	verbosity int
	// cfgFile allows specifying a custom config file
	cfgFile string
	// configSettings collects repeatable -C key=value overrides
	configSettings []string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "mesonpack",
		Short: "Package meson projects as wheels and source archives",
		Long: TitleStyle.Render("mesonpack") + SubtitleStyle.Render(" - package meson projects as wheels and source archives") + `

mesonpack turns a meson project into standard Python distribution
artifacts. Project metadata comes from the pyproject.toml next to the
top-level meson.build; name and version left unstated there are taken
from meson introspection.

Each subcommand mirrors one build-backend hook, so build front ends
and humans drive the same five operations. Result paths go to stdout,
everything else to stderr.

` + SubtitleStyle.Render("Examples:") + `
  mesonpack requires-for-build-wheel   Print the build requirements
  mesonpack prepare-metadata -o dist   Write only the metadata directory
  mesonpack build-wheel -o dist        Build a wheel into dist/
  mesonpack build-sdist -o dist        Build a source archive into dist/`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity (-v streams subprocess output, -vv adds debug logging)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $XDG_CONFIG_HOME/mesonpack/config.toml)")
	rootCmd.PersistentFlags().StringArrayVarP(&configSettings, "config-setting", "C", nil,
		"per-invocation setting override (key=value, repeatable)")

	// Add subcommands
	rootCmd.AddCommand(newRequiresForBuildWheelCommand())
	rootCmd.AddCommand(newRequiresForBuildSdistCommand())
	rootCmd.AddCommand(newPrepareMetadataCommand())
	rootCmd.AddCommand(newBuildWheelCommand())
	rootCmd.AddCommand(newBuildSdistCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// resolveSettings produces the effective settings for one invocation:
// process-wide configuration first, then -C overrides, then the -v flag.
//
// A broken config file at the default location is surfaced as a warning and
// replaced with defaults; a file named explicitly via --config fails hard.
func resolveSettings(stderr io.Writer, opts config.LoadOptions, pairs []string, verboseCount int) (config.Settings, error) {
	settings, err := config.Load(opts)
	if err != nil {
		if opts.ConfigFilePath != "" {
			return config.Settings{}, err
		}
		fmt.Fprintln(stderr, WarningStyle.Render("Warning: ")+err.Error())
		settings = config.Default()
	}

	overrides, err := parseConfigSettings(pairs)
	if err != nil {
		return config.Settings{}, err
	}
	settings = backend.ApplyOverrides(settings, overrides)

	if verboseCount > 0 {
		settings.Verbosity = verboseCount
	}
	return settings, nil
}

// parseConfigSettings splits repeated -C key=value pairs into an override map.
// Later occurrences of the same key win.
func parseConfigSettings(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, &config.InvalidSettingsError{FieldErrors: []error{
				fmt.Errorf("malformed -C setting %q, want key=value", pair),
			}}
		}
		out[key] = value
	}
	return out, nil
}

// newLogger builds the pipeline logger. It writes to stderr because stdout
// carries hook results that build front ends parse.
func newLogger(settings config.Settings) *log.Logger {
	lvl := log.WarnLevel
	switch {
	case settings.Verbosity >= 2:
		lvl = log.DebugLevel
	case settings.Verbosity == 1:
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{Prefix: "mesonpack", Level: lvl})
}
