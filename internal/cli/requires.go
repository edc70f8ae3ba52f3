// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newRequiresForBuildWheelCommand creates the `mesonpack requires-for-build-wheel`
// command, which prints the requirements a front end must install before
// building a wheel.
func newRequiresForBuildWheelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "requires-for-build-wheel",
		Short: "Print the requirements for building a wheel",
		Long: `Print the requirements for building a wheel, one per line.

The list comes from pyproject.toml alone: [project] dependencies when
declared, the legacy requires entry otherwise. No build directory is
configured and meson is never invoked.`,
		Example: `  # Install the build requirements
  mesonpack requires-for-build-wheel | xargs -r pip install`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, func(ctx context.Context, p hookParams) error {
				return runRequires(p, false)
			})
		},
	}
}

// newRequiresForBuildSdistCommand creates the `mesonpack requires-for-build-sdist`
// command. Source archives need the same requirements as wheels.
func newRequiresForBuildSdistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "requires-for-build-sdist",
		Short: "Print the requirements for building a source archive",
		Long: `Print the requirements for building a source archive, one per line.

The list is identical to the one requires-for-build-wheel prints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, func(ctx context.Context, p hookParams) error {
				return runRequires(p, true)
			})
		},
	}
}

// runRequires is the core requirements logic, separated from Cobra for
// testability.
func runRequires(p hookParams, forSdist bool) error {
	var (
		reqs []string
		err  error
	)
	if forSdist {
		reqs, err = p.backend.RequiresForSdist()
	} else {
		reqs, err = p.backend.RequiresForWheel()
	}
	if err != nil {
		return err
	}

	for _, req := range reqs {
		fmt.Fprintln(p.stdout, req)
	}
	return nil
}
