// SPDX-License-Identifier: MPL-2.0

// Command mesonpack exposes the build-backend hooks as a command line tool.
package main

import "github.com/mesonpack/mesonpack/internal/cli"

func main() {
	cli.Execute()
}
