// Package cli implements the stroll server commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd runs the server when no subcommand is given.
var RootCmd = &cobra.Command{
	Use:          "stroll",
	Short:        "Rotating question API",
	Long:         "Serves region questions that rotate on a fixed cycle, backed by Postgres with a Redis or in-process cache.",
	RunE:         runServe,
	SilenceUsage: true,
}
