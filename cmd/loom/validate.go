package main

import (
	"github.com/aretw0/loom/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph]",
	Short: "Check the graph for consistency",
	Long:  `Reports dangling edges, orphan nodes, unknown block types, missing required fields and undeclared outcomes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(commonOptions(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
