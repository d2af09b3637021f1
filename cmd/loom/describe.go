package main

import (
	"github.com/aretw0/loom/internal/cli"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [graph]",
	Short: "Summarize the blueprints of a graph",
	Long:  `Prints each blueprint with its nodes and edges as markdown. With --blocks, prints the block catalog instead.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withBlocks, _ := cmd.Flags().GetBool("blocks")
		return cli.Describe(cli.DescribeOptions{
			Options: commonOptions(cmd, args),
			Blocks:  withBlocks,
		})
	},
}

func init() {
	describeCmd.Flags().Bool("blocks", false, "Describe the block catalog instead of the graph")
	rootCmd.AddCommand(describeCmd)
}
