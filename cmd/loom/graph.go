package main

import (
	"github.com/aretw0/loom/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [graph]",
	Short: "Export the graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the graph, one subgraph per blueprint.
With --trace, the blueprint is run first and the nodes it executed are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, _ := cmd.Flags().GetString("trace")
		payload, _ := cmd.Flags().GetString("payload")
		return cli.Graph(cli.GraphOptions{Options: commonOptions(cmd, args), Trace: trace, Payload: payload})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("trace", "", "Blueprint key to run and highlight")
	graphCmd.Flags().StringP("payload", "p", "", "Payload for the traced run")
}
