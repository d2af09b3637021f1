package main

import (
	"github.com/aretw0/loom/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [graph]",
	Short: "Start the HTTP server",
	Long: `Serves the blueprints over HTTP:
  POST /blueprints/{key}/run   run a blueprint (body = JSON payload)
  GET  /blueprints, /blocks    introspection
  GET  /events                 SSE stream of state changes
  GET  /metrics                Prometheus metrics`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return cli.Serve(cli.ServeOptions{Options: commonOptions(cmd, args), Addr: addr})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
