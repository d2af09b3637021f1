package main

import (
	"github.com/aretw0/loom/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [graph]",
	Short: "Run a blueprint",
	Long: `Runs the blueprint registered under --key and prints its result as JSON.
With --lines, every line of stdin is a JSON payload and produces one result line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		payload, _ := cmd.Flags().GetString("payload")
		lines, _ := cmd.Flags().GetBool("lines")
		quiet, _ := cmd.Flags().GetBool("quiet")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		opts := cli.RunOptions{
			Options: commonOptions(cmd, args),
			Key:     key,
			Payload: payload,
			Lines:   lines,
			Quiet:   quiet,
		}
		opts.Timeout = timeout
		return cli.Execute(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("key", "k", "", "Blueprint key")
	runCmd.Flags().StringP("payload", "p", "", "Payload (JSON, or plain text)")
	runCmd.Flags().Bool("lines", false, "Read one JSON payload per stdin line (NDJSON in/out)")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress system messages")
	runCmd.Flags().Duration("timeout", 0, "Cancel the run after this long (0 = no limit)")
}
