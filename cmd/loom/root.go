package main

import (
	"fmt"
	"os"

	"github.com/aretw0/loom/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Loom runs blueprint graphs",
	Long: `Loom executes blueprints: graphs of blocks that read and write a shared state.
Blueprints are described in a YAML (or JSON) document and can be run from the shell,
served over HTTP or exposed as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("graph", "g", "loom.yaml", "Graph document (YAML or JSON) or a directory of node documents")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.Bool("run-logs", false, "Emit one run log per invocation")
	flags.String("redis-addr", "", "Also send mail (run logs, messages) to this Redis stream")
	flags.String("state", "", "JSON file the shared state is loaded from and saved to")
	flags.String("state-key", "", "Hex-encoded 32-byte key encrypting the --state file (or LOOM_STATE_KEY)")
	flags.StringSlice("mask", nil, "Key patterns whose values are masked in the saved state")
	flags.Int("pool-size", 0, "Concurrency bound of fan-out blocks (0 = default)")
	flags.Bool("strict", false, "Reject graphs whose nodes do not match the block registry")
	flags.String("env", "", "JSON object merged into every run environment")
}

// commonOptions reads the persistent flags. A positional argument names the graph
// document unless --graph is given.
func commonOptions(cmd *cobra.Command, args []string) cli.Options {
	flags := cmd.Flags()
	graph, _ := flags.GetString("graph")
	if !flags.Changed("graph") && len(args) > 0 {
		graph = args[0]
	}
	level, _ := flags.GetString("log-level")
	format, _ := flags.GetString("log-format")
	runLogs, _ := flags.GetBool("run-logs")
	redisAddr, _ := flags.GetString("redis-addr")
	statePath, _ := flags.GetString("state")
	stateKey, _ := flags.GetString("state-key")
	if stateKey == "" {
		stateKey = os.Getenv("LOOM_STATE_KEY")
	}
	mask, _ := flags.GetStringSlice("mask")
	poolSize, _ := flags.GetInt("pool-size")
	strict, _ := flags.GetBool("strict")
	env, _ := flags.GetString("env")

	return cli.Options{
		GraphPath: graph,
		LogLevel:  level,
		LogFormat: format,
		RunLogs:   runLogs,
		RedisAddr: redisAddr,
		StatePath: statePath,
		StateKey:  stateKey,
		Mask:      mask,
		PoolSize:  poolSize,
		Strict:    strict,
		Env:       env,
	}
}
