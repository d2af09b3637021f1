package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/loom"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of loom",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loom version %s\n", strings.TrimSpace(loom.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
