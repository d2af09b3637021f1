package main

import (
	"os"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List the registered block types",
	Long:  `Prints the catalog of block types with their fields and outcomes, as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(blocks.Default.Catalog())
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)
}
