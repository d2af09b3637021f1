package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/loom/internal/presentation/tui"
	"github.com/aretw0/loom/pkg/blocks"
)

// describeWidth is the word wrap used when rendering for a terminal.
const describeWidth = 100

// DescribeOptions configures the 'describe' command.
type DescribeOptions struct {
	Options
	// Blocks lists the block catalog instead of the graph.
	Blocks bool
}

// Describe prints a markdown overview of the graph, or of the block catalog.
// Markdown is rendered for the terminal when stdout is one, and written raw otherwise.
func Describe(opts DescribeOptions) error {
	opts.defaults()

	var md string
	if opts.Blocks {
		md = tui.DescribeBlocks(blocks.Default.Catalog())
	} else {
		setup, err := createEngine(context.Background(), opts.Options)
		if err != nil {
			return err
		}
		defer setup.Close()
		md = tui.DescribeGraph(setup.Engine.Name, setup.Engine.Graph(), setup.Engine.Blueprints())
	}

	if isTerminal(opts.Stdout) {
		render, err := tui.NewRenderer(describeWidth)
		if err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
		if md, err = render(md); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	_, err := fmt.Fprint(opts.Stdout, md)
	return err
}
