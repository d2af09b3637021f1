package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/loom/internal/presentation/graph"
	"github.com/aretw0/loom/internal/validator"
)

// GraphOptions configures the 'graph' command.
type GraphOptions struct {
	Options
	// Trace runs this blueprint first and highlights the nodes it executed.
	Trace   string
	Payload string
}

// Graph prints the Mermaid diagram of the graph.
func Graph(opts GraphOptions) error {
	opts.defaults()
	if opts.Trace != "" {
		opts.RunLogs = true
	}
	ctx := context.Background()

	setup, err := createEngine(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer setup.Close()

	var overlay *graph.GraphOverlay
	if opts.Trace != "" {
		// A failed run still has a run log worth drawing.
		if _, err := setup.Engine.RunBlueprint(ctx, opts.Trace, parsePayload(opts.Payload)); err != nil {
			setup.Logger.Warn("traced run failed", "blueprint", opts.Trace, "error", err)
		}
		if logs := setup.Mailbox.RunLogs(); len(logs) > 0 {
			overlay = graph.OverlayFromRunLog(logs[len(logs)-1])
		}
	}

	_, err = fmt.Fprint(opts.Stdout, graph.GenerateMermaid(setup.Engine.Graph().Nodes(), overlay))
	return err
}

// Validate checks the graph structure and every node against the block registry.
func Validate(opts Options) error {
	opts.defaults()
	setup, err := createEngine(context.Background(), opts)
	if err != nil {
		return err
	}
	defer setup.Close()

	if err := validator.ValidateGraph(setup.Engine.Graph(), setup.Engine.Registry()); err != nil {
		return err
	}
	printSystemMessage(opts.Stdout, "Graph is valid (%d blueprints).", len(setup.Engine.Blueprints()))
	return nil
}
