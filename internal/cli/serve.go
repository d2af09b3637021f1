package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/loom/pkg/adapters/http"
	"github.com/aretw0/loom/pkg/adapters/mcp"
)

// shutdownTimeout is the grace period given to outstanding requests.
const shutdownTimeout = 5 * time.Second

// ServeOptions configures the 'serve' command.
type ServeOptions struct {
	Options
	Addr string
}

// Serve exposes the engine over HTTP until SIGINT/SIGTERM.
func Serve(opts ServeOptions) error {
	opts.defaults()
	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	setup, err := createEngine(sc, opts.Options)
	if err != nil {
		return err
	}
	defer setup.Close()

	handler := httpAdapter.NewHandler(setup.Runner(),
		httpAdapter.WithName(setup.Engine.Name),
		httpAdapter.WithRegistry(setup.Engine.Registry()),
		httpAdapter.WithMetrics(setup.Metrics.Handler()),
		httpAdapter.WithLogger(setup.Logger),
	)

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		setup.Logger.Info("Starting loom server", "address", srv.Addr, "graph", opts.GraphPath)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-sc.Done():
		setup.Logger.Info("Start shutdown", "signal", sc.Signal())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			setup.Logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return err
			}
		}
		setup.Logger.Info("loom server stopped gracefully")
	}
	return setup.SaveState()
}

// MCPOptions configures the 'mcp' command.
type MCPOptions struct {
	Options
	Transport string
	Port      int
}

// ServeMCP exposes the engine's blueprints as MCP tools.
func ServeMCP(opts MCPOptions) error {
	opts.defaults()
	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	setup, err := createEngine(sc, opts.Options)
	if err != nil {
		return err
	}
	defer setup.Close()

	srv := mcp.NewServer(setup.Runner(), setup.Engine.Registry(), setup.Logger)
	switch opts.Transport {
	case "", "stdio":
		setup.Logger.Info("Starting loom MCP server (stdio)")
		err = srv.ServeStdio()
	case "sse":
		setup.Logger.Info("Starting loom MCP server (SSE)", "port", opts.Port)
		err = srv.ServeSSE(sc, opts.Port)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	default:
		return errors.New("unknown transport: " + opts.Transport + ". Supported: stdio, sse")
	}
	if err != nil {
		return err
	}
	return setup.SaveState()
}
