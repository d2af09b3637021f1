package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/loom"
	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolPrefix prefixes the tool generated for each blueprint.
const ToolPrefix = "run_"

// Server wraps a loom engine and exposes its blueprints as MCP tools.
type Server struct {
	engine    ports.BlueprintRunner
	registry  *blocks.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
// A nil registry skips the loom://blocks resource.
func NewServer(engine ports.BlueprintRunner, registry *blocks.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		registry:  registry,
		logger:    logger,
		mcpServer: server.NewMCPServer("loom-mcp", strings.TrimSpace(loom.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_<key>, one per blueprint
	for _, bp := range s.engine.Blueprints() {
		description := bp.Description
		if description == "" {
			description = fmt.Sprintf("Run the %q blueprint.", bp.Key)
		}
		tool := mcp.NewTool(ToolPrefix+bp.Key,
			mcp.WithDescription(description),
			mcp.WithString("payload", mcp.Description("JSON value made available to the blueprint as `payload` (optional)")),
		)
		s.mcpServer.AddTool(tool, s.runHandler(bp.Key))
	}

	// TOOL: list_blueprints
	s.mcpServer.AddTool(mcp.NewTool("list_blueprints",
		mcp.WithDescription("List the runnable blueprints."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.engine.Blueprints())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// runHandler runs the blueprint under key. Run failures are reported as tool errors, not protocol errors.
func (s *Server) runHandler(key string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var payload any
		if raw := strings.TrimSpace(request.GetString("payload", "")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				// Plain text is passed through as a string payload.
				payload = raw
			}
		}

		res, err := s.engine.RunBlueprint(ctx, key, payload)
		if err != nil {
			s.logger.Warn("MCP run failed", "blueprint", key, "error", err)
			if errors.Is(err, domain.ErrBlueprintNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("unknown blueprint: %s", key)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
		}

		jsonBytes, err := json.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}
}

func (s *Server) registerResources() {
	if s.registry == nil {
		return
	}
	// EXPOSE: loom://blocks
	s.mcpServer.AddResource(mcp.NewResource("loom://blocks", "Block Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.registry.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "loom://blocks",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
