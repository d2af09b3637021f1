package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	got any
}

func (f *fakeRunner) RunBlueprint(_ context.Context, key string, payload any) (*domain.RunResult, error) {
	f.got = payload
	switch key {
	case "greet":
		return &domain.RunResult{RunID: "r1", Value: "hello"}, nil
	case "broken":
		return nil, &domain.ConfigurationError{NodeID: "n1", Field: "value"}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrBlueprintNotFound, key)
}

func (f *fakeRunner) Blueprints() []domain.BlueprintInfo {
	return []domain.BlueprintInfo{
		{Key: "greet", Description: "Say hello", NodeID: "blueprint_greet"},
		{Key: "broken", NodeID: "blueprint_broken"},
	}
}

func call(t *testing.T, s *Server, key string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolPrefix + key
	req.Params.Arguments = args
	res, err := s.runHandler(key)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestServer_RegistersBlueprintTools(t *testing.T) {
	s := NewServer(&fakeRunner{}, blocks.Default, nil)

	tools := s.mcpServer.ListTools()
	assert.Contains(t, tools, "run_greet")
	assert.Contains(t, tools, "run_broken")
	assert.Contains(t, tools, "list_blueprints")
	assert.Equal(t, "Say hello", tools["run_greet"].Tool.Description)
}

func TestServer_Run(t *testing.T) {
	runner := &fakeRunner{}
	s := NewServer(runner, nil, nil)

	t.Run("json payload", func(t *testing.T) {
		res := call(t, s, "greet", map[string]any{"payload": `{"name":"Ada"}`})
		assert.False(t, res.IsError)

		var out domain.RunResult
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
		assert.Equal(t, "r1", out.RunID)
		assert.Equal(t, "hello", out.Value)
		assert.Equal(t, map[string]any{"name": "Ada"}, runner.got)
	})

	t.Run("text payload", func(t *testing.T) {
		call(t, s, "greet", map[string]any{"payload": "plain words"})
		assert.Equal(t, "plain words", runner.got)
	})

	t.Run("no payload", func(t *testing.T) {
		call(t, s, "greet", nil)
		assert.Nil(t, runner.got)
	})

	t.Run("run error", func(t *testing.T) {
		res := call(t, s, "broken", nil)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "run failed")
	})

	t.Run("unknown blueprint", func(t *testing.T) {
		res := call(t, s, "gone", nil)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "unknown blueprint: gone")
	})
}
