package tui

import (
	"strings"
	"testing"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		domain.Node{ID: "blueprint_greet", Type: domain.NodeTypeBlueprint, Content: map[string]string{"key": "greet", "description": "Says | hello"}},
		domain.Node{ID: "start", Type: "apitrigger", Parent: "blueprint_greet", Out: []domain.Edge{{Outcome: "trigger", Target: "reply"}}},
		domain.Node{ID: "reply", Type: "returnvalue", Parent: "blueprint_greet"},
	)
	require.NoError(t, err)
	return g
}

func TestDescribeGraph(t *testing.T) {
	g := sample(t)
	md := DescribeGraph("demo", g, []domain.BlueprintInfo{{Key: "greet", Description: "Says | hello", NodeID: "blueprint_greet"}})

	assert.Contains(t, md, "# demo\n")
	assert.Contains(t, md, "| `greet` | Says \\| hello | 2 |")
	assert.Contains(t, md, "## greet")
	assert.Contains(t, md, "- `start` (apitrigger): trigger -> reply")
	assert.Contains(t, md, "- `reply` (returnvalue)\n")
}

func TestDescribeGraph_Empty(t *testing.T) {
	g, err := graph.New()
	require.NoError(t, err)
	assert.Contains(t, DescribeGraph("empty", g, nil), "_No blueprints._")
}

func TestDescribeBlocks(t *testing.T) {
	md := DescribeBlocks(map[string]blocks.Metadata{
		"zeta":  {Name: "Zeta", Outcomes: map[string]blocks.OutcomeSpec{"success": {}, "error": {}}},
		"alpha": {Name: "Alpha", Description: "first"},
	})

	alpha := "| `alpha` | Alpha |  | first |"
	zeta := "| `zeta` | Zeta | error, success |  |"
	assert.Contains(t, md, alpha)
	assert.Contains(t, md, zeta)
	assert.Less(t, strings.Index(md, alpha), strings.Index(md, zeta))
}

func TestRenderPlain(t *testing.T) {
	out, err := RenderPlain("# Title\n\nSome text")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Some text")
}

