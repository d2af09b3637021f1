package graph_test

import (
	"testing"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(
		domain.Node{ID: "bp", Type: domain.NodeTypeBlueprint, Content: map[string]string{"key": "main"}},
		domain.Node{ID: "a", Type: "setstate", Parent: "bp", Out: []domain.Edge{
			{Outcome: "success", Target: "b"},
			{Outcome: "error", Target: "c"},
		}},
		domain.Node{ID: "b", Type: "setstate", Parent: "bp", Out: []domain.Edge{{Outcome: "success", Target: "d"}}},
		domain.Node{ID: "c", Type: "setstate", Parent: "bp", Out: []domain.Edge{{Outcome: "success", Target: "d"}}},
		domain.Node{ID: "d", Type: "returnvalue", Parent: "bp"},
		domain.Node{ID: "group", Type: "note", Parent: "bp"},
		domain.Node{ID: "nested", Type: "note", Parent: "group"},
		domain.Node{ID: "outside", Type: "note"},
	)
	require.NoError(t, err)
	return g
}

func ids(g *graph.Graph, hs []graph.Handle) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = g.Node(h).ID
	}
	return out
}

func TestNew_Errors(t *testing.T) {
	_, err := graph.New(domain.Node{ID: "a"}, domain.Node{ID: "a"})
	assert.ErrorContains(t, err, "duplicate")

	_, err = graph.New(domain.Node{})
	assert.ErrorContains(t, err, "missing an id")
}

func TestGet(t *testing.T) {
	g := sampleGraph(t)

	n, err := g.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "setstate", n.Type)

	_, err = g.Get("ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.True(t, domain.IsStructural(err))
}

func TestChildrenAndDescendants(t *testing.T) {
	g := sampleGraph(t)

	assert.Equal(t, []string{"a", "b", "c", "d", "group"}, ids(g, g.DirectChildren("bp")))
	assert.Equal(t, []string{"a", "b", "c", "d", "group", "nested"}, ids(g, g.Descendants("bp")))
	assert.Empty(t, g.Descendants("outside"))
}

func TestTerminalNodes(t *testing.T) {
	g := sampleGraph(t)
	set := g.Descendants("bp")
	assert.Equal(t, []string{"d", "group", "nested"}, ids(g, g.TerminalNodes(set)))
}

func TestIncomingEdges(t *testing.T) {
	g := sampleGraph(t)
	set := g.Descendants("bp")

	d, _ := g.Handle("d")
	deps := g.IncomingEdges(d, set)
	require.Len(t, deps, 2)
	assert.Equal(t, "b", g.Node(deps[0].Source).ID)
	assert.Equal(t, "c", g.Node(deps[1].Source).ID)
	assert.Equal(t, "success", deps[0].Outcome)

	a, _ := g.Handle("a")
	assert.Empty(t, g.IncomingEdges(a, set))

	// Sources outside the set are ignored.
	b, _ := g.Handle("b")
	c, _ := g.Handle("c")
	assert.Len(t, g.IncomingEdges(d, []graph.Handle{b, c, d}), 2)
	assert.Len(t, g.IncomingEdges(d, []graph.Handle{c, d}), 1)
}

func TestBranch(t *testing.T) {
	g := sampleGraph(t)
	a, _ := g.Handle("a")

	assert.Equal(t, []string{"b", "d"}, ids(g, g.Branch(a, "success")))
	assert.Equal(t, []string{"c", "d"}, ids(g, g.Branch(a, "error")))
	assert.Empty(t, g.Branch(a, "other"))
	assert.True(t, g.HasOutEdge(a, "error"))
	assert.False(t, g.HasOutEdge(a, "other"))
}

func TestFindContainer(t *testing.T) {
	g := sampleGraph(t)

	h, err := g.FindContainer(domain.NodeTypeBlueprint, "main")
	require.NoError(t, err)
	assert.Equal(t, "bp", g.Node(h).ID)

	_, err = g.FindContainer(domain.NodeTypeBlueprint, "nope")
	assert.ErrorIs(t, err, domain.ErrBlueprintNotFound)

	dup, err := graph.New(
		domain.Node{ID: "x", Type: domain.NodeTypeBlueprint, Content: map[string]string{"key": "k"}},
		domain.Node{ID: "y", Type: domain.NodeTypeBlueprint, Content: map[string]string{"key": "k"}},
	)
	require.NoError(t, err)
	_, err = dup.FindContainer(domain.NodeTypeBlueprint, "k")
	assert.ErrorIs(t, err, domain.ErrStructural)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, sampleGraph(t).Validate())

	g, err := graph.New(
		domain.Node{ID: "a", Out: []domain.Edge{{Outcome: "success", Target: "ghost"}}},
		domain.Node{ID: "b", Parent: "nobody"},
		domain.Node{ID: "bp", Type: domain.NodeTypeBlueprint},
	)
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 3 errors")
	assert.Contains(t, err.Error(), "missing node 'ghost'")
	assert.Contains(t, err.Error(), "parent 'nobody'")
	assert.Contains(t, err.Error(), "has no key")
}
