package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGraph(t *testing.T) {
	reg := blocks.NewRegistry()
	blocks.RegisterBuiltins(reg)

	// Scenario A: valid blueprint trigger -> condition -> return
	valid, err := graph.New(
		domain.Node{ID: "bp", Type: domain.NodeTypeBlueprint, Content: map[string]string{"key": "main"}},
		domain.Node{ID: "start", Type: blocks.TypeAPITrigger, Parent: "bp", Out: []domain.Edge{{Outcome: "trigger", Target: "check"}}},
		domain.Node{ID: "check", Type: blocks.TypeCondition, Parent: "bp",
			Content: map[string]string{"expression": "payload.ok"},
			Out:     []domain.Edge{{Outcome: "true", Target: "done"}}},
		domain.Node{ID: "done", Type: blocks.TypeReturnValue, Parent: "bp", Content: map[string]string{"value": "ok"}},
	)
	require.NoError(t, err)
	assert.NoError(t, ValidateGraph(valid, reg), "Scenario A (Valid) failed")

	// Scenario B: every kind of problem at once
	broken, err := graph.New(
		domain.Node{ID: "bp", Type: domain.NodeTypeBlueprint, Content: map[string]string{"key": "main"}},
		domain.Node{ID: "ghost_link", Type: blocks.TypeAPITrigger, Parent: "bp", Out: []domain.Edge{{Outcome: "trigger", Target: "ghost_node"}}},
		domain.Node{ID: "no_field", Type: blocks.TypeReturnValue, Parent: "bp"},
		domain.Node{ID: "bad_outcome", Type: blocks.TypeCondition, Parent: "bp",
			Content: map[string]string{"expression": "true"},
			Out:     []domain.Edge{{Outcome: "maybe", Target: "no_field"}}},
		domain.Node{ID: "mystery", Type: "unknown", Parent: "bp"},
		domain.Node{ID: "orphan", Type: blocks.TypeLogMessage, Content: map[string]string{"message": "hi"}},
	)
	require.NoError(t, err)

	err = ValidateGraph(broken, reg)
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "found 5 errors:"), msg)
	assert.Contains(t, msg, "missing node 'ghost_node'")
	assert.Contains(t, msg, "Node 'no_field': missing required field 'value'")
	assert.Contains(t, msg, "never produces outcome 'maybe'")
	assert.Contains(t, msg, "unknown block type 'unknown'")
	assert.Contains(t, msg, "Node 'orphan' does not belong to any blueprint")
}
