package loom_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/loom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineRunner(t *testing.T) {
	eng := newShop(t)
	var out bytes.Buffer
	runner := &loom.LineRunner{
		Input:  strings.NewReader("{\"qty\": 1, \"price\": 5}\n\n[oops\n{\"qty\": 10, \"price\": 20}\n"),
		Output: &out,
	}

	require.NoError(t, runner.Run(context.Background(), eng, "checkout"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var first, second, third map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))

	assert.Equal(t, 5.0, first["value"])
	assert.Equal(t, 3.0, second["line"])
	assert.Contains(t, second["error"], "invalid payload")
	assert.Equal(t, 180.0, third["value"])
}

func TestLineRunner_StopOnError(t *testing.T) {
	eng := newShop(t)
	runner := &loom.LineRunner{
		Input:       strings.NewReader("{}\n"),
		Output:      &bytes.Buffer{},
		StopOnError: true,
	}
	err := runner.Run(context.Background(), eng, "missing")
	assert.ErrorContains(t, err, "line 1")
}

func TestLineRunner_RequiresIO(t *testing.T) {
	eng := newShop(t)
	assert.Error(t, (&loom.LineRunner{Output: &bytes.Buffer{}}).Run(context.Background(), eng, "checkout"))
	assert.Error(t, (&loom.LineRunner{Input: strings.NewReader("")}).Run(context.Background(), eng, "checkout"))
}
