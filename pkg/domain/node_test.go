package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		raw  string
		want FieldKind
	}{
		{"plain text", FieldLiteral},
		{"", FieldLiteral},
		{"@{payload.name}", FieldTemplate},
		{"Hello @{ name }!", FieldTemplate},
		{"email@example.com", FieldLiteral},
		{"{not a template}", FieldLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseField(tt.raw).Kind)
		})
	}
}

func TestNode_Compile(t *testing.T) {
	n := Node{ID: "a", Content: map[string]string{"lit": "x", "tpl": "@{y}"}}
	n.Compile()

	f, ok := n.Field("tpl")
	assert.True(t, ok)
	assert.True(t, f.IsTemplate())

	f, ok = n.Field("lit")
	assert.True(t, ok)
	assert.False(t, f.IsTemplate())

	_, ok = n.Field("missing")
	assert.False(t, ok)
	assert.True(t, n.IsTerminal())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty([]any{}))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.False(t, IsEmpty(false))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty("x"))
}
