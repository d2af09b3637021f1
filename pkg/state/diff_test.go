package state

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  map[string]any
		new  map[string]any
		want map[string]any
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  map[string]any{"a": 1},
			want: map[string]any{"a": 1},
		},
		{
			name: "No Changes",
			old:  map[string]any{"a": 1, "nested": map[string]any{"x": []any{1, 2}}},
			new:  map[string]any{"a": 1, "nested": map[string]any{"x": []any{1, 2}}},
			want: nil,
		},
		{
			name: "Added & Modified",
			old:  map[string]any{"a": 1, "b": "old"},
			new:  map[string]any{"a": 1, "b": "new", "c": true},
			want: map[string]any{"b": "new", "c": true},
		},
		{
			name: "Nested Modification Reports Top-Level Key",
			old:  map[string]any{"order": map[string]any{"qty": 1}},
			new:  map[string]any{"order": map[string]any{"qty": 2}},
			want: map[string]any{"order": map[string]any{"qty": 2}},
		},
		{
			name: "Deletion",
			old:  map[string]any{"a": 1, "b": 2},
			new:  map[string]any{"a": 1},
			want: map[string]any{"b": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		diff := Diff(map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1})
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})
}
