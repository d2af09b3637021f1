package state

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Segment is one step of a parsed state path.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// ParsePath parses a traversal such as `a.b[2]` or `a["k"]`.
func ParsePath(path string) ([]Segment, error) {
	src := strings.TrimSpace(path)
	if src == "" {
		return nil, fmt.Errorf("empty state path")
	}
	trav, diags := hclsyntax.ParseTraversalAbs([]byte(src), "state", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid state path '%s': %s", path, diags.Error())
	}

	segs := make([]Segment, 0, len(trav))
	for _, step := range trav {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			segs = append(segs, Segment{Key: s.Name})
		case hcl.TraverseAttr:
			segs = append(segs, Segment{Key: s.Name})
		case hcl.TraverseIndex:
			seg, err := indexSegment(s.Key)
			if err != nil {
				return nil, fmt.Errorf("invalid state path '%s': %w", path, err)
			}
			segs = append(segs, seg)
		default:
			return nil, fmt.Errorf("invalid state path '%s': unsupported step %T", path, step)
		}
	}
	return segs, nil
}

func indexSegment(key cty.Value) (Segment, error) {
	if key.IsNull() || !key.IsKnown() {
		return Segment{}, fmt.Errorf("index must be a known value")
	}
	switch key.Type() {
	case cty.String:
		return Segment{Key: key.AsString()}, nil
	case cty.Number:
		i, acc := key.AsBigFloat().Int64()
		if acc != big.Exact {
			return Segment{}, fmt.Errorf("index %s is not an integer", key.AsBigFloat().String())
		}
		return Segment{Index: int(i), IsIndex: true}, nil
	default:
		return Segment{}, fmt.Errorf("unsupported index type %s", key.Type().FriendlyName())
	}
}

// child returns the value one step below container.
func child(container any, seg Segment) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		key := seg.Key
		if seg.IsIndex {
			key = strconv.Itoa(seg.Index)
		}
		v, ok := c[key]
		return v, ok
	case []any:
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(c) {
			return nil, false
		}
		return c[seg.Index], true
	}
	return nil, false
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}
