package graph

import (
	"fmt"
	"sort"

	"github.com/aretw0/loom/pkg/domain"
)

// DirectChildren returns the nodes whose parent is parentID, in graph order.
func (g *Graph) DirectChildren(parentID string) []Handle {
	kids := g.children[parentID]
	out := make([]Handle, len(kids))
	copy(out, kids)
	return out
}

// Descendants returns every node nested under parentID at any depth, in graph order.
func (g *Graph) Descendants(parentID string) []Handle {
	seen := map[Handle]bool{}
	queue := g.DirectChildren(parentID)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if seen[h] {
			continue
		}
		seen[h] = true
		queue = append(queue, g.children[g.nodes[h].ID]...)
	}
	return sortedHandles(seen)
}

// TerminalNodes returns the nodes of set without outgoing edges.
func (g *Graph) TerminalNodes(set []Handle) []Handle {
	var out []Handle
	for _, h := range set {
		if g.nodes[h].IsTerminal() {
			out = append(out, h)
		}
	}
	return out
}

// IncomingEdges lists, for every node in set, each out-edge that targets target.
func (g *Graph) IncomingEdges(target Handle, set []Handle) []Dependency {
	id := g.nodes[target].ID
	var deps []Dependency
	for _, h := range set {
		for _, e := range g.nodes[h].Out {
			if e.Target == id {
				deps = append(deps, Dependency{Source: h, Outcome: e.Outcome})
			}
		}
	}
	return deps
}

// HasOutEdge reports whether h has at least one edge labelled outcome.
func (g *Graph) HasOutEdge(h Handle, outcome string) bool {
	for _, e := range g.nodes[h].Out {
		if e.Outcome == outcome {
			return true
		}
	}
	return false
}

// Branch returns the sub-graph reachable from the edges of base labelled outcome.
// The base node itself is only included if the branch loops back to it.
func (g *Graph) Branch(base Handle, outcome string) []Handle {
	seen := map[Handle]bool{}
	var queue []Handle
	for _, e := range g.nodes[base].Out {
		if e.Outcome != outcome {
			continue
		}
		if h, ok := g.index[e.Target]; ok {
			queue = append(queue, h)
		}
	}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if seen[h] {
			continue
		}
		seen[h] = true
		for _, e := range g.nodes[h].Out {
			if next, ok := g.index[e.Target]; ok && !seen[next] {
				queue = append(queue, next)
			}
		}
	}
	return sortedHandles(seen)
}

// FindContainer returns the unique node of containerType whose key field equals key.
func (g *Graph) FindContainer(containerType, key string) (Handle, error) {
	var found []Handle
	for h, n := range g.nodes {
		if n.Type == containerType && n.Content[domain.KeyBlueprintKey] == key {
			found = append(found, Handle(h))
		}
	}
	switch len(found) {
	case 0:
		return 0, fmt.Errorf("%w: %s", domain.ErrBlueprintNotFound, key)
	case 1:
		return found[0], nil
	default:
		return 0, fmt.Errorf("%w: key '%s' matches %d containers", domain.ErrStructural, key, len(found))
	}
}

// Containers returns every node of containerType, in graph order.
func (g *Graph) Containers(containerType string) []Handle {
	var out []Handle
	for h, n := range g.nodes {
		if n.Type == containerType {
			out = append(out, Handle(h))
		}
	}
	return out
}

func sortedHandles(set map[Handle]bool) []Handle {
	out := make([]Handle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
