package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/loom/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	Executed []string
	Failed   []string
}

// OverlayFromRunLog marks every node of the run as executed, and those that finished
// with an error outcome (or no outcome at all) as failed.
func OverlayFromRunLog(log domain.RunLog) *GraphOverlay {
	overlay := &GraphOverlay{}
	for _, e := range log.Entries {
		overlay.Executed = append(overlay.Executed, e.NodeID)
		if e.Outcome == "" || e.Outcome == domain.OutcomeError {
			overlay.Failed = append(overlay.Failed, e.NodeID)
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart from a list of nodes.
// Blueprint containers become subgraphs holding their direct children. Shapes follow the block type:
// - Trigger: ((Circle))
// - Condition: {Rhombus}
// - Fan-out / sub-blueprint: [[Subroutine]]
// - Return: ([Stadium])
// - Default: [Rectangle]
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	children := make(map[string][]domain.Node)
	var roots []domain.Node
	containers := make(map[string]bool)
	for _, n := range nodes {
		if n.Type == domain.NodeTypeBlueprint {
			containers[n.ID] = true
		}
	}
	for _, n := range nodes {
		if n.Parent != "" && containers[n.Parent] {
			children[n.Parent] = append(children[n.Parent], n)
			continue
		}
		roots = append(roots, n)
	}

	var writeNode func(n domain.Node, indent string)
	writeNode = func(n domain.Node, indent string) {
		safeID := sanitizeMermaidID(n.ID)
		if n.Type == domain.NodeTypeBlueprint {
			label := n.Content[domain.KeyBlueprintKey]
			if label == "" {
				label = n.ID
			}
			sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, safeID, label))
			for _, c := range children[n.ID] {
				writeNode(c, indent+"    ")
			}
			sb.WriteString(indent + "end\n")
			return
		}
		opener, closer := shape(n.Type)
		sb.WriteString(fmt.Sprintf("%s%s%s\"%s <br/> %s\"%s\n", indent, safeID, opener, n.ID, n.Type, closer))
	}
	for _, n := range roots {
		writeNode(n, "    ")
	}

	// Edges are written after every node so that subgraph membership is not inferred from them.
	for _, n := range nodes {
		for _, e := range n.Out {
			label := strings.ReplaceAll(e.Outcome, "\"", "'")
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", sanitizeMermaidID(n.ID), label, sanitizeMermaidID(e.Target)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef executed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		failed := make(map[string]bool)
		for _, id := range overlay.Failed {
			failed[sanitizeMermaidID(id)] = true
		}
		for _, id := range dedupe(overlay.Executed) {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || failed[safeID] {
				continue
			}
			sb.WriteString(fmt.Sprintf("    class %s executed;\n", safeID))
		}
		for _, id := range dedupe(overlay.Failed) {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(id)))
		}
	}

	return sb.String()
}

func shape(blockType string) (string, string) {
	switch blockType {
	case "apitrigger":
		return "((", "))"
	case "condition":
		return "{", "}"
	case "foreach", "runblueprint":
		return "[[", "]]"
	case "returnvalue":
		return "([", "])"
	}
	return "[", "]"
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
