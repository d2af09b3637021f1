package compiler

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/loom/internal/dto"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser is responsible for converting raw documents into nodes.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a YAML or JSON graph document.
// JSON is accepted because it is valid YAML.
func (p *Parser) Parse(data []byte) (string, []domain.Node, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("failed to parse document: %w", err)
	}

	var doc dto.Document
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return "", nil, fmt.Errorf("failed to decode document: %w", err)
	}

	nodes, err := p.Compile(doc)
	if err != nil {
		return "", nil, err
	}
	return doc.Name, nodes, nil
}

// Compile flattens a document into nodes, blueprint containers first.
func (p *Parser) Compile(doc dto.Document) ([]domain.Node, error) {
	var nodes []domain.Node

	for i, bp := range doc.Blueprints {
		if bp.Key == "" {
			return nil, fmt.Errorf("blueprint at position %d is missing a key", i)
		}
		id := bp.ID
		if id == "" {
			id = "blueprint_" + bp.Key
		}
		content := map[string]string{domain.KeyBlueprintKey: bp.Key}
		if bp.Description != "" {
			content[domain.KeyDescription] = bp.Description
		}
		nodes = append(nodes, domain.Node{ID: id, Type: domain.NodeTypeBlueprint, Content: content})

		for _, spec := range bp.Nodes {
			n, err := compileNode(spec)
			if err != nil {
				return nil, err
			}
			if n.Parent == "" {
				n.Parent = id
			}
			nodes = append(nodes, n)
		}
	}

	for _, spec := range doc.Nodes {
		n, err := compileNode(spec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Node compiles a single node spec.
func (p *Parser) Node(spec dto.NodeSpec) (domain.Node, error) {
	return compileNode(spec)
}

func compileNode(spec dto.NodeSpec) (domain.Node, error) {
	if spec.ID == "" {
		return domain.Node{}, fmt.Errorf("node missing ID")
	}
	if spec.Type == "" {
		return domain.Node{}, fmt.Errorf("node '%s' missing type", spec.ID)
	}

	n := domain.Node{ID: spec.ID, Type: spec.Type, Parent: spec.Parent}

	if len(spec.Content) > 0 {
		n.Content = make(map[string]string, len(spec.Content))
		for k, v := range spec.Content {
			text, err := contentText(v)
			if err != nil {
				return domain.Node{}, fmt.Errorf("node '%s' field '%s': %w", spec.ID, k, err)
			}
			n.Content[k] = text
		}
	}

	for _, e := range spec.Out {
		target := e.Target
		if target == "" {
			target = e.To
		}
		n.Out = append(n.Out, domain.Edge{Outcome: e.Outcome, Target: target})
	}

	outcomes := make([]string, 0, len(spec.Next))
	for outcome := range spec.Next {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		switch t := spec.Next[outcome].(type) {
		case string:
			n.Out = append(n.Out, domain.Edge{Outcome: outcome, Target: t})
		case []any:
			for _, target := range t {
				s, ok := target.(string)
				if !ok {
					return domain.Node{}, fmt.Errorf("node '%s': next '%s' must list node ids", spec.ID, outcome)
				}
				n.Out = append(n.Out, domain.Edge{Outcome: outcome, Target: s})
			}
		default:
			return domain.Node{}, fmt.Errorf("node '%s': next '%s' must be a node id or a list of ids", spec.ID, outcome)
		}
	}
	return n, nil
}

func contentText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
