package loam

import "github.com/aretw0/loom/internal/dto"

// NodeMetadata is the frontmatter of one node document.
// A document of type "blueprint" declares a container; Key and Description apply to it only.
type NodeMetadata struct {
	ID          string         `json:"id" mapstructure:"id"`
	Type        string         `json:"type" mapstructure:"type"`
	Parent      string         `json:"parent" mapstructure:"parent"`
	Key         string         `json:"key" mapstructure:"key"`
	Description string         `json:"description" mapstructure:"description"`
	Content     map[string]any `json:"content" mapstructure:"content"`
	Out         []dto.EdgeSpec `json:"out" mapstructure:"out"`
	Next        map[string]any `json:"next" mapstructure:"next"`

	// BodyField names the content field that receives the document body.
	// Defaults to "message". A field set in Content wins over the body.
	BodyField string `json:"body_field" mapstructure:"body_field"`
}

func (m NodeMetadata) spec(id string) dto.NodeSpec {
	return dto.NodeSpec{
		ID:      id,
		Type:    m.Type,
		Parent:  m.Parent,
		Content: m.Content,
		Out:     m.Out,
		Next:    m.Next,
	}
}
