package domain

import "regexp"

// FieldKind tells whether a field must go through the expression evaluator.
type FieldKind int

const (
	FieldLiteral FieldKind = iota
	FieldTemplate
)

// TemplatePattern matches one @{ expression } segment.
var TemplatePattern = regexp.MustCompile(`@\{\s*([^{}]*?)\s*\}`)

// Field is a node field decided once as either a literal or a template.
type Field struct {
	Kind FieldKind
	Raw  string
}

// ParseField classifies raw text.
func ParseField(raw string) Field {
	if HasTemplate(raw) {
		return Field{Kind: FieldTemplate, Raw: raw}
	}
	return Field{Kind: FieldLiteral, Raw: raw}
}

// HasTemplate reports whether text contains at least one @{...} segment.
func HasTemplate(text string) bool {
	return TemplatePattern.MatchString(text)
}

// IsTemplate reports whether the field needs evaluation.
func (f Field) IsTemplate() bool {
	return f.Kind == FieldTemplate
}
