package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for a terminal using glamour.
// The style follows the terminal background.
func NewRenderer(width int) (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// RenderPlain renders markdown without colors, for pipes and files.
func RenderPlain(markdown string) (string, error) {
	return glamour.Render(markdown, "notty")
}
