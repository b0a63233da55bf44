package ui

import "github.com/charmbracelet/glamour"

// RenderMarkdown renders md for terminal display, word-wrapped to
// width. Falls back to the raw text when color is disabled (piped
// output stays grep-able) or rendering fails.
func RenderMarkdown(md string, width int) string {
	if !ShouldUseColor() {
		return md
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
