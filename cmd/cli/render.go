package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/sguter90/soilmaestro/pkg/formatter"
)

const (
	renderGlamour  = "glamour"
	defaultRender  = "terminal"
	renderModeHelp = "narrative rendering: terminal, plain, glamour or html"
)

// narrativeFormatter resolves a --render value. Every mode applies the
// formatter rules; "glamour" additionally wraps and styles the formatted
// plain text for the terminal.
func narrativeFormatter(render string, width int) (func(string) string, error) {
	if render == renderGlamour {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		plain := formatter.New(formatter.PlainMarkup)
		return func(raw string) string {
			formatted := plain.Format(raw)
			out, err := renderer.Render(formatted)
			if err != nil {
				return formatted
			}
			return out
		}, nil
	}

	if render == formatter.HTMLMarkup.Name {
		return formatter.FormatEscaped, nil
	}
	markup, ok := formatter.ForName(render)
	if !ok {
		return nil, fmt.Errorf("unknown render mode %q (want terminal, plain, glamour or html)", render)
	}
	return formatter.New(markup).Format, nil
}
