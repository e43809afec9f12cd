// Package formatter turns the loosely structured markdown returned by the
// narrative service into a display fragment.
//
// Format does not escape its input. Text from the narrative service is
// untrusted, so anything rendered as HTML must go through FormatEscaped.
package formatter

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingPattern  = regexp.MustCompile(`(?m)^#+[ \t]*`)
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern   = regexp.MustCompile(`\*(.*?)\*`)
	numberedPattern = regexp.MustCompile(`\d+\.\s`)

	// named entities only: numeric ones would contain '#'
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
)

// Markup defines how emphasis and paragraph breaks are written
type Markup struct {
	Name  string
	Bold  func(s string) string
	Break string
}

// HTMLMarkup emits <strong> spans and <br><br> paragraph breaks
var HTMLMarkup = Markup{
	Name:  "html",
	Bold:  func(s string) string { return "<strong>" + s + "</strong>" },
	Break: "<br><br>",
}

// PlainMarkup drops emphasis and uses blank lines as paragraph breaks
var PlainMarkup = Markup{
	Name:  "plain",
	Bold:  func(s string) string { return s },
	Break: "\n\n",
}

// TerminalMarkup renders emphasis with ANSI bold
var TerminalMarkup = Markup{
	Name: "terminal",
	Bold: func(s string) string {
		return lipgloss.NewStyle().Bold(true).Render(s)
	},
	Break: "\n\n",
}

// Formatter applies the narrative transformation rules with a given markup
type Formatter struct {
	markup Markup
}

// New creates a formatter for the given markup
func New(markup Markup) *Formatter {
	if markup.Bold == nil {
		markup.Bold = PlainMarkup.Bold
	}
	return &Formatter{markup: markup}
}

// Format applies the rules in order: strip headings, bold spans, drop italic
// markers, dash bullets, numbered prefixes. The order is significant.
func (f *Formatter) Format(text string) string {
	out := headingPattern.ReplaceAllString(text, "")
	out = strings.ReplaceAll(out, "#", "")
	out = boldPattern.ReplaceAllStringFunc(out, func(m string) string {
		return f.markup.Bold(m[2 : len(m)-2])
	})
	out = italicPattern.ReplaceAllString(out, "${1}")
	out = strings.ReplaceAll(out, "- ", "• ")
	out = numberedPattern.ReplaceAllLiteralString(out, f.markup.Break)
	return out
}

// FormatEscaped HTML-escapes text before formatting it
func (f *Formatter) FormatEscaped(text string) string {
	return f.Format(htmlEscaper.Replace(text))
}

var defaultFormatter = New(HTMLMarkup)

// Format formats text with HTML markup
func Format(text string) string {
	return defaultFormatter.Format(text)
}

// FormatEscaped escapes and formats text with HTML markup
func FormatEscaped(text string) string {
	return defaultFormatter.FormatEscaped(text)
}

// ForName returns the markup registered under name
func ForName(name string) (Markup, bool) {
	switch name {
	case HTMLMarkup.Name:
		return HTMLMarkup, true
	case PlainMarkup.Name:
		return PlainMarkup, true
	case TerminalMarkup.Name:
		return TerminalMarkup, true
	}
	return Markup{}, false
}
