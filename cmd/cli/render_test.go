package main

import (
	"strings"
	"testing"
)

func TestNarrativeFormatter(t *testing.T) {
	raw := "## Tip\n**Water** more. - Mulch\n1. Rotate crops"

	testCases := []struct {
		render   string
		contains string
	}{
		{"html", "<strong>Water</strong>"},
		{"plain", "Water more. • Mulch"},
		{"terminal", "Mulch"},
		{"glamour", "Water"},
	}

	for _, tc := range testCases {
		t.Run(tc.render, func(t *testing.T) {
			format, err := narrativeFormatter(tc.render, 80)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got := format(raw); !strings.Contains(got, tc.contains) {
				t.Errorf("Expected %q in output, got %q", tc.contains, got)
			}
		})
	}
}

func TestNarrativeFormatter_DefaultAppliesRules(t *testing.T) {
	format, err := narrativeFormatter(defaultRender, 80)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := format("## Tip\n**Water** more. - Mulch\n1. Rotate crops")

	if !strings.Contains(got, "• Mulch") {
		t.Errorf("Expected dash bullet to become a bullet, got %q", got)
	}
	if strings.Contains(got, "1.") || strings.Contains(got, "#") {
		t.Errorf("Expected heading and numbering to be removed, got %q", got)
	}
	if !strings.Contains(got, "\n\n\nRotate crops") {
		t.Errorf("Expected numbered item to become a paragraph break, got %q", got)
	}
}

func TestNarrativeFormatter_GlamourFormatsFirst(t *testing.T) {
	format, err := narrativeFormatter(renderGlamour, 80)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := format("Mix compost - Mulch\n1. Rotate crops")

	if !strings.Contains(got, "•") {
		t.Errorf("Expected bullet in rendered output, got %q", got)
	}
	if strings.Contains(got, "1.") {
		t.Errorf("Expected numbering to be removed before rendering, got %q", got)
	}
}

func TestNarrativeFormatter_HTMLEscapes(t *testing.T) {
	format, err := narrativeFormatter("html", 80)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := format("<b>x</b>"); strings.Contains(got, "<b>") {
		t.Errorf("Expected markup to be escaped, got %q", got)
	}
}

func TestNarrativeFormatter_Unknown(t *testing.T) {
	if _, err := narrativeFormatter("rtf", 80); err == nil {
		t.Error("Expected error for unknown render mode")
	}
}

func TestFormFieldOrder(t *testing.T) {
	order := formFieldOrder()
	if len(order) != 10 {
		t.Fatalf("Expected 10 fields, got %d", len(order))
	}
	if order[0] != "moisture" || order[9] != "contamination" {
		t.Errorf("Expected full schema first and contamination last, got %v", order)
	}
}
