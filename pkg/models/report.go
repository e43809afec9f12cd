package models

import (
	"time"

	"github.com/google/uuid"
)

// FallbackLabel is used when the classification response carries no label
const FallbackLabel = "No data received"

// Report combines the classification label with the formatted narrative
type Report struct {
	ID           uuid.UUID `json:"id"`
	Schema       string    `json:"schema"`
	Label        string    `json:"soil_health"`
	Narrative    string    `json:"narrative,omitempty"`
	RawNarrative string    `json:"raw_narrative,omitempty"`
	Partial      bool      `json:"partial"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasNarrative reports whether the narrative stage produced text
func (r *Report) HasNarrative() bool {
	return r != nil && r.Narrative != ""
}
