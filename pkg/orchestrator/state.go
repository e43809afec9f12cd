package orchestrator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/soilmaestro/pkg/models"
)

// State is the UI synchronization state of a form instance
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateSubmitting, StateDone, StateFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Phase is the network stage of a submission in progress
type Phase int

const (
	PhaseNone Phase = iota
	PhaseClassifying
	PhaseNarrating
)

func (p Phase) String() string {
	switch p {
	case PhaseClassifying:
		return "awaiting_classification"
	case PhaseNarrating:
		return "awaiting_narrative"
	default:
		return "none"
	}
}

// MarshalText renders the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseNone, PhaseClassifying, PhaseNarrating} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Snapshot is a copy of the orchestrator's single result slot
type Snapshot struct {
	SubmissionID uuid.UUID      `json:"submission_id"`
	State        State          `json:"state"`
	Phase        Phase          `json:"phase"`
	Label        string         `json:"soil_health,omitempty"`
	Report       *models.Report `json:"report,omitempty"`
	Err          error          `json:"-"`
}

// Loading reports whether the submit action should be disabled
func (s Snapshot) Loading() bool {
	return s.State == StateSubmitting
}
