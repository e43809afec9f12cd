// Package orchestrator drives the two-stage soil analysis: classification
// first, then a narrative improvement plan that embeds the label.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/soilmaestro/pkg/formatter"
	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/narrative"
	"go.uber.org/zap"
)

// Classifier returns a soil-health label for a reading payload
type Classifier interface {
	Classify(ctx context.Context, payload models.ClassificationRequest) (string, error)
}

// Narrator returns the raw improvement plan text for a prompt
type Narrator interface {
	Narrate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Orchestrator owns one form instance's submission workflow. Only one
// submission may be in flight; the label and report slot is last-writer-wins.
type Orchestrator struct {
	classifier Classifier
	narrator   Narrator
	format     func(string) string
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time

	mu        sync.Mutex
	snapshot  Snapshot
	observers []func(Snapshot)
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithFormatter sets the narrative formatting function.
// The default escapes HTML before formatting.
func WithFormatter(format func(string) string) Option {
	return func(o *Orchestrator) {
		o.format = format
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger.Named("orchestrator")
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides time.Now for report timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an idle orchestrator
func New(classifier Classifier, narrator Narrator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		narrator:   narrator,
		format:     formatter.FormatEscaped,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe registers fn to be called with every state transition.
// Observers run synchronously on the submitting goroutine.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Snapshot returns the current state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot
}

// Submit validates the reading, classifies it, requests the improvement plan
// and returns the combined report.
//
// A submission while another is in flight is rejected with a busy error and
// issues no network calls. When the narrative call fails the returned report
// is non-nil, carries the label and is marked Partial, alongside a narrative
// error.
func (o *Orchestrator) Submit(ctx context.Context, reading *models.SensorReading) (*models.Report, error) {
	id := uuid.New()
	if !o.begin(id) {
		err := NewBusyError()
		o.metrics.observeOutcome(err)
		o.logger.Debug("submission rejected while busy")
		return nil, err
	}

	start := time.Now()
	report, err := o.run(ctx, id, reading)
	o.finish(report, err)
	o.metrics.observeOutcome(err)

	fields := []zap.Field{
		zap.String("submission_id", id.String()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		o.logger.Warn("submission failed", append(fields, zap.Error(err))...)
	} else {
		o.logger.Info("submission completed", append(fields, zap.String("label", report.Label))...)
	}

	return report, err
}

func (o *Orchestrator) run(ctx context.Context, id uuid.UUID, reading *models.SensorReading) (*models.Report, error) {
	draft := reading.Clone()

	payload, err := draft.Payload()
	if err != nil {
		return nil, NewValidationError("please fill all the fields with numeric values", err)
	}

	o.setPhase(PhaseClassifying, "")
	stageStart := time.Now()
	label, err := o.classifier.Classify(ctx, payload)
	o.metrics.observeStage("classification", stageStart)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewCanceledError(ctx.Err())
		}
		return nil, NewClassificationError(err)
	}
	o.logger.Debug("reading classified",
		zap.String("submission_id", id.String()),
		zap.String("schema", draft.Schema.Name),
		zap.String("label", label))

	report := &models.Report{
		ID:        id,
		Schema:    draft.Schema.Name,
		Label:     label,
		CreatedAt: o.now(),
	}

	o.setPhase(PhaseNarrating, label)
	stageStart = time.Now()
	raw, err := o.narrator.Narrate(ctx, narrative.SystemPrompt, narrative.BuildUserPrompt(label, draft))
	o.metrics.observeStage("narrative", stageStart)
	if err != nil {
		report.Partial = true
		if ctx.Err() != nil {
			return report, NewCanceledError(ctx.Err())
		}
		return report, NewNarrativeError(err)
	}

	// the owner may have been torn down while the narrative was in flight
	if ctx.Err() != nil {
		report.Partial = true
		return report, NewCanceledError(ctx.Err())
	}

	report.RawNarrative = raw
	report.Narrative = o.format(raw)
	return report, nil
}

func (o *Orchestrator) begin(id uuid.UUID) bool {
	o.mu.Lock()
	if o.snapshot.State == StateSubmitting {
		o.mu.Unlock()
		return false
	}
	o.snapshot = Snapshot{SubmissionID: id, State: StateSubmitting}
	snap, observers := o.snapshot, o.observers
	o.mu.Unlock()

	notify(observers, snap)
	return true
}

func (o *Orchestrator) setPhase(phase Phase, label string) {
	o.mu.Lock()
	o.snapshot.Phase = phase
	o.snapshot.Label = label
	snap, observers := o.snapshot, o.observers
	o.mu.Unlock()

	notify(observers, snap)
}

func (o *Orchestrator) finish(report *models.Report, err error) {
	o.mu.Lock()
	o.snapshot.Phase = PhaseNone
	o.snapshot.Report = report
	o.snapshot.Err = err
	if report != nil {
		o.snapshot.Label = report.Label
	}
	if err != nil {
		o.snapshot.State = StateFailed
	} else {
		o.snapshot.State = StateDone
	}
	snap, observers := o.snapshot, o.observers
	o.mu.Unlock()

	notify(observers, snap)
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
