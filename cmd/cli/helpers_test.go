package main

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"go.uber.org/zap/zaptest"
)

// stubClassifier implements orchestrator.Classifier for testing
type stubClassifier struct {
	label   string
	err     error
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func (s *stubClassifier) Classify(ctx context.Context, payload models.ClassificationRequest) (string, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return "", s.err
	}
	return s.label, nil
}

// stubNarrator implements orchestrator.Narrator for testing
type stubNarrator struct {
	text  string
	err   error
	calls atomic.Int32
}

func (s *stubNarrator) Narrate(ctx context.Context, system, user string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func testFactory(t *testing.T, c orchestrator.Classifier, n orchestrator.Narrator) func() *orchestrator.Orchestrator {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return func() *orchestrator.Orchestrator {
		return orchestrator.New(c, n, orchestrator.WithLogger(logger))
	}
}

func validTestReading() *models.SensorReading {
	r := models.NewSensorReading(models.SchemaFull)
	for _, name := range models.SchemaFull.FieldNames() {
		r.Values[name] = "12"
	}
	return r
}
