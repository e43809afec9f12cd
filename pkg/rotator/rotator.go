// Package rotator cycles the header slogans on a fixed period.
package rotator

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPeriod is the interval between slogan changes
const DefaultPeriod = 5 * time.Second

var slogans = [...]string{
	"Healthy Soil, Healthy Life.",
	"Nurture the soil, it nurtures you.",
	"AI-driven insights for sustainable farming.",
	"Your soil's story, told through data.",
	"Precision farming starts with soil health.",
}

// Slogans returns a copy of the slogan table
func Slogans() []string {
	out := make([]string, len(slogans))
	copy(out, slogans[:])
	return out
}

// Rotator advances the current slogan index every period
type Rotator struct {
	period   time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}

	mu       sync.RWMutex
	index    int
	started  bool
	stopped  bool
	onChange []func(index int, slogan string)
}

// Option configures a Rotator
type Option func(*Rotator)

// WithPeriod overrides DefaultPeriod. Non-positive values are ignored.
func WithPeriod(d time.Duration) Option {
	return func(r *Rotator) {
		if d > 0 {
			r.period = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Rotator) {
		r.logger = logger.Named("rotator")
	}
}

// New creates a stopped rotator showing the first slogan
func New(opts ...Option) *Rotator {
	r := &Rotator{
		period:   DefaultPeriod,
		logger:   zap.NewNop(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn to be called after every advance
func (r *Rotator) OnChange(fn func(index int, slogan string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// Start begins rotating. Calling Start twice, or after Stop, does nothing.
func (r *Rotator) Start() {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.run()
	r.logger.Debug("slogan rotator started", zap.Duration("period", r.period))
}

// Stop halts rotation and waits for the loop to exit. It is safe to call
// more than once.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	close(r.stopChan)
	r.mu.Unlock()

	if started {
		<-r.done
	}
	r.logger.Debug("slogan rotator stopped")
}

func (r *Rotator) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.advance()
		}
	}
}

func (r *Rotator) advance() {
	r.mu.Lock()
	r.index = (r.index + 1) % len(slogans)
	index, observers := r.index, r.onChange
	r.mu.Unlock()

	for _, fn := range observers {
		fn(index, slogans[index])
	}
}

// Index returns the current slogan index
func (r *Rotator) Index() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// Current returns the slogan currently displayed
func (r *Rotator) Current() string {
	return slogans[r.Index()]
}
