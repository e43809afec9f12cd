package rotator

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSlogans(t *testing.T) {
	s := Slogans()
	if len(s) != 5 {
		t.Fatalf("Expected 5 slogans, got %d", len(s))
	}
	if s[0] != "Healthy Soil, Healthy Life." {
		t.Errorf("Expected first slogan, got %q", s[0])
	}

	s[0] = "mutated"
	if Slogans()[0] == "mutated" {
		t.Error("Expected Slogans to return a copy")
	}
}

func TestRotator_InitialState(t *testing.T) {
	r := New()
	if r.Index() != 0 {
		t.Errorf("Expected index 0, got %d", r.Index())
	}
	if r.Current() != Slogans()[0] {
		t.Errorf("Expected first slogan, got %q", r.Current())
	}
	if r.period != DefaultPeriod {
		t.Errorf("Expected default period %v, got %v", DefaultPeriod, r.period)
	}
}

func TestRotator_AdvanceWraps(t *testing.T) {
	r := New()
	n := len(Slogans())

	for i := 1; i <= n+2; i++ {
		r.advance()
		if r.Index() != i%n {
			t.Errorf("After %d advances expected index %d, got %d", i, i%n, r.Index())
		}
	}
}

func TestRotator_OnChange(t *testing.T) {
	r := New(WithPeriod(5 * time.Millisecond))

	var mu sync.Mutex
	var seen []int
	changed := make(chan struct{}, 16)
	r.OnChange(func(index int, slogan string) {
		if slogan != Slogans()[index] {
			t.Errorf("Expected slogan for index %d, got %q", index, slogan)
		}
		mu.Lock()
		seen = append(seen, index)
		mu.Unlock()
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	r.Start()
	for i := 0; i < 3; i++ {
		select {
		case <-changed:
		case <-time.After(2 * time.Second):
			t.Fatal("Expected slogan change")
		}
	}
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	for i, idx := range seen {
		if idx != (i+1)%len(slogans) {
			t.Errorf("Expected index %d at step %d, got %d", (i+1)%len(slogans), i, idx)
		}
	}
}

func TestRotator_StopIdempotent(t *testing.T) {
	r := New(WithPeriod(time.Millisecond))
	r.Start()
	r.Start()
	r.Stop()
	r.Stop()

	index := r.Index()
	time.Sleep(10 * time.Millisecond)
	if r.Index() != index {
		t.Error("Expected no advances after Stop")
	}
}

func TestRotator_StopWithoutStart(t *testing.T) {
	r := New()
	r.Stop()
	r.Start()
	if r.started {
		t.Error("Expected Start after Stop to be ignored")
	}
}
