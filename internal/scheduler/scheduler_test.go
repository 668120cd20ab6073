package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/recurring-engine/internal/config"
	"github.com/GregMSThompson/recurring-engine/internal/dto"
)

type fakeEngine struct {
	mu       sync.Mutex
	passes   int
	horizons []time.Time
	err      error
	done     chan struct{}
}

func (f *fakeEngine) RunPass(ctx context.Context, horizon time.Time) (dto.GenerationReport, error) {
	f.mu.Lock()
	f.passes++
	f.horizons = append(f.horizons, horizon)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return dto.GenerationReport{}, f.err
}

func (f *fakeEngine) passCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passes
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		HorizonMonths: 3,
		StartupDelay:  10 * time.Millisecond,
		DailySpec:     "0 0 * * *",
		WeeklySpec:    "0 0 * * 0",
	}
}

func TestNewRejectsBadCronSpec(t *testing.T) {
	cfg := testConfig()
	cfg.DailySpec = "not a cron spec"

	if _, err := New(&fakeEngine{}, cfg, discardLogger()); err == nil {
		t.Fatal("expected error for malformed cron spec")
	}
}

func TestStartupKickRunsOnePass(t *testing.T) {
	engine := &fakeEngine{done: make(chan struct{}, 1)}
	s, err := New(engine, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-engine.done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup pass did not fire")
	}

	if got := engine.passCount(); got != 1 {
		t.Fatalf("passes = %d, want 1", got)
	}
	engine.mu.Lock()
	horizon := engine.horizons[0]
	engine.mu.Unlock()
	want := time.Now().UTC().AddDate(0, 3, 0)
	if horizon.Before(want.Add(-time.Minute)) || horizon.After(want.Add(time.Minute)) {
		t.Fatalf("horizon = %s, want about %s", horizon, want)
	}
}

func TestStopBeforeStartupDelayCancelsKick(t *testing.T) {
	engine := &fakeEngine{}
	cfg := testConfig()
	cfg.StartupDelay = time.Hour

	s, err := New(engine, cfg, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	s.Start()
	s.Stop()

	if got := engine.passCount(); got != 0 {
		t.Fatalf("passes = %d, want 0 after early stop", got)
	}
}

func TestEngineFailureDoesNotPanic(t *testing.T) {
	engine := &fakeEngine{err: errors.New("storage unavailable"), done: make(chan struct{}, 1)}
	s, err := New(engine, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-engine.done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup pass did not fire")
	}
}

func TestCronEntriesRegistered(t *testing.T) {
	s, err := New(&fakeEngine{}, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Fatalf("cron entries = %d, want daily and weekly", got)
	}
}
