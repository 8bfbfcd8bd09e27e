package jobs

import (
	"context"
	"errors"
	"log/slog"
	"papersum/internal/domain"
	"papersum/internal/metrics"
	"papersum/internal/pipeline"
	"papersum/internal/progress"
	"papersum/internal/summarizer"
	"sync"
	"testing"
	"time"
)

type stubPipeline struct {
	gate    chan struct{}
	result  pipeline.Result
	err     error
	mu      sync.Mutex
	running int
	peak    int
}

func (s *stubPipeline) Summarize(
	ctx context.Context,
	_ summarizer.Input,
	tracker pipeline.Tracker,
) (pipeline.Result, error) {
	tracker.Start()
	defer tracker.Finish()

	s.mu.Lock()
	s.running++
	s.peak = max(s.peak, s.running)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}()

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return pipeline.Result{}, ctx.Err()
		}
	}

	return s.result, s.err
}

func testInput() summarizer.Input {
	return summarizer.Input{Text: "paper", Preferences: domain.DefaultPreferences()}
}

func newTestManager(t *testing.T, p Summarizer, cfg Config) *Manager {
	t.Helper()

	m, err := NewManager(context.Background(), p, metrics.New(), slog.Default(), cfg)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	return m
}

func TestManagerCompletesJob(t *testing.T) {
	p := &stubPipeline{
		gate:   make(chan struct{}),
		result: pipeline.Result{Summary: "done", Source: pipeline.SourcePrimary},
	}
	m := newTestManager(t, p, Config{})

	submitted := m.Submit("user-1", testInput())
	if submitted.Status != StatusPending || submitted.ID == "" {
		t.Fatalf("unexpected submitted job: %+v", submitted)
	}

	pending, ok := m.Get(submitted.ID)
	if !ok || pending.Status != StatusPending || pending.Progress > progress.Ceiling {
		t.Fatalf("unexpected pending job: %+v", pending)
	}

	close(p.gate)
	m.Wait()

	got, ok := m.Get(submitted.ID)
	if !ok {
		t.Fatalf("expected job to be stored")
	}
	if got.Status != StatusDone || got.Summary != "done" || got.Source != pipeline.SourcePrimary {
		t.Fatalf("unexpected finished job: %+v", got)
	}
	if got.Progress != progress.Complete || got.FinishedAt == nil {
		t.Fatalf("expected settled progress and finish time: %+v", got)
	}
	if got.Owner != "user-1" {
		t.Fatalf("unexpected owner: %q", got.Owner)
	}
}

func TestManagerRecordsFailure(t *testing.T) {
	p := &stubPipeline{err: errors.New("fallback broke")}
	m := newTestManager(t, p, Config{})

	submitted := m.Submit("user-1", testInput())
	m.Wait()

	got, ok := m.Get(submitted.ID)
	if !ok || got.Status != StatusFailed || got.Error != "fallback broke" {
		t.Fatalf("unexpected failed job: %+v", got)
	}
}

func TestManagerJobsHaveIndependentProgress(t *testing.T) {
	p := &stubPipeline{gate: make(chan struct{})}
	m := newTestManager(t, p, Config{})

	first := m.Submit("a", testInput())
	second := m.Submit("b", testInput())

	close(p.gate)
	m.Wait()

	a, _ := m.Get(first.ID)
	b, _ := m.Get(second.ID)
	if a.ID == b.ID {
		t.Fatalf("expected distinct job ids")
	}
	if a.Progress != progress.Complete || b.Progress != progress.Complete {
		t.Fatalf("expected both jobs to settle: %+v %+v", a, b)
	}
}

func TestManagerLimitsConcurrency(t *testing.T) {
	p := &stubPipeline{gate: make(chan struct{})}
	m := newTestManager(t, p, Config{MaxConcurrent: 1})

	for range 3 {
		m.Submit("user", testInput())
	}

	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	m.Wait()

	if p.peak != 1 {
		t.Fatalf("expected at most one running job, got %d", p.peak)
	}
}

func TestManagerSweepRemovesExpiredJobs(t *testing.T) {
	p := &stubPipeline{}
	m := newTestManager(t, p, Config{TTL: time.Minute})

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	submitted := m.Submit("user", testInput())
	m.Wait()

	if removed := m.Sweep(now.Add(30 * time.Second)); removed != 0 {
		t.Fatalf("expected fresh job to survive sweep, removed %d", removed)
	}
	if removed := m.Sweep(now.Add(2 * time.Minute)); removed != 1 {
		t.Fatalf("expected expired job to be swept, removed %d", removed)
	}
	if _, ok := m.Get(submitted.ID); ok {
		t.Fatalf("expected swept job to be gone")
	}
}

func TestManagerCancelledContextFailsPendingJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &stubPipeline{gate: make(chan struct{})}

	m, err := NewManager(ctx, p, nil, nil, Config{})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}

	submitted := m.Submit("user", testInput())
	cancel()
	m.Wait()

	got, ok := m.Get(submitted.ID)
	if !ok || got.Status != StatusFailed {
		t.Fatalf("expected cancelled job to fail, got %+v", got)
	}
}

func TestNewManagerRequiresPipeline(t *testing.T) {
	if _, err := NewManager(context.Background(), nil, nil, nil, Config{}); err == nil {
		t.Fatalf("expected error without pipeline")
	}
}
