// Package jobs runs summarizations in the background so HTTP callers can
// poll for progress. Every job owns its progress simulator.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"papersum/internal/metrics"
	"papersum/internal/pipeline"
	"papersum/internal/progress"
	"papersum/internal/summarizer"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxConcurrent = 4
	DefaultTTL           = time.Hour
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Snapshot is a point-in-time copy of a job.
type Snapshot struct {
	ID         string          `json:"id"`
	Owner      string          `json:"-"`
	Status     Status          `json:"status"`
	Progress   int             `json:"progress"`
	Summary    string          `json:"summary,omitempty"`
	Source     pipeline.Source `json:"source,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// Summarizer is the part of pipeline.Pipeline used by the manager.
type Summarizer interface {
	Summarize(ctx context.Context, input summarizer.Input, tracker pipeline.Tracker) (pipeline.Result, error)
}

type Config struct {
	MaxConcurrent    int
	TTL              time.Duration
	MaxEntries       int
	ProgressInterval time.Duration
}

type Manager struct {
	ctx      context.Context
	pipeline Summarizer
	metrics  *metrics.Metrics
	log      *slog.Logger
	store    *store
	semCh    chan struct{}
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewManager runs jobs under ctx; cancelling it aborts pending jobs.
func NewManager(
	ctx context.Context,
	p Summarizer,
	m *metrics.Metrics,
	log *slog.Logger,
	cfg Config,
) (*Manager, error) {
	if p == nil {
		return nil, errors.New("pipeline is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	return &Manager{
		ctx:      ctx,
		pipeline: p,
		metrics:  m,
		log:      log,
		store:    newStore(cfg.MaxEntries),
		semCh:    make(chan struct{}, cfg.MaxConcurrent),
		ttl:      cfg.TTL,
		interval: cfg.ProgressInterval,
		now:      time.Now,
	}, nil
}

// Submit queues input and returns the pending job immediately.
func (m *Manager) Submit(owner string, input summarizer.Input) Snapshot {
	j := &job{
		id:        uuid.NewString(),
		owner:     owner,
		status:    StatusPending,
		createdAt: m.now(),
		progress:  progress.New(progress.WithInterval(m.interval)),
	}

	m.store.add(j, j.createdAt)
	m.log.InfoContext(m.ctx, "Summary job is submitted",
		"jobID", j.id,
		"owner", owner,
		"textLength", len(input.Text),
		"length", int(input.Preferences.Length),
		"fluency", string(input.Preferences.Fluency))

	m.wg.Add(1)
	go m.run(j, input)

	return j.snapshot()
}

// Get returns the job if it exists and has not expired.
func (m *Manager) Get(id string) (Snapshot, bool) {
	j, ok := m.store.get(id, m.now())
	if !ok {
		return Snapshot{}, false
	}

	return j.snapshot(), true
}

// Sweep removes settled jobs whose TTL has passed.
func (m *Manager) Sweep(now time.Time) int {
	return m.store.sweep(now)
}

// Len reports the number of stored jobs.
func (m *Manager) Len() int {
	return m.store.len()
}

// Wait blocks until every submitted job has settled.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(j *job, input summarizer.Input) {
	defer m.wg.Done()

	select {
	case m.semCh <- struct{}{}:
	case <-m.ctx.Done():
		j.settle(pipeline.Result{}, m.ctx.Err(), m.now(), m.ttl)
		m.log.InfoContext(m.ctx, "Summary job is cancelled",
			"jobID", j.id,
			"error", m.ctx.Err())

		return
	}
	defer func() { <-m.semCh }()

	m.metrics.JobStarted()
	defer m.metrics.JobFinished()

	start := time.Now()
	res, err := m.pipeline.Summarize(m.ctx, input, j.progress)
	j.settle(res, err, m.now(), m.ttl)

	if err != nil {
		m.log.ErrorContext(m.ctx, "Failed to complete summary job",
			"error", err,
			"jobID", j.id,
			"durationSeconds", time.Since(start).Seconds())

		return
	}

	m.log.InfoContext(m.ctx, "Summary job is done",
		"jobID", j.id,
		"source", string(res.Source),
		"summaryLength", len(res.Summary),
		"durationSeconds", time.Since(start).Seconds())
}

type job struct {
	id        string
	owner     string
	createdAt time.Time
	progress  *progress.Simulator

	mu         sync.Mutex
	status     Status
	result     pipeline.Result
	err        error
	finishedAt time.Time
	expiresAt  time.Time
}

func (j *job) settle(res pipeline.Result, err error, now time.Time, ttl time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.status = StatusDone
	if err != nil {
		j.status = StatusFailed
		j.err = err
	}
	j.result = res
	j.finishedAt = now
	j.expiresAt = now.Add(ttl)
}

func (j *job) settled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.status != StatusPending
}

func (j *job) expired(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.status != StatusPending && now.After(j.expiresAt)
}

func (j *job) snapshot() Snapshot {
	value := j.progress.Value()

	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		ID:        j.id,
		Owner:     j.owner,
		Status:    j.status,
		Progress:  value,
		Summary:   j.result.Summary,
		Source:    j.result.Source,
		CreatedAt: j.createdAt,
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	if j.status != StatusPending {
		finished := j.finishedAt
		s.FinishedAt = &finished
		s.Progress = progress.Complete
	}

	return s
}
