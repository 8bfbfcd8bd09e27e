// Package progress simulates a loading indicator while a summary is being
// generated. The value is cosmetic and does not follow the real request.
package progress

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultInterval = 500 * time.Millisecond

	Step     = 5
	Ceiling  = 95
	Complete = 100
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Ticker is the timer source driving a run.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Simulator is a two-state machine: idle (value 0, no timer) and running
// (timer active, value advancing by Step up to Ceiling). Only Finish moves
// the value to Complete.
type Simulator struct {
	mu        sync.Mutex
	state     State
	value     int
	run       uint64
	cancel    context.CancelFunc
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	onChange  func(int)
}

type Option func(*Simulator)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTicker replaces the wall-clock ticker.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(s *Simulator) {
		if newTicker != nil {
			s.newTicker = newTicker
		}
	}
}

// WithOnChange registers fn to receive every published value in order.
// fn runs with the simulator locked and must not call back into it.
func WithOnChange(fn func(int)) Option {
	return func(s *Simulator) {
		s.onChange = fn
	}
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		interval:  DefaultInterval,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start resets the value to 0 and starts the timer. Calling Start on a
// running simulator abandons the previous run.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.run++
	s.cancel = cancel
	s.state = Running
	s.setLocked(0)

	go s.loop(ctx, s.run, s.newTicker(s.interval))
}

// Finish cancels the timer and publishes Complete.
func (s *Simulator) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.state = Idle
	s.setLocked(Complete)
}

// Reset returns to idle with value 0.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.state = Idle
	s.setLocked(0)
}

func (s *Simulator) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value
}

func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Simulator) loop(ctx context.Context, run uint64, t Ticker) {
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			s.tick(run)
		}
	}
}

func (s *Simulator) tick(run uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running || s.run != run || s.value >= Ceiling {
		return
	}

	s.setLocked(min(s.value+Step, Ceiling))
}

func (s *Simulator) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Simulator) setLocked(v int) {
	s.value = v
	if s.onChange != nil {
		s.onChange(v)
	}
}
