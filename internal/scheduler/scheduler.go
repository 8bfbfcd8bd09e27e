package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSweepSpec      = "@every 1m"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	spec     string
	sweepers []Sweeper
	log      *slog.Logger
}

func New(ctx context.Context, spec string, log *slog.Logger, sweepers ...Sweeper) *Scheduler {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if log == nil {
		log = slog.Default()
	}

	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:      ctx,
		cron:     c,
		spec:     spec,
		sweepers: sweepers,
		log:      log,
	}
}

func (s *Scheduler) Spec() string {
	return s.spec
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running sweep to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	select {
	case <-s.ctx.Done():
		s.log.InfoContext(s.ctx, "Scheduler context is done",
			"error", s.ctx.Err())
		return
	default:
	}

	now := time.Now()
	removed := 0
	for _, sweeper := range s.sweepers {
		removed += sweeper.Sweep(now)
	}

	if removed > 0 {
		s.log.InfoContext(s.ctx, "Expired entries are swept",
			"removedCount", removed,
			"sweeperCount", len(s.sweepers))
	}
}
