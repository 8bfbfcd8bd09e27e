package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"papersum/internal/metrics"
	"papersum/internal/summarizer"
	"time"
)

type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Tracker is notified when a summarization starts and settles.
type Tracker interface {
	Start()
	Finish()
}

type Result struct {
	Summary string `json:"summary"`
	Source  Source `json:"source"`
}

// Pipeline tries the primary summarizer once and falls back on any error.
type Pipeline struct {
	primary  summarizer.Summarizer
	fallback summarizer.Summarizer
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New builds a pipeline. A nil primary sends every call to the fallback.
func New(
	primary summarizer.Summarizer,
	fallback summarizer.Summarizer,
	m *metrics.Metrics,
	log *slog.Logger,
) (*Pipeline, error) {
	if fallback == nil {
		return nil, errors.New("fallback summarizer is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		primary:  primary,
		fallback: fallback,
		metrics:  m,
		log:      log,
	}, nil
}

// Summarize returns an error only when the fallback fails. tracker may be nil.
func (p *Pipeline) Summarize(
	ctx context.Context,
	input summarizer.Input,
	tracker Tracker,
) (Result, error) {
	if tracker != nil {
		tracker.Start()
		defer tracker.Finish()
	}

	start := time.Now()

	if p.primary != nil {
		summary, err := p.primary.Summarize(ctx, input)
		if err == nil {
			p.metrics.ObserveSummary(string(SourcePrimary), time.Since(start))
			return Result{Summary: summary, Source: SourcePrimary}, nil
		}

		kind := summarizer.FailureKind(err)
		p.metrics.PrimaryFailed(kind)
		p.log.WarnContext(ctx, "Failed to generate summary so fallback will be used",
			"error", err,
			"failureKind", kind,
			"textLength", len(input.Text),
			"length", int(input.Preferences.Length),
			"fluency", string(input.Preferences.Fluency))
	}

	summary, err := p.fallback.Summarize(ctx, input)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to generate fallback summary",
			"error", err,
			"textLength", len(input.Text))

		return Result{}, fmt.Errorf("fallback summarize: %w", err)
	}

	p.metrics.ObserveSummary(string(SourceFallback), time.Since(start))

	return Result{Summary: summary, Source: SourceFallback}, nil
}
