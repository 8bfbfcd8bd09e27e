package summarizer

import (
	"context"
	"papersum/internal/domain"
)

// Input describes the payload for a summary request.
type Input struct {
	// Text contains the full paper text to summarise.
	Text string
	// Preferences controls the target length and the writing style.
	Preferences domain.Preferences
}

// Summarizer produces a single summary for a given input text.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
