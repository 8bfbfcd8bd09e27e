package summarizer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockSummarizeIgnoresInput(t *testing.T) {
	m := NewMock(0)

	a, err := m.Summarize(context.Background(), Input{Text: "first"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := m.Summarize(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != MockSummary || b != MockSummary {
		t.Fatalf("expected the fixed mock summary for every input")
	}
}

func TestMockSummarizeWaitsDelay(t *testing.T) {
	delay := 30 * time.Millisecond
	m := NewMock(delay)

	start := time.Now()
	if _, err := m.Summarize(context.Background(), testInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed < delay {
		t.Fatalf("expected at least %v delay, got %v", delay, elapsed)
	}
}

func TestMockSummarizeHonoursCancellation(t *testing.T) {
	m := NewMock(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Summarize(ctx, testInput()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
