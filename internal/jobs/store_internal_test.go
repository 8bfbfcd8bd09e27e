package jobs

import (
	"papersum/internal/progress"
	"testing"
	"time"
)

func settledJob(id string, expiresAt time.Time) *job {
	return &job{
		id:        id,
		status:    StatusDone,
		expiresAt: expiresAt,
		progress:  progress.New(),
	}
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := newStore(2)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	expiresAt := now.Add(time.Hour)

	s.add(settledJob("a", expiresAt), now)
	s.add(settledJob("b", expiresAt), now)

	if _, ok := s.get("a", now); !ok {
		t.Fatalf("expected job a to exist before eviction check")
	}

	s.add(settledJob("c", expiresAt), now)

	if _, ok := s.get("a", now); !ok {
		t.Fatalf("expected job a to remain after evicting least recently used")
	}
	if _, ok := s.get("b", now); ok {
		t.Fatalf("expected job b to be evicted")
	}
}

func TestStoreKeepsPendingJobs(t *testing.T) {
	s := newStore(1)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	s.add(&job{id: "pending", status: StatusPending, progress: progress.New()}, now)
	s.add(settledJob("done", now.Add(time.Hour)), now)

	if _, ok := s.get("pending", now.Add(24*time.Hour)); !ok {
		t.Fatalf("expected pending job to survive eviction and expiry")
	}
}

func TestStoreExpiresEntries(t *testing.T) {
	s := newStore(2)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s.add(settledJob("a", now.Add(time.Minute)), now)

	if _, ok := s.get("a", now.Add(2*time.Minute)); ok {
		t.Fatalf("expected job to expire")
	}
	if len(s.entries) != 0 {
		t.Fatalf("expected expired job to be removed")
	}
}
