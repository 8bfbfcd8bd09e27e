package jobs

import (
	"container/list"
	"sync"
	"time"
)

const DefaultMaxEntries = 1024

// store keeps jobs in recency order. Pending jobs are never evicted.
type store struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

func newStore(maxEntries int) *store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &store{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

func (s *store) get(id string, now time.Time) (*job, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[id]
	if !ok {
		return nil, false
	}

	j, ok := elem.Value.(*job)
	if !ok {
		return nil, false
	}

	if j.expired(now) {
		s.removeElement(elem)

		return nil, false
	}

	s.order.MoveToFront(elem)

	return j, true
}

func (s *store) add(j *job, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[j.id] = s.order.PushFront(j)

	s.evictExpiredLocked(now)
	s.enforceSizeLimitLocked()
}

// sweep drops expired jobs and reports how many were removed.
func (s *store) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.entries)
	s.evictExpiredLocked(now)

	return before - len(s.entries)
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *store) evictExpiredLocked(now time.Time) {
	for elem := s.order.Back(); elem != nil; {
		prev := elem.Prev()
		if j, ok := elem.Value.(*job); ok && j.expired(now) {
			s.removeElement(elem)
		}
		elem = prev
	}
}

func (s *store) enforceSizeLimitLocked() {
	for elem := s.order.Back(); elem != nil && len(s.entries) > s.maxEntries; {
		prev := elem.Prev()
		if j, ok := elem.Value.(*job); ok && j.settled() {
			s.removeElement(elem)
		}
		elem = prev
	}
}

func (s *store) removeElement(elem *list.Element) {
	j, ok := elem.Value.(*job)
	if !ok {
		return
	}

	delete(s.entries, j.id)
	s.order.Remove(elem)
}
