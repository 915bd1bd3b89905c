package match

import (
	"sync"

	"github.com/richxcame/matchengine/internal/domain"
)

// backoffEntry tracks one customer's unsuccessful attempts, grounded in
// original_source/DA.cpp's dispatch-alarm retry bookkeeping (SPEC_FULL §10).
type backoffEntry struct {
	customer domain.Customer
	attempts int
	nextAt   domain.SimTime
}

// backoffQueue holds customers who missed a tick (no feasible vehicle, or
// an out-of-sync commit rejection) until they are eligible for another
// attempt, bounded by maxRetries (spec.md §4.3 step 3).
type backoffQueue struct {
	mu         sync.Mutex
	maxRetries int
	entries    map[domain.CustomerID]*backoffEntry
}

func newBackoffQueue(maxRetries int) *backoffQueue {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &backoffQueue{
		maxRetries: maxRetries,
		entries:    make(map[domain.CustomerID]*backoffEntry),
	}
}

// drainReady removes and returns every entry whose back-off has elapsed,
// rejoining this tick's batch (spec.md §4.3: "remain eligible for the next
// tick").
func (q *backoffQueue) drainReady(now domain.SimTime) []domain.Customer {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []domain.Customer
	for id, e := range q.entries {
		if e.nextAt <= now {
			ready = append(ready, e.customer)
			delete(q.entries, id)
		}
	}
	return ready
}

// retry records a failed attempt for c and schedules its next eligibility.
// Returns refused=true once attempts reaches maxRetries, at which point the
// entry is dropped rather than rescheduled.
func (q *backoffQueue) retry(c domain.Customer, now, delay domain.SimTime) (refused bool, attempts int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[c.ID]
	if !ok {
		e = &backoffEntry{customer: c}
		q.entries[c.ID] = e
	}
	e.attempts++
	if e.attempts >= q.maxRetries {
		delete(q.entries, c.ID)
		return true, e.attempts
	}
	e.nextAt = now.Add(delay)
	return false, e.attempts
}

// remove drops any outstanding back-off entry for id (e.g. it was matched
// via a path that bypassed the back-off queue).
func (q *backoffQueue) remove(id domain.CustomerID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, id)
}

// len reports the number of customers currently waiting in back-off.
func (q *backoffQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
