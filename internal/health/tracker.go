package health

import (
	"sync"
	"time"
)

// record holds the failure history for one provider. In single-timestamp
// mode only lastFailure is used; in threshold mode failures holds the
// timestamps still inside the window, oldest first.
type record struct {
	mutex       sync.Mutex
	lastFailure time.Time
	hasFailure  bool
	failures    []time.Time
}

// Status is a point-in-time view of one provider's health state.
type Status struct {
	Healthy        bool       `json:"healthy"`
	RecentFailures int        `json:"recent_failures"`
	LastFailure    *time.Time `json:"last_failure,omitempty"`
}

// Tracker decides whether providers are eligible for selection based on
// their recent failures. With threshold 0 a provider is unhealthy for the
// full window after any failure; with threshold >= 1 it is unhealthy only
// while that many failures sit inside the trailing window.
type Tracker struct {
	mutex     sync.RWMutex
	records   map[string]*record
	window    time.Duration
	threshold int
	nowFunc   func() time.Time
}

func NewTracker(window time.Duration, threshold int) *Tracker {
	return &Tracker{
		records:   make(map[string]*record),
		window:    window,
		threshold: threshold,
		nowFunc:   time.Now,
	}
}

// SetNowFunc overrides the time source (for testing).
func (t *Tracker) SetNowFunc(fn func() time.Time) {
	t.mutex.Lock()
	t.nowFunc = fn
	t.mutex.Unlock()
}

func (t *Tracker) now() time.Time {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.nowFunc()
}

// getRecord returns the provider's record, creating it on first touch.
func (t *Tracker) getRecord(name string) *record {
	t.mutex.RLock()
	rec, exists := t.records[name]
	t.mutex.RUnlock()

	if exists {
		return rec
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if rec, exists = t.records[name]; exists {
		return rec
	}

	rec = &record{}
	t.records[name] = rec
	return rec
}

// IsHealthy reports whether the provider is currently eligible for
// selection. It never mutates failure history.
func (t *Tracker) IsHealthy(name string) bool {
	return t.Stats(name).Healthy
}

// RecordFailure notes a failure for the provider at the current time.
func (t *Tracker) RecordFailure(name string) {
	now := t.now()
	rec := t.getRecord(name)

	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	rec.lastFailure = now
	rec.hasFailure = true

	if t.threshold >= 1 {
		rec.failures = append(rec.failures, now)
		rec.prune(now, t.window)
	}
}

// Stats returns the provider's current health status. Unknown providers
// are healthy with no failures.
func (t *Tracker) Stats(name string) Status {
	now := t.now()

	t.mutex.RLock()
	rec, exists := t.records[name]
	t.mutex.RUnlock()

	if !exists {
		return Status{Healthy: true}
	}

	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	s := Status{}
	if rec.hasFailure {
		lf := rec.lastFailure
		s.LastFailure = &lf
	}

	if t.threshold >= 1 {
		s.RecentFailures = rec.countRecent(now, t.window)
		s.Healthy = s.RecentFailures < t.threshold
		return s
	}

	if rec.hasFailure && now.Sub(rec.lastFailure) < t.window {
		s.RecentFailures = 1
		s.Healthy = false
		return s
	}

	s.Healthy = true
	return s
}

// Prune discards failure timestamps that have aged out of the window so an
// idle provider's record does not grow stale entries. IsHealthy is correct
// without it; this only bounds memory.
func (t *Tracker) Prune() {
	now := t.now()

	t.mutex.RLock()
	records := make([]*record, 0, len(t.records))
	for _, rec := range t.records {
		records = append(records, rec)
	}
	t.mutex.RUnlock()

	for _, rec := range records {
		rec.mutex.Lock()
		rec.prune(now, t.window)
		rec.mutex.Unlock()
	}
}

// prune drops timestamps older than the window. Caller holds rec.mutex.
func (r *record) prune(now time.Time, window time.Duration) {
	cutoff := 0
	for cutoff < len(r.failures) && now.Sub(r.failures[cutoff]) >= window {
		cutoff++
	}
	if cutoff > 0 {
		r.failures = r.failures[cutoff:]
	}
}

// countRecent counts timestamps still inside the window. Caller holds
// rec.mutex.
func (r *record) countRecent(now time.Time, window time.Duration) int {
	count := 0
	for _, ts := range r.failures {
		if now.Sub(ts) < window {
			count++
		}
	}
	return count
}
