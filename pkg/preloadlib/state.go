package preloadlib

import (
	"sync"
)

// RequestState tracks every candidate URL through its lifetime:
// unseen -> queued -> inFlight -> done | failed.
//
// A URL belongs to at most one of {queued, inFlight} at a time. Once done it
// is permanently excluded from scheduling; failed URLs are not retried within
// a session. All four sets live behind one mutex so that moving a URL between
// sets is atomic. Keys are exact URL strings, no normalization: a relative
// and an absolute form of the same resource are distinct entries.
//
// One RequestState is owned per Preloader instance. It lives for the session
// and is never persisted.
type RequestState struct {
	queued   map[string]struct{}
	inFlight map[string]struct{}
	done     map[string]struct{}
	failed   map[string]struct{}
	mu       sync.Mutex
}

// NewRequestState creates an empty RequestState.
func NewRequestState() *RequestState {
	return &RequestState{
		queued:   make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
		done:     make(map[string]struct{}),
		failed:   make(map[string]struct{}),
	}
}

// Enqueue marks url as logically scheduled. It is a no-op if the url is
// already queued, in flight, done or failed.
func (rs *RequestState) Enqueue(url string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.knownLocked(url) {
		return
	}
	rs.queued[url] = struct{}{}
}

// knownLocked reports whether url is in any set. Caller must hold mu.
func (rs *RequestState) knownLocked(url string) bool {
	if _, ok := rs.queued[url]; ok {
		return true
	}
	if _, ok := rs.inFlight[url]; ok {
		return true
	}
	if _, ok := rs.done[url]; ok {
		return true
	}
	_, ok := rs.failed[url]
	return ok
}

// BeginFlight transitions url into the inFlight set, removing it from queued
// if present. It reports false when the url must not be dispatched: already
// in flight, already done, or already failed.
func (rs *RequestState) BeginFlight(url string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.done[url]; ok {
		return false
	}
	if _, ok := rs.failed[url]; ok {
		return false
	}
	if _, ok := rs.inFlight[url]; ok {
		return false
	}
	delete(rs.queued, url)
	rs.inFlight[url] = struct{}{}
	return true
}

// EndFlight records the outcome of a completed load, moving url out of
// inFlight into done (success) or failed.
func (rs *RequestState) EndFlight(url string, success bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.inFlight, url)
	if success {
		rs.done[url] = struct{}{}
		return
	}
	rs.failed[url] = struct{}{}
}

// Done reports whether url completed successfully.
func (rs *RequestState) Done(url string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	_, ok := rs.done[url]
	return ok
}

// Failed reports whether url completed with an error this session.
func (rs *RequestState) Failed(url string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	_, ok := rs.failed[url]
	return ok
}

// InFlight reports whether url currently has an active load.
func (rs *RequestState) InFlight(url string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	_, ok := rs.inFlight[url]
	return ok
}

// Dispatchable reports whether url is still eligible for scheduling, i.e.
// not in flight and not terminal.
func (rs *RequestState) Dispatchable(url string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.done[url]; ok {
		return false
	}
	if _, ok := rs.failed[url]; ok {
		return false
	}
	_, ok := rs.inFlight[url]
	return !ok
}

// Stats is a point-in-time snapshot of the request state counters.
type Stats struct {
	Total   int `json:"total"`
	Loaded  int `json:"loaded"`
	Loading int `json:"loading"`
	Failed  int `json:"failed"`
	Queued  int `json:"queued"`
}

// Snapshot returns current counters. total is supplied by the caller since
// the candidate universe is owned by the scheduler, not the state.
func (rs *RequestState) Snapshot(total int) Stats {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return Stats{
		Total:   total,
		Loaded:  len(rs.done),
		Loading: len(rs.inFlight),
		Failed:  len(rs.failed),
		Queued:  len(rs.queued),
	}
}

// InFlightCount returns the number of active loads.
func (rs *RequestState) InFlightCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.inFlight)
}
