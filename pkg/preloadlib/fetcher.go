package preloadlib

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Outcome is the result of one Fetch call. Fetch never returns a Go error:
// a failed image must never abort a batch of sibling preloads, so failures
// travel as a value.
type Outcome int

const (
	// OutcomeHit means the URL was already loaded; no network action taken.
	OutcomeHit Outcome = iota
	// OutcomeLoaded means the load completed over the network.
	OutcomeLoaded
	// OutcomeFailed means the load completed with an error (recorded in
	// the failed set; not retried this session).
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeLoaded:
		return "loaded"
	default:
		return "failed"
	}
}

// Success reports whether the URL ended up loaded.
func (o Outcome) Success() bool { return o != OutcomeFailed }

// Fetcher is the de-duplicating fetch primitive over a shared RequestState.
// Concurrent Fetch calls for the same URL collapse into one underlying load
// (single-flight); a URL already done resolves immediately, and a URL that
// failed earlier in the session resolves Failed without a new attempt.
type Fetcher struct {
	loader Loader
	state  *RequestState
	group  singleflight.Group
	// failures keeps the load error per failed URL for diagnostics.
	failures VMap[string, error]
	handlers *Handlers
}

// NewFetcher creates a Fetcher dispatching through loader with state shared
// across all scheduling duties. handlers may be nil.
func NewFetcher(loader Loader, state *RequestState, handlers *Handlers) *Fetcher {
	if state == nil {
		state = NewRequestState()
	}
	if handlers == nil {
		handlers = &Handlers{}
	}
	handlers.setDefault()
	return &Fetcher{
		loader:   loader,
		state:    state,
		failures: NewVMap[string, error](),
		handlers: handlers,
	}
}

// State returns the shared request state.
func (f *Fetcher) State() *RequestState { return f.state }

// FailureReason returns the recorded load error for a failed URL.
func (f *Fetcher) FailureReason(url string) (error, bool) {
	return f.failures.Get(url)
}

// Fetch loads url, de-duplicated against concurrent and past calls.
//
// The done/failed checks and the in-flight claim happen inside the
// single-flight group so that two racing callers observe one network call
// and the same outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string) Outcome {
	if f.state.Done(url) {
		return OutcomeHit
	}
	if f.state.Failed(url) {
		return OutcomeFailed
	}
	v, _, _ := f.group.Do(url, func() (interface{}, error) {
		// Re-check under the group: a sibling flight may have settled
		// between the fast path and here.
		if f.state.Done(url) {
			return OutcomeHit, nil
		}
		if f.state.Failed(url) {
			return OutcomeFailed, nil
		}
		if !f.state.BeginFlight(url) {
			// Claimed by a flight outside this group instance;
			// treat as settled rather than double-dispatching.
			if f.state.Done(url) {
				return OutcomeHit, nil
			}
			return OutcomeFailed, nil
		}
		f.handlers.LoadStartHandler(url)
		err := f.loader.Load(ctx, url)
		f.state.EndFlight(url, err == nil)
		if err != nil {
			f.failures.Set(url, err)
			f.handlers.LoadErrorHandler(url, err)
			return OutcomeFailed, nil
		}
		f.handlers.LoadCompleteHandler(url)
		return OutcomeLoaded, nil
	})
	return v.(Outcome)
}
