package preloadlib

import (
	"context"
	"time"
)

// Yielder is the cooperative yield point used by the background drain: it
// returns control to the scheduler after an unspecified pause so that
// low-priority work never monopolizes resources. Implementations must honor
// context cancellation.
type Yielder interface {
	Yield(ctx context.Context) error
}

// TimerYielder pauses for a fixed short delay. It is the fallback yield
// mechanism when no idle signal is available.
type TimerYielder struct {
	Pause time.Duration
}

// Yield sleeps for the configured pause (DEF_SLIDE_PAUSE when zero) or until
// ctx is cancelled.
func (y TimerYielder) Yield(ctx context.Context) error {
	pause := y.Pause
	if pause <= 0 {
		pause = DEF_SLIDE_PAUSE
	}
	t := time.NewTimer(pause)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IdleYielder waits for a tick on an externally driven idle channel, falling
// back to a timer so the drain cannot stall when the embedding environment
// stops signaling idleness.
type IdleYielder struct {
	// Idle receives a signal whenever the host has spare capacity.
	Idle <-chan struct{}
	// Fallback bounds the wait for an idle signal. Defaults to 100ms.
	Fallback time.Duration
}

// Yield returns on the first of: an idle signal, the fallback timer, or
// context cancellation.
func (y IdleYielder) Yield(ctx context.Context) error {
	fallback := y.Fallback
	if fallback <= 0 {
		fallback = 100 * time.Millisecond
	}
	t := time.NewTimer(fallback)
	defer t.Stop()
	select {
	case <-y.Idle:
		return nil
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// nopYielder yields immediately; used in tests.
type nopYielder struct{}

func (nopYielder) Yield(ctx context.Context) error { return ctx.Err() }
