package preloadlib

import (
	"runtime/debug"
	"sync"

	"github.com/troshab/deckpreload/pkg/logger"
)

// safeGo runs fn in a goroutine with panic recovery.
// If wg is non-nil, it's decremented on completion (normal or panic).
// If l is non-nil, panics are logged with stack traces. A panicking
// scheduling duty must never take down the embedding application.
func safeGo(l logger.Logger, wg *sync.WaitGroup, context string, fn func()) {
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		defer func() {
			if r := recover(); r != nil {
				if l != nil {
					l.Error("PANIC [%s]: %v\n%s", context, r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}
