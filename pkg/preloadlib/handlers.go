package preloadlib

type (
	// LoadStartHandlerFunc is called when a URL transitions into flight.
	LoadStartHandlerFunc func(url string)
	// LoadCompleteHandlerFunc is called when a URL finishes loading
	// successfully.
	LoadCompleteHandlerFunc func(url string)
	// LoadErrorHandlerFunc is called when a URL finishes loading with an
	// error. The error never propagates further; it is reported here and
	// recorded in the failed set.
	LoadErrorHandlerFunc func(url string, err error)
	// SlideDrainedHandlerFunc is called by the background drain after a
	// slide's image set has settled.
	SlideDrainedHandlerFunc func(slide int)
	// DrainCompleteHandlerFunc is called once when the background drain
	// has walked the whole deck.
	DrainCompleteHandlerFunc func()
	// BurstHandlerFunc is called at the start of each priority burst with
	// the window it covers and the number of URLs it will dispatch.
	BurstHandlerFunc func(w Window, dispatch int)
)

// Handlers carries the event callbacks triggered while preloading.
// Any nil field is replaced by a no-op.
type Handlers struct {
	LoadStartHandler     LoadStartHandlerFunc
	LoadCompleteHandler  LoadCompleteHandlerFunc
	LoadErrorHandler     LoadErrorHandlerFunc
	SlideDrainedHandler  SlideDrainedHandlerFunc
	DrainCompleteHandler DrainCompleteHandlerFunc
	BurstHandler         BurstHandlerFunc
}

func (h *Handlers) setDefault() {
	if h.LoadStartHandler == nil {
		h.LoadStartHandler = func(url string) {}
	}
	if h.LoadCompleteHandler == nil {
		h.LoadCompleteHandler = func(url string) {}
	}
	if h.LoadErrorHandler == nil {
		h.LoadErrorHandler = func(url string, err error) {}
	}
	if h.SlideDrainedHandler == nil {
		h.SlideDrainedHandler = func(slide int) {}
	}
	if h.DrainCompleteHandler == nil {
		h.DrainCompleteHandler = func() {}
	}
	if h.BurstHandler == nil {
		h.BurstHandler = func(w Window, dispatch int) {}
	}
}
