package preloadlib

import (
	"context"
	"net/http"
	"reflect"
	"sync"

	"github.com/troshab/deckpreload/pkg/logger"
)

// PreloaderOpts carries the optional collaborators of a Preloader.
type PreloaderOpts struct {
	// Loader overrides the default scheme router. Mostly used by tests.
	Loader Loader
	// Client is the HTTP client for image fetches. Built from the config
	// proxy settings when nil.
	Client *http.Client
	// Store is the image cache. Nil disables cache persistence; fetched
	// bodies are drained and discarded (the transfer itself is the warmup).
	Store *CacheStore
	// Handlers receive preload lifecycle events.
	Handlers *Handlers
	// Logger defaults to a NopLogger.
	Logger logger.Logger
	// Yielder is the cooperative yield point between drained slides.
	// Defaults to a TimerYielder with the configured slide pause.
	Yielder Yielder
}

// Preloader is the scheduling engine. It owns the per-slide URL index, the
// shared request state and the three scheduling duties: the priority burst,
// the background drain and reactive re-prioritization on navigation.
//
// One Preloader serves one presentation session. Nothing is ever cancelled
// mid-flight by navigation; later duties only add work, and the fetcher's
// single-flight guarantee keeps overlapping duties from duplicating loads.
type Preloader struct {
	host    Host
	cfg     Config
	anchor  AnchorMode
	fetcher *Fetcher
	log     logger.Logger
	yielder Yielder

	// index entry i is the deduplicated URL list extracted from slide i.
	// Built once at Start, immutable after.
	index [][]string
	total int

	started bool
	unsub   func()
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	manualMu   sync.Mutex
	lastManual []string
}

// NewPreloader validates the host and configuration and assembles the
// engine. It performs no extraction and no network activity; call Start.
//
// A nil host is fatal to the preloader but must not be fatal to the caller:
// the error is returned for logging and the viewer stays fully functional
// without preloading.
func NewPreloader(host Host, cfg Config, opts *PreloaderOpts) (p *Preloader, err error) {
	if opts == nil {
		opts = &PreloaderOpts{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if host == nil {
		opts.Logger.Error("preload: presentation host unavailable, disabling")
		return nil, ErrHostUnavailable
	}
	cfg = cfg.withDefaults()
	anchor, err := ParseAnchorMode(cfg.Anchor)
	if err != nil {
		return nil, err
	}
	ldr := opts.Loader
	if ldr == nil {
		client := opts.Client
		if client == nil {
			client, err = NewHTTPClient(cfg.Proxy)
			if err != nil {
				return nil, err
			}
		}
		ldr = NewSchemeRouter(client, opts.Store)
	}
	if opts.Yielder == nil {
		opts.Yielder = TimerYielder{Pause: cfg.SlidePause}
	}
	p = &Preloader{
		host:    host,
		cfg:     cfg,
		anchor:  anchor,
		fetcher: NewFetcher(ldr, NewRequestState(), opts.Handlers),
		log:     opts.Logger,
		yielder: opts.Yielder,
	}
	return p, nil
}

// Enabled reports whether the engine is active per configuration.
func (p *Preloader) Enabled() bool { return p.cfg.IsEnabled() }

// Start builds the slide image index, fires the startup priority burst,
// begins the background drain and subscribes to navigation. It returns
// once scheduling is underway; use Wait to block until the deck is fully
// drained.
//
// With Enabled=false the engine is inert: no extraction, no fetches.
func (p *Preloader) Start(ctx context.Context) error {
	if p.started {
		return ErrAlreadyStarted
	}
	if !p.cfg.IsEnabled() {
		p.log.Info("preload: disabled by configuration")
		return nil
	}
	slides := p.host.Slides()
	if len(slides) == 0 {
		return ErrEmptyDeck
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.index = BuildIndex(slides)
	p.total = p.countCandidates()
	p.log.Info("preload: indexed %d candidate urls across %d slides", p.total, len(slides))

	pos := p.normalize(p.host.Current())
	w := PriorityWindow(pos, p.cfg.Lookahead, len(p.index), p.anchor)

	// Startup burst covers the initial window plus any force-added URLs.
	burstURLs := append(w.URLs(p.index), p.cfg.URLs...)

	p.unsub = p.host.Subscribe(p.onNavigate)

	p.wg.Add(1)
	safeGo(p.log, &p.wg, "startup", func() {
		p.burst(p.ctx, w, burstURLs)
		p.drain(p.ctx, w)
	})
	return nil
}

// Stop unsubscribes from navigation and cancels pending scheduling. Loads
// already dispatched run to completion; there is no mechanism to abort an
// in-flight image fetch.
func (p *Preloader) Stop() {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
	if p.cancel != nil {
		p.cancel()
	}
}

// Wait blocks until all currently live scheduling duties have settled.
func (p *Preloader) Wait() {
	p.wg.Wait()
}

// Index returns a copy of the per-slide URL index.
func (p *Preloader) Index() [][]string {
	out := make([][]string, len(p.index))
	for i, urls := range p.index {
		out[i] = append([]string(nil), urls...)
	}
	return out
}

// Stats returns a snapshot of the request-state counters over the candidate
// universe (indexed URLs plus force-added ones).
func (p *Preloader) Stats() Stats {
	return p.fetcher.State().Snapshot(p.total)
}

// Fetcher exposes the fetch primitive, shared with the manual preload entry
// point and any out-of-band caller.
func (p *Preloader) Fetcher() *Fetcher { return p.fetcher }

// FailedURLs returns the URLs that failed this session with their reasons.
func (p *Preloader) FailedURLs() map[string]error {
	out := make(map[string]error)
	p.fetcher.failures.Range(func(url string, err error) bool {
		out[url] = err
		return true
	})
	return out
}

// PreloadURLs is the manual preload entry point: every URL in urls is
// fetched in parallel immediately, bypassing window priorities. Calling it
// again with a deep-equal identical list is a no-op; a changed list
// re-dispatches (already-done URLs resolve as hits).
func (p *Preloader) PreloadURLs(ctx context.Context, urls []string) {
	if !p.cfg.IsEnabled() {
		return
	}
	p.manualMu.Lock()
	if reflect.DeepEqual(urls, p.lastManual) {
		p.manualMu.Unlock()
		return
	}
	p.lastManual = append([]string(nil), urls...)
	p.manualMu.Unlock()

	for _, u := range urls {
		p.fetcher.State().Enqueue(u)
	}
	var wg sync.WaitGroup
	for _, u := range urls {
		u := u
		wg.Add(1)
		safeGo(p.log, &wg, "manual", func() {
			p.fetcher.Fetch(ctx, u)
		})
	}
	wg.Wait()
}

// onNavigate is the navigation subscription callback. The window and the
// candidate list are computed synchronously on the callback so that the
// decision reflects the state at the instant of navigation; the dispatch
// itself runs in a panic-safe goroutine. Bursty navigation simply stacks
// overlapping dispatches, de-duplicated by the fetcher.
func (p *Preloader) onNavigate(current int) {
	pos := p.normalize(current)
	w := PriorityWindow(pos, p.cfg.Lookahead, len(p.index), p.anchor)
	urls := w.URLs(p.index)
	p.wg.Add(1)
	safeGo(p.log, &p.wg, "navigate", func() {
		p.burst(p.ctx, w, urls)
	})
}

// burst dispatches urls in strictly sequential batches of Concurrency.
// Within a batch every fetch is issued before any is awaited; the next
// batch starts only after the whole batch settles, bounding peak concurrent
// connections.
func (p *Preloader) burst(ctx context.Context, w Window, urls []string) {
	urls = p.dispatchable(urls)
	p.fetcher.handlers.BurstHandler(w, len(urls))
	p.dispatchBatches(ctx, urls, p.cfg.Concurrency)
}

// drain walks the rest of the deck once: forward from the end of the
// startup window to the last slide, then backward from the start of the
// window to the first, loading each slide's set and yielding between
// slides. Done, in-flight and failed URLs are never re-dispatched.
func (p *Preloader) drain(ctx context.Context, w Window) {
	order := make([]int, 0, len(p.index))
	for i := w.To + 1; i < len(p.index); i++ {
		order = append(order, i)
	}
	for i := w.From - 1; i >= 0; i-- {
		order = append(order, i)
	}
	for _, slide := range order {
		if ctx.Err() != nil {
			return
		}
		p.dispatchBatches(ctx, p.dispatchable(p.index[slide]), p.cfg.BackgroundConcurrency)
		p.fetcher.handlers.SlideDrainedHandler(slide)
		if err := p.yielder.Yield(ctx); err != nil {
			return
		}
	}
	p.fetcher.handlers.DrainCompleteHandler()
	p.log.Info("preload: background drain complete")
}

// dispatchBatches issues urls in sequential parallel batches of size
// batchSize. Every url is enqueued up front, so the pending tail of a burst
// is visible in the stats; BeginFlight moves each one out of queued as its
// batch claims it.
func (p *Preloader) dispatchBatches(ctx context.Context, urls []string, batchSize int) {
	if batchSize <= 0 {
		batchSize = 1
	}
	for _, u := range urls {
		p.fetcher.State().Enqueue(u)
	}
	for start := 0; start < len(urls); start += batchSize {
		if ctx.Err() != nil {
			return
		}
		end := start + batchSize
		if end > len(urls) {
			end = len(urls)
		}
		var wg sync.WaitGroup
		for _, u := range urls[start:end] {
			u := u
			wg.Add(1)
			safeGo(p.log, &wg, "fetch", func() {
				p.fetcher.Fetch(ctx, u)
			})
		}
		wg.Wait()
	}
}

// dispatchable filters urls to those not yet done, failed or in flight.
func (p *Preloader) dispatchable(urls []string) []string {
	out := urls[:0:0]
	for _, u := range urls {
		if p.fetcher.State().Dispatchable(u) {
			out = append(out, u)
		}
	}
	return out
}

// normalize converts the host's 1-based slide number to a 0-based index.
func (p *Preloader) normalize(current int) int {
	pos := current - 1
	if pos < 0 {
		pos = 0
	}
	return pos
}

func (p *Preloader) countCandidates() int {
	seen := make(map[string]struct{})
	for _, urls := range p.index {
		for _, u := range urls {
			seen[u] = struct{}{}
		}
	}
	for _, u := range p.cfg.URLs {
		seen[u] = struct{}{}
	}
	return len(seen)
}
