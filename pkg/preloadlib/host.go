package preloadlib

import "time"

// Slide is one slide record as exposed by the presentation host: the raw
// text content plus an optional string-keyed metadata record.
type Slide struct {
	Raw  string
	Meta map[string]string
}

// Host is the presentation collaborator the preloader attaches to. It must
// be fully ready before it is handed to a Preloader: the slide list is fixed
// for the session and Current is valid.
//
// Current uses the host's 1-based slide numbering convention; the preloader
// normalizes internally. Subscribe registers a callback invoked synchronously
// with the new 1-based index on every navigation; the returned cancel func
// removes the subscription.
type Host interface {
	Slides() []Slide
	Current() int
	Subscribe(fn func(current int)) (cancel func())
}

// Config is read once when a Preloader starts.
type Config struct {
	// Enabled gates the whole engine; when false nothing is extracted,
	// fetched or exposed. Nil means true.
	Enabled *bool `yaml:"enabled"`
	// Lookahead is the number of slides ahead of (and, with bidirectional
	// anchoring, behind) the current position treated as high priority.
	Lookahead int `yaml:"lookahead"`
	// Concurrency is the batch size for priority dispatch.
	Concurrency int `yaml:"concurrency"`
	// BackgroundConcurrency is the batch size for the background drain.
	BackgroundConcurrency int `yaml:"backgroundConcurrency"`
	// URLs are extra candidates force-added to the global set and
	// preloaded alongside the startup burst.
	URLs []string `yaml:"urls"`
	// Anchor selects forward or bidirectional window anchoring.
	Anchor string `yaml:"anchor"`
	// SlidePause is the yield pause between slides in the background drain.
	SlidePause time.Duration `yaml:"slidePause"`
	// Proxy is an optional proxy URL for image fetches (http, https or
	// socks5 scheme).
	Proxy string `yaml:"proxy"`
	// CacheDir overrides the image cache location.
	CacheDir string `yaml:"cacheDir"`
}

// IsEnabled resolves the Enabled tri-state (nil means true).
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// withDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Lookahead <= 0 {
		c.Lookahead = DEF_LOOKAHEAD
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DEF_CONCURRENCY
	}
	if c.BackgroundConcurrency <= 0 {
		c.BackgroundConcurrency = DEF_BG_CONCURRENCY
	}
	if c.SlidePause <= 0 {
		c.SlidePause = DEF_SLIDE_PAUSE
	}
	return c
}

// StaticHost is a Host over a fixed slide list with manual navigation. It is
// the host used by the command layer and by tests; an embedding viewer
// provides its own implementation.
type StaticHost struct {
	slides  []Slide
	current int
	subs    VMap[int, func(int)]
	nextID  int
}

// NewStaticHost creates a StaticHost positioned on slide 1.
func NewStaticHost(slides []Slide) *StaticHost {
	return &StaticHost{
		slides:  slides,
		current: 1,
		subs:    NewVMap[int, func(int)](),
	}
}

// Slides returns the slide list.
func (h *StaticHost) Slides() []Slide { return h.slides }

// Current returns the 1-based current slide number.
func (h *StaticHost) Current() int { return h.current }

// Subscribe registers a navigation callback.
func (h *StaticHost) Subscribe(fn func(int)) (cancel func()) {
	h.nextID++
	id := h.nextID
	h.subs.Set(id, fn)
	return func() { h.subs.Delete(id) }
}

// Goto navigates to the 1-based slide n, notifying subscribers synchronously.
func (h *StaticHost) Goto(n int) {
	if n < 1 || n > len(h.slides) {
		return
	}
	h.current = n
	h.subs.Range(func(_ int, fn func(int)) bool {
		fn(n)
		return true
	})
}
