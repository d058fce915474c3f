package preloadlib

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

const (
	// DEF_LOOKAHEAD is the default number of slides ahead of the current
	// position treated as high priority.
	DEF_LOOKAHEAD = 3
	// DEF_CONCURRENCY is the default batch size for priority dispatch.
	DEF_CONCURRENCY = 4
	// DEF_BG_CONCURRENCY is the default batch size for background draining.
	DEF_BG_CONCURRENCY = 2
	// DEF_SLIDE_PAUSE is the default pause between slides during the
	// background drain.
	DEF_SLIDE_PAUSE = 50 * time.Millisecond

	DEF_USER_AGENT = "DeckPreload/1.0"
)

// CacheDirEnv is the environment variable name used to override the default
// cache directory.
const CacheDirEnv = "DECKPRELOAD_CACHE_DIR"

// DefaultCacheDir returns the image cache directory, creating it if needed.
// The DECKPRELOAD_CACHE_DIR environment variable overrides the default
// location under the user cache directory.
func DefaultCacheDir() (dir string, err error) {
	dir = os.Getenv(CacheDirEnv)
	if dir == "" {
		var cdr string
		cdr, err = os.UserCacheDir()
		if err != nil {
			return
		}
		dir = filepath.Join(cdr, "deckpreload")
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return
	}
	err = os.MkdirAll(dir, 0755)
	return
}

// AnchorMode selects how the priority window is anchored around the current
// position.
type AnchorMode int

const (
	// AnchorForward spans [position, position+lookahead].
	AnchorForward AnchorMode = iota
	// AnchorBidirectional spans [position-lookahead, position+lookahead].
	AnchorBidirectional
)

// ParseAnchorMode parses a textual anchor mode ("forward" or "bidirectional").
func ParseAnchorMode(s string) (AnchorMode, error) {
	switch s {
	case "", "forward":
		return AnchorForward, nil
	case "bidirectional", "both":
		return AnchorBidirectional, nil
	default:
		return 0, errors.New("unknown anchor mode: " + s)
	}
}

func (m AnchorMode) String() string {
	if m == AnchorBidirectional {
		return "bidirectional"
	}
	return "forward"
}
