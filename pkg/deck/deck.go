// Package deck parses Slidev-style markdown decks: an optional YAML
// headmatter block, slides separated by "---" lines, and optional per-slide
// frontmatter. Parsing is tolerant; malformed frontmatter degrades to raw
// slide text instead of failing the whole deck.
package deck

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/troshab/deckpreload/pkg/preloadlib"
)

// Deck is one parsed presentation.
type Deck struct {
	// Headmatter is the deck-level YAML block, when present.
	Headmatter map[string]interface{}
	// Slides are the slide records in deck order.
	Slides []preloadlib.Slide
	// Config is the "preload" headmatter block resolved into engine
	// configuration (zero value when absent).
	Config preloadlib.Config
}

var separatorRe = regexp.MustCompile(`(?m)^---\s*$`)

// yamlishLine matches lines that plausibly belong to a frontmatter mapping.
var yamlishLine = regexp.MustCompile(`^\s*(#|[A-Za-z0-9_.-]+\s*:|-\s|$)`)

// Load reads and parses the deck at path.
func Load(fs afero.Fs, path string) (*Deck, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("deck: read %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse parses deck source text.
func Parse(src string) (*Deck, error) {
	d := &Deck{}

	blocks := separatorRe.Split(src, -1)
	// A leading "---" produces an empty first block; the next block is the
	// deck headmatter.
	if len(blocks) > 1 && strings.TrimSpace(blocks[0]) == "" && strings.HasPrefix(strings.TrimSpace(src), "---") {
		if hm := parseMapping(blocks[1]); hm != nil {
			d.Headmatter = hm
			blocks = blocks[2:]
		} else {
			blocks = blocks[1:]
		}
	}

	for i := 0; i < len(blocks); i++ {
		block := blocks[i]
		// A yaml-looking block followed by another block is the
		// frontmatter of the slide that follows it.
		if i+1 < len(blocks) && looksLikeFrontmatter(block) {
			if fm := parseMapping(block); fm != nil {
				d.Slides = append(d.Slides, preloadlib.Slide{
					Raw:  blocks[i+1],
					Meta: flatten(fm),
				})
				i++
				continue
			}
		}
		d.Slides = append(d.Slides, preloadlib.Slide{Raw: block})
	}

	// Drop a trailing all-whitespace pseudo slide left by a final "---".
	for len(d.Slides) > 0 && strings.TrimSpace(d.Slides[len(d.Slides)-1].Raw) == "" && d.Slides[len(d.Slides)-1].Meta == nil {
		d.Slides = d.Slides[:len(d.Slides)-1]
	}

	if d.Headmatter != nil {
		// The first slide inherits the headmatter as its metadata,
		// minus the engine's own config block.
		if len(d.Slides) > 0 && d.Slides[0].Meta == nil {
			d.Slides[0].Meta = flatten(d.Headmatter)
		}
		cfg, err := configFromHeadmatter(d.Headmatter)
		if err != nil {
			return nil, err
		}
		d.Config = cfg
	}
	return d, nil
}

// looksLikeFrontmatter reports whether every non-blank line of block could be
// part of a YAML mapping. Guarding on shape first avoids treating prose
// containing a colon as metadata.
func looksLikeFrontmatter(block string) bool {
	trimmed := strings.TrimSpace(block)
	if trimmed == "" {
		return false
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if !yamlishLine.MatchString(line) {
			return false
		}
	}
	return true
}

// parseMapping decodes a YAML mapping, returning nil on any decode error.
func parseMapping(block string) map[string]interface{} {
	var m map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &m); err != nil {
		return nil
	}
	return m
}

// flatten keeps the scalar string values of a decoded mapping, which is all
// the extractor's metadata allow-list consumes.
func flatten(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch s := v.(type) {
		case string:
			out[k] = s
		}
	}
	return out
}

// rawConfig mirrors the headmatter "preload" block. SlidePause is a string
// here because durations arrive as "50ms"-style values.
type rawConfig struct {
	Enabled               *bool    `yaml:"enabled"`
	Lookahead             int      `yaml:"lookahead"`
	Concurrency           int      `yaml:"concurrency"`
	BackgroundConcurrency int      `yaml:"backgroundConcurrency"`
	URLs                  []string `yaml:"urls"`
	Anchor                string   `yaml:"anchor"`
	SlidePause            string   `yaml:"slidePause"`
	Proxy                 string   `yaml:"proxy"`
	CacheDir              string   `yaml:"cacheDir"`
}

func configFromHeadmatter(hm map[string]interface{}) (cfg preloadlib.Config, err error) {
	block, ok := hm["preload"]
	if !ok {
		return cfg, nil
	}
	// Round-trip through yaml to decode the nested block strictly.
	buf, err := yaml.Marshal(block)
	if err != nil {
		return cfg, fmt.Errorf("deck: bad preload block: %w", err)
	}
	var rc rawConfig
	if err = yaml.Unmarshal(buf, &rc); err != nil {
		return cfg, fmt.Errorf("deck: bad preload block: %w", err)
	}
	cfg = preloadlib.Config{
		Enabled:               rc.Enabled,
		Lookahead:             rc.Lookahead,
		Concurrency:           rc.Concurrency,
		BackgroundConcurrency: rc.BackgroundConcurrency,
		URLs:                  rc.URLs,
		Anchor:                rc.Anchor,
		Proxy:                 rc.Proxy,
		CacheDir:              rc.CacheDir,
	}
	if rc.SlidePause != "" {
		var pause time.Duration
		pause, err = time.ParseDuration(rc.SlidePause)
		if err != nil {
			return cfg, fmt.Errorf("deck: bad preload.slidePause %q: %w", rc.SlidePause, err)
		}
		cfg.SlidePause = pause
	}
	return cfg, nil
}
