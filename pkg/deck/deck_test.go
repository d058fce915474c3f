package deck

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

const sampleDeck = `---
title: Release review
background: https://cdn.example.com/cover.png
preload:
  enabled: true
  lookahead: 2
  concurrency: 6
  backgroundConcurrency: 3
  slidePause: 75ms
  urls:
    - https://cdn.example.com/logo.svg
---

# Welcome

![hero](https://cdn.example.com/hero.png)

---
layout: center
image: https://cdn.example.com/center.jpg
---

Second slide body.

---

Third slide, no frontmatter.
`

func TestParse_HeadmatterAndSlides(t *testing.T) {
	d, err := Parse(sampleDeck)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Slides) != 3 {
		t.Fatalf("slide count = %d, want 3", len(d.Slides))
	}
	if d.Headmatter["title"] != "Release review" {
		t.Fatalf("headmatter title = %v", d.Headmatter["title"])
	}
	// The first slide inherits the headmatter scalars as metadata.
	if d.Slides[0].Meta["background"] != "https://cdn.example.com/cover.png" {
		t.Fatalf("first slide meta = %v", d.Slides[0].Meta)
	}
	if d.Slides[1].Meta["image"] != "https://cdn.example.com/center.jpg" {
		t.Fatalf("second slide meta = %v", d.Slides[1].Meta)
	}
	if d.Slides[2].Meta != nil {
		t.Fatalf("third slide should have no metadata, got %v", d.Slides[2].Meta)
	}
}

func TestParse_PreloadConfig(t *testing.T) {
	d, err := Parse(sampleDeck)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg := d.Config
	if cfg.Enabled == nil || !*cfg.Enabled {
		t.Fatal("enabled not decoded")
	}
	if cfg.Lookahead != 2 || cfg.Concurrency != 6 || cfg.BackgroundConcurrency != 3 {
		t.Fatalf("limits not decoded: %+v", cfg)
	}
	if cfg.SlidePause != 75*time.Millisecond {
		t.Fatalf("slidePause = %v, want 75ms", cfg.SlidePause)
	}
	if len(cfg.URLs) != 1 || cfg.URLs[0] != "https://cdn.example.com/logo.svg" {
		t.Fatalf("urls = %v", cfg.URLs)
	}
}

func TestParse_NoHeadmatter(t *testing.T) {
	d, err := Parse("# Only slide\n\n![a](/a.png)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Headmatter != nil {
		t.Fatalf("unexpected headmatter: %v", d.Headmatter)
	}
	if len(d.Slides) != 1 {
		t.Fatalf("slide count = %d, want 1", len(d.Slides))
	}
	if d.Config.Enabled != nil {
		t.Fatal("config should be zero without headmatter")
	}
}

func TestParse_ProseWithColonIsNotFrontmatter(t *testing.T) {
	src := "First slide.\n\n---\n\nNote: this line has a colon but is prose,\nand this one is plainly not yaml.\n\n---\n\nThird slide.\n"
	d, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Slides) != 3 {
		t.Fatalf("slide count = %d, want 3", len(d.Slides))
	}
	for i, s := range d.Slides {
		if s.Meta != nil {
			t.Fatalf("slide %d gained metadata from prose: %v", i, s.Meta)
		}
	}
}

func TestParse_MalformedFrontmatterDegrades(t *testing.T) {
	src := "---\nlayout: [unclosed\n---\n\nBody text.\n"
	d, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse must tolerate malformed frontmatter: %v", err)
	}
	if len(d.Slides) == 0 {
		t.Fatal("no slides parsed")
	}
}

func TestParse_BadSlidePause(t *testing.T) {
	src := "---\npreload:\n  slidePause: notaduration\n---\n\nBody.\n"
	if _, err := Parse(src); err == nil {
		t.Fatal("expected error for malformed slidePause")
	}
}

func TestParse_TrailingSeparator(t *testing.T) {
	d, err := Parse("Slide one.\n\n---\n\nSlide two.\n\n---\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Slides) != 2 {
		t.Fatalf("slide count = %d, want 2", len(d.Slides))
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/decks/slides.md", []byte(sampleDeck), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	d, err := Load(fs, "/decks/slides.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Slides) != 3 {
		t.Fatalf("slide count = %d, want 3", len(d.Slides))
	}
	if _, err = Load(fs, "/decks/missing.md"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
