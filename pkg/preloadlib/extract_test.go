package preloadlib

import (
	"reflect"
	"testing"
)

func TestExtractURLs_MarkdownImages(t *testing.T) {
	raw := "# Title\n\n![alt](https://cdn.example.com/a.png)\ntext ![b](/img/b.jpg \"caption\")\n"
	got := ExtractURLs(raw, nil)
	want := []string{"https://cdn.example.com/a.png", "/img/b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_HTMLSrc(t *testing.T) {
	raw := `<img src="https://example.com/x.png" alt="x"> <Transform :src="'/bound.webp'"/>`
	got := ExtractURLs(raw, nil)
	want := []string{"https://example.com/x.png", "/bound.webp"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_BoundSrcExpressionSkipped(t *testing.T) {
	// A bound :src holding a non-literal expression has no usable URL.
	raw := `<img :src="imageFor(slide)">`
	if got := ExtractURLs(raw, nil); len(got) != 0 {
		t.Fatalf("expected no urls, got %v", got)
	}
}

func TestExtractURLs_CSSKnownExtensionsOnly(t *testing.T) {
	raw := `<style>
.hero { background-image: url('/bg/hero.jpeg'); }
.font { src: url(/fonts/inter.woff2); }
.plain { background: url("https://example.com/tile.png?v=2"); }
</style>`
	got := ExtractURLs(raw, nil)
	want := []string{"/bg/hero.jpeg", "https://example.com/tile.png?v=2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_MetadataAllowList(t *testing.T) {
	meta := map[string]string{
		"background": "https://example.com/bg.png",
		"cover":      "./covers/one.webp",
		"title":      "not-an-image.png", // not in the allow-list
		"layout":     "center",
	}
	got := ExtractURLs("", meta)
	want := []string{"https://example.com/bg.png", "./covers/one.webp"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_MetadataColorValueSkipped(t *testing.T) {
	meta := map[string]string{"background": "cornflowerblue"}
	if got := ExtractURLs("", meta); len(got) != 0 {
		t.Fatalf("expected no urls for a color background, got %v", got)
	}
}

func TestExtractURLs_DataURIExcluded(t *testing.T) {
	raw := "![inline](data:image/png;base64,iVBORw0KGgo=)\n" +
		`<img src="data:image/gif;base64,R0lGOD">` + "\n" +
		"![real](/ok.png)"
	got := ExtractURLs(raw, map[string]string{"background": "data:image/png;base64,AAAA"})
	want := []string{"/ok.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_DedupPreservesFirstOccurrence(t *testing.T) {
	raw := "![a](/a.png) ![b](/b.png) ![again](/a.png)\n" + `<img src="/b.png">`
	got := ExtractURLs(raw, nil)
	want := []string{"/a.png", "/b.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_SourceOrderAcrossPatterns(t *testing.T) {
	// Markdown matches come first, then HTML, then CSS, then metadata,
	// regardless of their textual interleaving.
	raw := `<img src="/html.png"> ![md](/md.png) url('/css.png')`
	meta := map[string]string{"background": "/meta.png"}
	got := ExtractURLs(raw, meta)
	want := []string{"/md.png", "/html.png", "/css.png", "/meta.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractURLs_MalformedInputYieldsEmpty(t *testing.T) {
	inputs := []string{
		"",
		"![broken](",
		"<img src=",
		"url(",
		"just prose with a colon: nothing else",
	}
	for _, in := range inputs {
		if got := ExtractURLs(in, nil); len(got) != 0 {
			t.Fatalf("input %q: expected no urls, got %v", in, got)
		}
	}
}

func TestBuildIndex(t *testing.T) {
	slides := []Slide{
		{Raw: "![a](/a.png)"},
		{Raw: "no images here"},
		{Raw: "![b](/b.png)", Meta: map[string]string{"background": "/bg.png"}},
	}
	index := BuildIndex(slides)
	if len(index) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(index))
	}
	if !reflect.DeepEqual(index[0], []string{"/a.png"}) {
		t.Fatalf("slide 0: got %v", index[0])
	}
	if len(index[1]) != 0 {
		t.Fatalf("slide 1: expected empty, got %v", index[1])
	}
	if !reflect.DeepEqual(index[2], []string{"/b.png", "/bg.png"}) {
		t.Fatalf("slide 2: got %v", index[2])
	}
}
