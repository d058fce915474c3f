package preloadlib

import (
	"os"
	"strings"
	"testing"
)

func TestCacheStore_PutLookupRoundTrip(t *testing.T) {
	cs, err := OpenCacheStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCacheStore: %v", err)
	}
	defer cs.Close()

	url := "https://cdn.example.com/img/hero.png?v=2"
	n, err := cs.Put(url, "image/png", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 5 {
		t.Fatalf("Put size = %d, want 5", n)
	}

	e, ok, err := cs.Lookup(url)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if e.URL != url || e.Size != 5 || e.ContentType != "image/png" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !strings.HasSuffix(e.Path, ".png") {
		t.Fatalf("content file should keep the image extension, got %q", e.Path)
	}
	body, err := os.ReadFile(e.Path)
	if err != nil {
		t.Fatalf("read content file: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("content file = %q, want %q", body, "hello")
	}

	ok, err = cs.Has(url)
	if err != nil || !ok {
		t.Fatalf("Has after Put: ok=%v err=%v", ok, err)
	}
}

func TestCacheStore_PutReplacesEntry(t *testing.T) {
	cs, err := OpenCacheStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCacheStore: %v", err)
	}
	defer cs.Close()

	url := "https://example.com/a.png"
	if _, err = cs.Put(url, "image/png", strings.NewReader("v1")); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if _, err = cs.Put(url, "image/png", strings.NewReader("longer-v2")); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	e, ok, err := cs.Lookup(url)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if e.Size != int64(len("longer-v2")) {
		t.Fatalf("entry size = %d, want %d", e.Size, len("longer-v2"))
	}
	n, err := cs.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestCacheStore_HasDropsStaleRow(t *testing.T) {
	cs, err := OpenCacheStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCacheStore: %v", err)
	}
	defer cs.Close()

	url := "https://example.com/gone.png"
	if _, err = cs.Put(url, "", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, _, err := cs.Lookup(url)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err = os.Remove(e.Path); err != nil {
		t.Fatalf("remove content file: %v", err)
	}

	ok, err := cs.Has(url)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Fatal("Has must report cold when the content file is missing")
	}
	if _, ok, _ = cs.Lookup(url); ok {
		t.Fatal("stale manifest row should have been dropped")
	}
}

func TestCacheStore_MissingURL(t *testing.T) {
	cs, err := OpenCacheStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCacheStore: %v", err)
	}
	defer cs.Close()

	if ok, err := cs.Has("https://example.com/never-put.png"); err != nil || ok {
		t.Fatalf("Has on unknown url: ok=%v err=%v", ok, err)
	}
}

func TestCacheFileName(t *testing.T) {
	a := cacheFileName("https://example.com/a.png")
	b := cacheFileName("https://example.com/b.png")
	if a == b {
		t.Fatal("distinct urls must map to distinct file names")
	}
	if a != cacheFileName("https://example.com/a.png") {
		t.Fatal("file name must be stable for the same url")
	}
	if !strings.HasSuffix(a, ".png") {
		t.Fatalf("extension not preserved: %q", a)
	}
	if q := cacheFileName("https://example.com/c.webp?v=3"); !strings.HasSuffix(q, ".webp") {
		t.Fatalf("extension with query not preserved: %q", q)
	}
}
