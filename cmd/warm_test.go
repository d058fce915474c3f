package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/troshab/deckpreload/pkg/preloadlib"
)

func writeDeck(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.md")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

func TestBuildPreloader_Disabled(t *testing.T) {
	path := writeDeck(t, "---\npreload:\n  enabled: false\n---\n\n![a](/a.png)\n")
	pre, store, err := buildPreloader(path, nil)
	if !errors.Is(err, preloadlib.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if pre != nil || store != nil {
		t.Fatal("disabled deck must yield no engine and no store")
	}
}

func TestBuildPreloader_FlagOverrides(t *testing.T) {
	path := writeDeck(t, "---\npreload:\n  lookahead: 5\n---\n\n![a](/a.png)\n")
	noStore = true
	anchorMode = "bidirectional"
	defer func() {
		noStore = false
		anchorMode = ""
	}()

	pre, store, err := buildPreloader(path, nil)
	if err != nil {
		t.Fatalf("buildPreloader: %v", err)
	}
	if store != nil {
		t.Fatal("no-store must skip the cache store")
	}
	if !pre.Enabled() {
		t.Fatal("deck without an enabled key defaults to enabled")
	}
}

func TestBuildPreloader_MissingDeck(t *testing.T) {
	if _, _, err := buildPreloader(filepath.Join(t.TempDir(), "nope.md"), nil); err == nil {
		t.Fatal("expected error for missing deck file")
	}
}
