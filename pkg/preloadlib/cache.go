package preloadlib

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// manifestFileName is the SQLite manifest kept next to the cached images.
const manifestFileName = "manifest.db"

// CacheEntry is one manifest row.
type CacheEntry struct {
	URL         string
	Path        string
	Size        int64
	ContentType string
	FetchedAt   time.Time
}

// CacheStore is the local stand-in for the browser image cache: fetched
// bodies are written as content-addressed files under dir, with a SQLite
// manifest recording what is already warm. Entries are never evicted; the
// working set is bounded by the deck's image set.
//
// The store is safe for concurrent use. Request state is never persisted
// here, only completed payloads.
type CacheStore struct {
	dir string
	db  *sql.DB
	mu  sync.Mutex
}

// OpenCacheStore opens (creating if necessary) the cache at dir. An empty
// dir selects DefaultCacheDir.
func OpenCacheStore(dir string) (cs *CacheStore, err error) {
	if dir == "" {
		dir, err = DefaultCacheDir()
		if err != nil {
			return
		}
	} else if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.Join(dir, manifestFileName))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open cache manifest: %w", err)
	}
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS entries (
            url          TEXT PRIMARY KEY,
            path         TEXT NOT NULL,
            size         INTEGER NOT NULL,
            content_type TEXT NOT NULL DEFAULT '',
            fetched_at   INTEGER NOT NULL
        )
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize cache manifest: %w", err)
	}
	return &CacheStore{dir: dir, db: db}, nil
}

// Dir returns the cache directory.
func (cs *CacheStore) Dir() string { return cs.dir }

// Has reports whether url has a manifest entry whose payload file still
// exists on disk. A row whose file was removed out-of-band is treated as
// cold and dropped.
func (cs *CacheStore) Has(url string) (bool, error) {
	e, ok, err := cs.Lookup(url)
	if err != nil || !ok {
		return false, err
	}
	if _, statErr := os.Stat(e.Path); statErr != nil {
		cs.mu.Lock()
		_, _ = cs.db.Exec(`DELETE FROM entries WHERE url = ?`, url)
		cs.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Lookup returns the manifest entry for url, if any.
func (cs *CacheStore) Lookup(url string) (e CacheEntry, ok bool, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var fetchedAt int64
	row := cs.db.QueryRow(
		`SELECT url, path, size, content_type, fetched_at FROM entries WHERE url = ?`, url)
	err = row.Scan(&e.URL, &e.Path, &e.Size, &e.ContentType, &fetchedAt)
	if err == sql.ErrNoRows {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("cache lookup %q: %w", url, err)
	}
	e.FetchedAt = time.Unix(fetchedAt, 0)
	return e, true, nil
}

// Put streams r into a content file keyed by url and records the manifest
// row, replacing any prior entry for the same url.
func (cs *CacheStore) Put(url, contentType string, r io.Reader) (n int64, err error) {
	name := cacheFileName(url)
	full := filepath.Join(cs.dir, name)
	tmp := full + ".part"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	n, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, err
	}
	if err = os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return n, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	_, err = cs.db.Exec(`
        INSERT INTO entries (url, path, size, content_type, fetched_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(url) DO UPDATE SET
            path = excluded.path,
            size = excluded.size,
            content_type = excluded.content_type,
            fetched_at = excluded.fetched_at
    `, url, full, n, contentType, time.Now().Unix())
	if err != nil {
		return n, fmt.Errorf("cache manifest insert %q: %w", url, err)
	}
	return n, nil
}

// Count returns the number of manifest entries.
func (cs *CacheStore) Count() (n int, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	err = cs.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return
}

// Close releases the manifest database handle.
func (cs *CacheStore) Close() error {
	return cs.db.Close()
}

// cacheFileName derives a stable content file name from the exact URL
// string. The extension is kept when recognizable so cached files stay
// openable by image tools.
func cacheFileName(url string) string {
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:16])
	if m := imageExtRe.FindStringSubmatch(url); m != nil {
		name += "." + m[1]
	}
	return name
}
