package preloadlib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/proxy"
)

// Loader is the single-URL load primitive: fetch rawURL into the local image
// cache, returning nil on success. Implementations must be safe for
// concurrent use. Loaders report plain errors; the never-rejects contract is
// provided one layer up by the Fetcher.
type Loader interface {
	Load(ctx context.Context, rawURL string) error
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, rawURL string) error

func (f LoaderFunc) Load(ctx context.Context, rawURL string) error {
	return f(ctx, rawURL)
}

// SchemeRouter dispatches loads to per-scheme Loaders. It is the central
// point for protocol-agnostic preloading. The zero value is not usable; use
// NewSchemeRouter.
type SchemeRouter struct {
	routes map[string]Loader
}

// NewSchemeRouter creates a SchemeRouter pre-configured with HTTP/HTTPS and
// FTP/FTPS loaders. client may be nil, in which case http.DefaultClient is
// used. store may be nil to skip cache persistence.
func NewSchemeRouter(client *http.Client, store *CacheStore) *SchemeRouter {
	hl := NewHTTPLoader(client, store)
	fl := &ftpLoader{store: store}
	r := &SchemeRouter{routes: make(map[string]Loader)}
	r.routes["http"] = hl
	r.routes["https"] = hl
	r.routes["ftp"] = fl
	r.routes["ftps"] = fl
	return r
}

// Register adds or replaces the loader for the given scheme.
// scheme must be lowercase.
func (r *SchemeRouter) Register(scheme string, l Loader) {
	r.routes[strings.ToLower(scheme)] = l
}

// Load routes rawURL to the loader registered for its scheme. A URL without
// a scheme (a deck-relative path such as /images/a.png) cannot be resolved
// outside the viewer and is reported as unsupported, not as a panic.
func (r *SchemeRouter) Load(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty URL", ErrUnsupportedLoadScheme)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		return fmt.Errorf("%w: no scheme in URL %q", ErrUnsupportedLoadScheme, rawURL)
	}
	l, ok := r.routes[scheme]
	if !ok {
		return fmt.Errorf("%w %q, supported: %s",
			ErrUnsupportedLoadScheme, scheme, strings.Join(r.supported(), ", "))
	}
	return l.Load(ctx, rawURL)
}

func (r *SchemeRouter) supported() []string {
	schemes := make([]string, 0, len(r.routes))
	for s := range r.routes {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// HTTPLoader loads http(s) URLs into the cache store.
type HTTPLoader struct {
	client *http.Client
	store  *CacheStore
}

// NewHTTPLoader creates an HTTPLoader. client may be nil (http.DefaultClient)
// and store may be nil (response bodies are drained and discarded).
func NewHTTPLoader(client *http.Client, store *CacheStore) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{client: client, store: store}
}

// Load fetches rawURL. A manifest hit in the cache store resolves without
// network. Non-2xx responses are load failures.
func (h *HTTPLoader) Load(ctx context.Context, rawURL string) error {
	if h.store != nil {
		if ok, _ := h.store.Has(rawURL); ok {
			return nil
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DEF_USER_AGENT)
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %s for %s", resp.Status, rawURL)
	}
	if h.store == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	_, err = h.store.Put(rawURL, resp.Header.Get("Content-Type"), resp.Body)
	return err
}

var proxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// NewHTTPClient creates the HTTP client used for image fetches. If proxyURL
// is empty the environment proxy settings apply. socks5 proxies dial through
// golang.org/x/net/proxy; http(s) proxies go through the transport proxy.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", proxyURL)
		}
		if !proxySchemes[parsed.Scheme] {
			return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
		}
		if parsed.Scheme == "socks5" {
			var auth *proxy.Auth
			if parsed.User != nil {
				pass, _ := parsed.User.Password()
				auth = &proxy.Auth{User: parsed.User.Username(), Password: pass}
			}
			dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
			if err != nil {
				return nil, err
			}
			transport.Proxy = nil
			transport.Dial = dialer.Dial
		} else {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	return &http.Client{Transport: transport}, nil
}
