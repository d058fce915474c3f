// Package diag exposes the development-mode diagnostic surface of a running
// preloader: read-only JSON-RPC 2.0 methods over an HTTP bridge and a
// WebSocket channel. It is never required for correct preloading and is not
// served at all when the engine is disabled.
package diag

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/troshab/deckpreload/pkg/logger"
	"github.com/troshab/deckpreload/pkg/preloadlib"
)

// StatsResult is the response for preload.stats.
type StatsResult struct {
	Total   int `json:"total"`
	Loaded  int `json:"loaded"`
	Loading int `json:"loading"`
	Failed  int `json:"failed"`
	Queued  int `json:"queued"`
}

// IndexResult is the response for preload.index.
type IndexResult struct {
	Slides [][]string `json:"slides"`
}

// FailedResult is the response for preload.failed.
type FailedResult struct {
	Failures map[string]string `json:"failures"`
}

// VersionResult is the response for preload.version.
type VersionResult struct {
	Version string `json:"version"`
}

// Server serves the diagnostic RPC endpoint for one preloader instance.
type Server struct {
	log     logger.Logger
	pre     *preloadlib.Preloader
	methods handler.Map
	bridge  jhttp.Bridge
	srv     *http.Server
	version string
}

// NewServer creates a diagnostic server bound to addr (expected to be a
// localhost address; the surface is development-mode only).
func NewServer(l logger.Logger, pre *preloadlib.Preloader, addr, version string) *Server {
	s := &Server{
		log:     l,
		pre:     pre,
		version: version,
	}
	s.methods = handler.Map{
		"preload.stats":   handler.New(s.stats),
		"preload.index":   handler.New(s.index),
		"preload.failed":  handler.New(s.failed),
		"preload.version": handler.New(s.getVersion),
	}
	s.bridge = jhttp.NewBridge(s.methods, nil)

	mux := http.NewServeMux()
	mux.Handle("/rpc", s.bridge)
	mux.HandleFunc("/ws", s.handleWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler returns the HTTP handler serving /rpc and /ws, for embedding the
// surface into an existing server.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens and serves until Close. It blocks.
func (s *Server) Start() error {
	s.log.Info("diag: listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts the HTTP server and the jrpc2 bridge down.
func (s *Server) Close() error {
	_ = s.bridge.Close()
	return s.srv.Close()
}

// handleWS upgrades the connection and runs a jrpc2 server over it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warning("diag: websocket accept: %v", err)
		return
	}
	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(s.methods, nil)
	srv.Start(ch)
	if err := srv.Wait(); err != nil && err != context.Canceled {
		s.log.Warning("diag: websocket session ended: %v", err)
	}
}

func (s *Server) stats(_ context.Context) (*StatsResult, error) {
	st := s.pre.Stats()
	return &StatsResult{
		Total:   st.Total,
		Loaded:  st.Loaded,
		Loading: st.Loading,
		Failed:  st.Failed,
		Queued:  st.Queued,
	}, nil
}

func (s *Server) index(_ context.Context) (*IndexResult, error) {
	return &IndexResult{Slides: s.pre.Index()}, nil
}

func (s *Server) failed(_ context.Context) (*FailedResult, error) {
	failures := make(map[string]string)
	for url, err := range s.pre.FailedURLs() {
		failures[url] = err.Error()
	}
	return &FailedResult{Failures: failures}, nil
}

func (s *Server) getVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{Version: s.version}, nil
}
