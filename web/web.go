// Package web provides an HTTP server exposing the statement reports of a
// data directory as JSON.
//
// The data directory is watched for changes. Every successful reload is
// announced to clients listening on /api/events.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/statements/loader"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	WatchEnabled bool

	// Journals lists extra journal files loaded with the master journal.
	Journals []string

	mu   sync.RWMutex
	data *loader.Data
	dir  string
	log  zerolog.Logger

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

func New(port int, dir string) *Server {
	return NewWithVersion(port, dir, "", "")
}

func NewWithVersion(port int, dir, version, commitSHA string) *Server {
	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Version:    version,
		CommitSHA:  commitSHA,
		dir:        dir,
		log:        zerolog.Nop(),
		sseClients: make(map[chan string]struct{}),
	}
}

func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if s.dir == "" {
		return errors.New("data directory is required")
	}
	s.log = logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"component": "web",
		"version":   s.Version,
	})

	loadTimer := timer.Child(fmt.Sprintf("web.load_data %s", filepath.Base(s.dir)))
	if err := s.reloadData(ctx); err != nil {
		loadTimer.End()
		return fmt.Errorf("failed to load data directory: %w", err)
	}
	loadTimer.End()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	setupTimer := timer.Child("web.setup_router")
	handler := s.setupRouter()
	setupTimer.End()

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", addr).Str("dir", s.dir).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/version", s.handleGetVersion)
	mux.HandleFunc("GET /api/accounts", s.handleGetAccounts)
	mux.HandleFunc("GET /api/cashflow", s.handleGetCashFlow)
	mux.HandleFunc("GET /api/balance", s.handleGetBalance)
	mux.HandleFunc("GET /api/reconcile", s.handleGetReconcile)
	mux.HandleFunc("GET /api/gains", s.handleGetGains)
	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return s.logRequests(mux)
}

// reloadData loads or reloads the data directory from disk. On failure the
// previously loaded data is kept.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reloadData(ctx context.Context) error {
	data, err := loader.New(loader.WithJournals(s.Journals...)).Load(ctx, s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	return nil
}

// snapshot returns the currently loaded data.
func (s *Server) snapshot() *loader.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// watchPaths returns the directories holding the files of the data directory.
func (s *Server) watchPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	add(s.dir)
	add(filepath.Join(s.dir, filepath.Dir(filepath.FromSlash(loader.JournalFile))))
	for _, j := range s.Journals {
		if !filepath.IsAbs(j) {
			j = filepath.Join(s.dir, j)
		}
		add(filepath.Dir(j))
	}
	return paths
}

// startWatcher watches the data directory and reloads on changes.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, path := range s.watchPaths() {
		if err := watcher.Add(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to watch")
		}
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Editors and spreadsheet tools often write files in multiple steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Error().Err(err).Msg("file watcher error")
		}
	}
}

// handleFileChange reloads the data directory and notifies clients.
func (s *Server) handleFileChange(ctx context.Context) {
	if err := s.reloadData(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to reload data directory")
		s.broadcast("error")
		return
	}
	s.log.Info().Str("dir", s.dir).Msg("data directory reloaded")
	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
		close(clientChan)
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests logs every request once it is served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
