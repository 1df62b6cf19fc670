package live

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/pkg/binding"
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/memdom"
	"github.com/loom-ui/loom/pkg/snapshot"
)

// Server accepts live connections and owns the active session set. Mount its
// Handler on any chi-compatible mux:
//
//	srv := live.NewServer(view)
//	r := chi.NewRouter()
//	r.Mount("/", srv.Handler())
type Server struct {
	config   Config
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewServer creates a live server rendering the given view.
func NewServer(view View, opts ...Option) *Server {
	config := defaultConfig(view)
	for _, opt := range opts {
		opt(&config)
	}
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		sessions: make(map[string]*Session),
	}
}

// Handler returns the server's HTTP routes: GET / serves the initial
// render, GET /live upgrades to the patch stream.
func (srv *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", srv.handleIndex)
	r.Get("/live", srv.handleLive)
	return r
}

// Session returns an active session by id, or nil.
func (srv *Server) Session(id string) *Session {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return srv.sessions[id]
}

// SessionCount returns the number of active sessions.
func (srv *Server) SessionCount() int {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return len(srv.sessions)
}

// handleIndex serves a fresh server-side render of the view as HTML.
func (srv *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine(srv.config.EngineOptions...)
	root := binding.NewRoot(doc, engine, doc.Body())

	s := &Session{
		ID:     "ssr",
		doc:    doc,
		engine: engine,
		root:   root,
		config: &srv.config,
		logger: srv.config.Logger,
		data:   make(map[string]any),
	}
	if err := root.Render(srv.config.View(s)); err != nil {
		srv.config.Logger.Error("ssr render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(doc.HTML()))
}

// handleLive upgrades to a websocket and runs the session until the
// connection drops, then detaches it to the snapshot store if one is
// configured.
func (srv *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.config.Logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s := newSession(&srv.config)
	if resume := r.URL.Query().Get("resume"); resume != "" && srv.config.Store != nil {
		snap, err := srv.config.Store.Load(r.Context(), resume)
		switch {
		case err == nil:
			s.resumeFrom(snap)
		case errors.Is(err, snapshot.ErrNotFound):
			s.logger.Warn("resume requested for unknown session", "resume", resume)
		default:
			s.logger.Error("snapshot load failed", "resume", resume, "error", err)
		}
	}
	s.conn = conn

	srv.mu.Lock()
	srv.sessions[s.ID] = s
	srv.mu.Unlock()

	s.logger.Info("session started", "remote", r.RemoteAddr)
	defer srv.teardown(s)

	if err := s.Render(); err != nil {
		s.logger.Error("initial render failed", "error", err)
		s.Close("render failed")
		return
	}
	s.readLoop()
}

func (srv *Server) teardown(s *Session) {
	if r := recover(); r != nil {
		s.logger.Error("session panic", "panic", r, "stack", string(debug.Stack()))
	}

	srv.mu.Lock()
	delete(srv.sessions, s.ID)
	srv.mu.Unlock()

	if srv.config.Store != nil {
		if err := s.Detach(context.Background()); err != nil {
			s.logger.Error("detach failed", "error", err)
		}
	}
	s.Close("connection ended")
	s.logger.Info("session ended",
		"events", s.eventCount.Load(),
		"patches", s.patchCount.Load())
}
