package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/pkg/binding"
	"github.com/loom-ui/loom/pkg/lanes"
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/memdom"
	"github.com/loom-ui/loom/pkg/snapshot"
)

// Session is one live connection: a document, an engine, a render root, and
// the websocket the recorded patches stream out on. Events and renders run
// sequentially on the session's read loop; the session is its own single
// logical thread.
type Session struct {
	// Identity
	ID         string
	CreatedAt  time.Time
	LastActive time.Time

	// Route is the session's current logical route, carried into
	// snapshots on detach.
	Route string

	doc    *memdom.Document
	engine *loom.Engine
	root   *binding.Root

	conn    *websocket.Conn
	writeMu sync.Mutex // Protects conn writes
	closed  atomic.Bool
	sendSeq atomic.Uint64

	config *Config
	logger *slog.Logger

	// General-purpose session data, restored from snapshots on resume.
	data   map[string]any
	dataMu sync.RWMutex

	// Metrics
	eventCount atomic.Uint64
	patchCount atomic.Uint64
}

// generateSessionID returns a cryptographically random session id.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("live: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// newSession creates a detached session (no connection yet).
func newSession(config *Config) *Session {
	doc := memdom.NewDocument()
	engine := loom.NewEngine(config.EngineOptions...)
	s := &Session{
		ID:        generateSessionID(),
		CreatedAt: time.Now(),
		doc:       doc,
		engine:    engine,
		root:      binding.NewRoot(doc, engine, doc.Body()),
		config:    config,
		data:      make(map[string]any),
	}
	s.logger = config.Logger.With("session", s.ID)
	s.LastActive = s.CreatedAt
	return s
}

// Document returns the session's tree.
func (s *Session) Document() *memdom.Document { return s.doc }

// Engine returns the session's update engine.
func (s *Session) Engine() *loom.Engine { return s.engine }

// Get returns a session data value.
func (s *Session) Get(key string) (any, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a session data value. Values must be JSON-serializable to
// survive a detach/resume round trip.
func (s *Session) Set(key string, value any) {
	s.dataMu.Lock()
	s.data[key] = value
	s.dataMu.Unlock()
}

// Render renders the configured view into the session's root and streams
// any resulting patches.
func (s *Session) Render() error {
	if err := s.root.Render(s.config.View(s)); err != nil {
		return err
	}
	return s.flushPatches()
}

// HandleEvent dispatches a client event to the listener on the target node
// under input priority, settles the engine, and streams the patches.
func (s *Session) HandleEvent(node uint64, event string, payload any) error {
	s.eventCount.Add(1)
	var handled bool
	s.engine.RunWithPriority(lanes.InputLane, func() {
		handled = s.doc.DispatchEvent(node, event, payload)
	})
	if !handled {
		s.logger.Warn("event for unknown listener", "node", node, "event", event)
	}
	if err := s.engine.Settle(); err != nil {
		return err
	}
	return s.flushPatches()
}

// flushPatches drains the document's recorded patches into one frame.
func (s *Session) flushPatches() error {
	patches := s.doc.TakePatches()
	if len(patches) == 0 || s.conn == nil || s.closed.Load() {
		return nil
	}
	s.patchCount.Add(uint64(len(patches)))
	return s.sendFrame(&Frame{
		Type:    FramePatches,
		Seq:     s.sendSeq.Add(1),
		Patches: patches,
	})
}

func (s *Session) sendFrame(f *Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop processes incoming frames until the connection closes. Events
// and renders run here sequentially, so session state needs no extra
// locking against itself.
func (s *Session) readLoop() {
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.LastActive = time.Now()

		frame, err := DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case FrameEvent:
			var payload any
			if len(frame.Payload) > 0 {
				if err := json.Unmarshal(frame.Payload, &payload); err != nil {
					s.logger.Error("event payload decode error", "error", err)
					continue
				}
			}
			if err := s.HandleEvent(frame.Node, frame.Event, payload); err != nil {
				s.logger.Error("event dispatch failed", "node", frame.Node, "event", frame.Event, "error", err)
			}

		case FramePing:
			if err := s.sendFrame(&Frame{Type: FramePong}); err != nil {
				s.logger.Error("pong failed", "error", err)
			}

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

// Close sends a close frame and shuts the connection down.
func (s *Session) Close(reason string) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.conn != nil {
		s.sendFrameIgnoreClosed(&Frame{Type: FrameClose, Reason: reason})
		s.conn.Close()
	}
	s.root.Dispose()
}

func (s *Session) sendFrameIgnoreClosed(f *Frame) {
	data, err := f.Encode()
	if err != nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	s.conn.WriteMessage(websocket.TextMessage, data)
}

// Detach snapshots the session into the configured store so it can be
// resumed later. The serialized tree is the snapshot's initial paint; the
// resumed session re-renders and reconciles from there.
func (s *Session) Detach(ctx context.Context) error {
	if s.config.Store == nil {
		return nil
	}
	s.dataMu.RLock()
	state := make(map[string]any, len(s.data))
	for k, v := range s.data {
		state[k] = v
	}
	s.dataMu.RUnlock()

	return s.config.Store.Save(ctx, &snapshot.Snapshot{
		SessionID: s.ID,
		Route:     s.Route,
		HTML:      s.doc.HTML(),
		State:     state,
	})
}

// resumeFrom restores snapshot state into a fresh session.
func (s *Session) resumeFrom(snap *snapshot.Snapshot) {
	s.ID = snap.SessionID
	s.Route = snap.Route
	s.logger = s.config.Logger.With("session", s.ID)
	s.dataMu.Lock()
	for k, v := range snap.State {
		s.data[k] = v
	}
	s.dataMu.Unlock()
}
