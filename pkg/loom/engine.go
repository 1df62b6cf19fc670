package loom

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loom-ui/loom/pkg/lanes"
)

// Observer receives engine lifecycle notifications. All methods are called
// from the scheduler loop; implementations must not call back into Flush.
type Observer interface {
	FlushStarted(l lanes.Lanes)
	FlushFinished(l lanes.Lanes, d time.Duration, err error)
	CoroutineRendered(id uint64, d time.Duration, err error)
	PhaseDrained(p Phase, callbacks int, d time.Duration)
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// DefaultLane is the lane used when a request supplies none.
	DefaultLane lanes.Lanes

	// Logger receives structured scheduling logs.
	Logger *slog.Logger

	// Observer receives lifecycle notifications (may be nil).
	Observer Observer

	// PhaseYield, when set, is called between commit phases so the host
	// environment can interleave other work. The engine never yields
	// mid-phase.
	PhaseYield func()

	// DebugMode enables verbose flush logging.
	DebugMode bool
}

// Option configures an Engine.
type Option func(*EngineConfig)

// WithDefaultLane sets the lane used for requests that supply none.
func WithDefaultLane(l lanes.Lanes) Option {
	return func(c *EngineConfig) { c.DefaultLane = l }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *EngineConfig) { c.Logger = logger }
}

// WithObserver sets the lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(c *EngineConfig) { c.Observer = obs }
}

// WithPhaseYield sets the between-phase yield hook.
func WithPhaseYield(fn func()) Option {
	return func(c *EngineConfig) { c.PhaseYield = fn }
}

// WithDebugMode enables verbose flush logging.
func WithDebugMode(on bool) Option {
	return func(c *EngineConfig) { c.DebugMode = on }
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultLane: lanes.DefaultLane,
		Logger:      slog.Default(),
	}
}

// Engine owns the registry of coroutines with pending lanes, decides which
// lanes to flush next, and drives the render-commit pipeline. Requests may
// arrive from any goroutine; flushing happens on exactly one.
type Engine struct {
	mu  sync.Mutex
	cfg EngineConfig

	arena  map[uint64]*Coroutine
	nextID uint64

	pending    []*Coroutine
	pendingSet map[uint64]struct{}

	flushing   bool
	flushLanes lanes.Lanes
	eventLane  lanes.Lanes

	wakeCh   chan struct{}
	settleCh chan struct{}
	settled  bool
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	settleCh := make(chan struct{})
	close(settleCh)
	return &Engine{
		cfg:        cfg,
		arena:      make(map[uint64]*Coroutine),
		pending:    nil,
		pendingSet: make(map[uint64]struct{}),
		wakeCh:     make(chan struct{}, 1),
		settleCh:   settleCh,
		settled:    true,
	}
}

// NewCoroutine creates a coroutine in the arena. A nil parent makes a root
// coroutine. The render function is the coroutine's resumption
// continuation, re-entered on every render pass.
func (e *Engine) NewCoroutine(parent *Coroutine, render RenderFunc) *Coroutine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	co := &Coroutine{
		id:     e.nextID,
		engine: e,
		render: render,
	}
	if parent != nil {
		co.parentID = parent.id
	}
	e.arena[co.id] = co
	return co
}

// Coroutine returns the arena entry for id, or nil.
func (e *Engine) Coroutine(id uint64) *Coroutine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arena[id]
}

// CurrentPriority returns the lane new requests are attributed to: an
// explicit RunWithPriority override, else the in-flight flush lane, else
// the configured default.
func (e *Engine) CurrentPriority() lanes.Lanes {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.eventLane != lanes.NoLanes {
		return e.eventLane
	}
	if e.flushing {
		if hp := lanes.HighestPriority(e.flushLanes); hp != lanes.NoLanes {
			return hp
		}
	}
	return e.cfg.DefaultLane
}

// RunWithPriority runs fn with the given lane as the current priority, so
// dispatches inside fn are requested under it.
func (e *Engine) RunWithPriority(l lanes.Lanes, fn func()) {
	e.mu.Lock()
	prev := e.eventLane
	e.eventLane = l
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.eventLane = prev
		e.mu.Unlock()
	}()
	fn()
}

// flight is one coroutine's participation in an in-flight cycle.
type flight struct {
	co      *Coroutine
	waiters []*UpdateHandle
	staged  commitQueues
	uc      *UpdateContext
	dropped bool // Render failed but an error boundary absorbed it
}

// Flush runs one update cycle: select the most urgent pending lane, render
// every coroutine pending on it, then drain the mutation, layout, and
// passive queues in order. Returns nil when nothing was pending.
//
// Render is effect-free: if any render fails with no boundary handling it,
// the whole cycle aborts, no staged effect runs, and the previously
// committed tree is untouched.
func (e *Engine) Flush() error {
	e.mu.Lock()
	if e.flushing {
		e.mu.Unlock()
		return ErrFlushReentered
	}
	if len(e.pending) == 0 {
		e.checkSettledLocked()
		e.mu.Unlock()
		return nil
	}

	var all lanes.Lanes
	for _, co := range e.pending {
		all = lanes.Union(all, co.pendingLanes)
	}
	next := lanes.HighestPriority(all)
	if next == lanes.NoLanes {
		// Only flag lanes pending; flush them as one batch.
		next = all
	}

	var flights []*flight
	var rest []*Coroutine
	var batchLanes lanes.Lanes
	for _, co := range e.pending {
		if lanes.Intersect(co.pendingLanes, next) == lanes.NoLanes {
			rest = append(rest, co)
			continue
		}
		batchLanes = lanes.Union(batchLanes, co.pendingLanes)
		fl := &flight{co: co, waiters: co.waiters}
		co.waiters = nil
		co.pendingLanes = lanes.NoLanes
		co.state = StateRendering
		flights = append(flights, fl)
	}
	e.pending = rest
	e.pendingSet = make(map[uint64]struct{}, len(rest))
	for _, co := range rest {
		e.pendingSet[co.id] = struct{}{}
	}
	e.flushing = true
	e.flushLanes = batchLanes
	e.mu.Unlock()

	start := time.Now()
	if obs := e.cfg.Observer; obs != nil {
		obs.FlushStarted(batchLanes)
	}
	if e.cfg.DebugMode {
		e.cfg.Logger.Debug("flush started", "lanes", batchLanes.String(), "coroutines", len(flights))
	}

	// Render phase: effect-free, per-coroutine staging.
	var abort error
	for _, fl := range flights {
		fl.uc = &UpdateContext{Lanes: batchLanes, engine: e, queues: &fl.staged}
		err := e.renderOne(fl.co, fl.uc)
		if err == nil {
			continue
		}
		if e.handleBoundary(fl.co, err) {
			fl.dropped = true
			fl.staged.reset()
			continue
		}
		abort = &RenderError{CoroutineID: fl.co.id, Cause: err}
		break
	}

	if abort != nil {
		e.abortCycle(flights)
		if obs := e.cfg.Observer; obs != nil {
			obs.FlushFinished(batchLanes, time.Since(start), abort)
		}
		e.cfg.Logger.Error("update cycle aborted", "lanes", batchLanes.String(), "error", abort)
		return abort
	}

	// Commit phase: merge staged queues and drain in fixed order. Commit
	// callbacks that enqueue further work land in the cycle queues.
	var cycle commitQueues
	for _, fl := range flights {
		cycle.merge(&fl.staged)
		fl.uc.queues = &cycle
	}
	e.mu.Lock()
	for _, fl := range flights {
		if !fl.dropped && fl.co.state == StateRendering {
			fl.co.state = StateCommitting
		}
	}
	e.mu.Unlock()

	e.drainPhase(&cycle.mutation, PhaseMutation)
	e.yield()
	e.drainPhase(&cycle.layout, PhaseLayout)
	e.yield()
	e.drainPhase(&cycle.passive, PhasePassive)
	cycle.reset()

	// Settle: resolve handles, promote suspended children.
	var promote []pendingChild
	e.mu.Lock()
	for _, fl := range flights {
		co := fl.co
		if co.state == StateRendering || co.state == StateCommitting {
			if co.pendingLanes != lanes.NoLanes {
				co.state = StatePending
			} else {
				co.state = StateIdle
			}
		}
		promote = append(promote, co.pendingKids...)
		co.pendingKids = nil
	}
	e.flushing = false
	e.flushLanes = lanes.NoLanes
	e.mu.Unlock()

	for _, fl := range flights {
		for _, h := range fl.waiters {
			h.finished.resolve(fl.dropped)
		}
	}
	for _, pc := range promote {
		e.promote(pc)
	}

	e.mu.Lock()
	e.checkSettledLocked()
	e.mu.Unlock()

	if obs := e.cfg.Observer; obs != nil {
		obs.FlushFinished(batchLanes, time.Since(start), nil)
	}
	if e.cfg.DebugMode {
		e.cfg.Logger.Debug("flush finished", "lanes", batchLanes.String(), "took", time.Since(start))
	}
	return nil
}

// Settle flushes until no lanes are pending, returning the first cycle
// error encountered. Intended for tests and synchronous hosts.
func (e *Engine) Settle() error {
	var firstErr error
	for {
		e.mu.Lock()
		n := len(e.pending)
		e.mu.Unlock()
		if n == 0 {
			return firstErr
		}
		if err := e.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
}

// Run drives the engine as an event loop until ctx ends. Cycle errors are
// logged and do not stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.wakeCh:
		}
		if err := e.Settle(); err != nil {
			e.cfg.Logger.Error("update cycle failed", "error", err)
		}
	}
}

// WaitForSettle blocks until the engine has no pending lanes and no
// in-flight cycle, or ctx ends.
func (e *Engine) WaitForSettle(ctx context.Context) error {
	for {
		e.mu.Lock()
		ch := e.settleCh
		done := e.isSettledLocked()
		e.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// =============================================================================
// Internals
// =============================================================================

func (e *Engine) renderOne(co *Coroutine, uc *UpdateContext) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(error); ok {
				err = re
			} else {
				err = fmt.Errorf("render panic: %v", r)
			}
		}
		if obs := e.cfg.Observer; obs != nil {
			obs.CoroutineRendered(co.id, time.Since(start), err)
		}
	}()

	co.uc = uc
	co.hooks.beginRender()
	defer func() { co.uc = nil }()

	if err := co.render(co, uc); err != nil {
		return err
	}
	co.hooks.endRender()
	return nil
}

// handleBoundary walks the coroutine chain outward and offers err to each
// registered boundary. Returns true if one absorbed it.
func (e *Engine) handleBoundary(co *Coroutine, err error) bool {
	var chain []func(error) bool
	e.mu.Lock()
	for c := co; c != nil; c = e.arena[c.parentID] {
		if c.boundary != nil {
			chain = append(chain, c.boundary)
		}
		if c.parentID == 0 {
			break
		}
	}
	e.mu.Unlock()

	for _, fn := range chain {
		if fn(err) {
			return true
		}
	}
	return false
}

// abortCycle unwinds a cycle whose render failed: nothing commits, every
// in-flight handle resolves canceled, and child requests queued behind the
// failed pass resolve canceled too.
func (e *Engine) abortCycle(flights []*flight) {
	var kids []pendingChild
	e.mu.Lock()
	for _, fl := range flights {
		co := fl.co
		if co.state == StateRendering || co.state == StateCommitting {
			if co.pendingLanes != lanes.NoLanes {
				co.state = StatePending
			} else {
				co.state = StateIdle
			}
		}
		kids = append(kids, co.pendingKids...)
		co.pendingKids = nil
	}
	for _, pc := range kids {
		if pc.co.state == StateSuspended {
			pc.co.state = StateIdle
		}
	}
	e.flushing = false
	e.flushLanes = lanes.NoLanes
	e.checkSettledLocked()
	e.mu.Unlock()

	for _, fl := range flights {
		for _, h := range fl.waiters {
			h.finished.resolve(true)
		}
	}
	for _, pc := range kids {
		pc.handle.scheduled.resolve(true)
		pc.handle.finished.resolve(true)
	}
}

// promote re-registers a child request deferred behind a settled ancestor.
func (e *Engine) promote(pc pendingChild) {
	co := pc.co
	e.mu.Lock()
	if co.state == StateDetached {
		e.mu.Unlock()
		pc.handle.scheduled.resolve(true)
		pc.handle.finished.resolve(true)
		return
	}
	if anc := e.updatingAncestorLocked(co); anc != nil {
		// Another ancestor picked up rendering meanwhile; defer again.
		anc.pendingKids = append(anc.pendingKids, pc)
		e.mu.Unlock()
		return
	}
	co.pendingLanes = lanes.Union(co.pendingLanes, pc.lanes)
	co.waiters = append(co.waiters, pc.handle)
	if co.state == StateIdle || co.state == StateSuspended {
		co.state = StatePending
	}
	e.registerPendingLocked(co)
	e.mu.Unlock()

	pc.handle.scheduled.resolve(false)
	e.wake()
}

func (e *Engine) drainPhase(q *Queue, p Phase) {
	start := time.Now()
	n := q.Drain()
	if obs := e.cfg.Observer; obs != nil {
		obs.PhaseDrained(p, n, time.Since(start))
	}
}

func (e *Engine) yield() {
	if e.cfg.PhaseYield != nil {
		e.cfg.PhaseYield()
	}
}

// updatingAncestorLocked returns the nearest strict ancestor currently
// rendering or committing, or nil.
func (e *Engine) updatingAncestorLocked(co *Coroutine) *Coroutine {
	for p := e.arena[co.parentID]; p != nil; p = e.arena[p.parentID] {
		if p.state == StateRendering || p.state == StateCommitting {
			return p
		}
		if p.parentID == 0 {
			break
		}
	}
	return nil
}

func (e *Engine) registerPendingLocked(co *Coroutine) {
	if e.settled {
		e.settled = false
		e.settleCh = make(chan struct{})
	}
	if _, ok := e.pendingSet[co.id]; ok {
		return
	}
	e.pendingSet[co.id] = struct{}{}
	e.pending = append(e.pending, co)
}

func (e *Engine) unregisterPendingLocked(co *Coroutine) {
	if _, ok := e.pendingSet[co.id]; !ok {
		return
	}
	delete(e.pendingSet, co.id)
	for i, c := range e.pending {
		if c == co {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			break
		}
	}
}

func (e *Engine) isSettledLocked() bool {
	return len(e.pending) == 0 && !e.flushing
}

func (e *Engine) checkSettledLocked() {
	if !e.settled && e.isSettledLocked() {
		e.settled = true
		close(e.settleCh)
	}
}

func (e *Engine) wake() {
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
}

// UpdateContext is handed to a render pass. It identifies the cycle's lane
// set and accepts staged commit callbacks; during render the callbacks are
// staged per coroutine and merged only if the whole render phase succeeds.
type UpdateContext struct {
	// Lanes is the lane set this cycle is flushing.
	Lanes lanes.Lanes

	engine *Engine
	queues *commitQueues
}

// Engine returns the owning engine.
func (uc *UpdateContext) Engine() *Engine { return uc.engine }

// Enqueue stages fn into the queue for phase p.
func (uc *UpdateContext) Enqueue(p Phase, fn func()) {
	uc.queues.byPhase(p).Enqueue(fn)
}

// EnqueueMutation stages a structural/attribute write.
func (uc *UpdateContext) EnqueueMutation(fn func()) { uc.Enqueue(PhaseMutation, fn) }

// EnqueueLayout stages a post-mutation, pre-paint effect.
func (uc *UpdateContext) EnqueueLayout(fn func()) { uc.Enqueue(PhaseLayout, fn) }

// EnqueuePassive stages a deferred effect.
func (uc *UpdateContext) EnqueuePassive(fn func()) { uc.Enqueue(PhasePassive, fn) }
