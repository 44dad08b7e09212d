package flow

import (
	"context"
	"sync"
	"time"

	"github.com/botmama/botmama/core/logger"
	"log/slog"
)

type envelope struct {
	ctx  context.Context
	ev   Event
	done chan dispatchResult
}

type dispatchResult struct {
	handled bool
	err     error
}

// Engine is the central dispatch loop. Each active session gets its own
// worker goroutine with an inbox channel, so events within a session are
// strictly serialized while different sessions never contend. The idle
// timer lives inside the worker's select loop; a real event queued before
// expiry always wins over the timeout.
type Engine struct {
	deps    Deps
	defs    map[Family]*Definition
	entries map[string]Family
	store   *Store
	idle    time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// DefaultIdleTimeout matches the conversation timeout of the original bot.
const DefaultIdleTimeout = 300 * time.Second

// NewEngine wires the flow definitions into a ready engine.
func NewEngine(deps Deps, idle time.Duration, defs ...*Definition) *Engine {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	e := &Engine{
		deps:    deps,
		defs:    make(map[Family]*Definition, len(defs)),
		entries: make(map[string]Family, len(defs)),
		store:   NewStore(),
		idle:    idle,
	}
	for _, def := range defs {
		e.defs[def.Family] = def
		e.entries[def.EntryCommand] = def.Family
	}
	return e
}

// Active reports whether the user has a live session for the family.
func (e *Engine) Active(userID int64, family Family) bool {
	return e.store.Get(userID, family) != nil
}

// InProgress reports whether the user has any live session.
func (e *Engine) InProgress(userID int64) bool {
	for _, fam := range familyPriority {
		if e.store.Get(userID, fam) != nil {
			return true
		}
	}
	return false
}

// Dispatch routes one inbound event. It returns true when some flow
// consumed the event; false means the transport should treat it as
// unhandled. A non-nil error is a storage failure: the session survives in
// its pre-event state so the user can retry.
func (e *Engine) Dispatch(ctx context.Context, ev Event) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if ev.Kind == EventCommand {
		if fam, ok := e.entries[ev.Command]; ok {
			return e.startFlow(ctx, fam, ev)
		}
	}

	// Not an entry command: offer the event to the user's active sessions
	// in fixed priority order.
	for _, fam := range familyPriority {
		s := e.store.Get(ev.UserID, fam)
		if s == nil {
			continue
		}
		res := e.send(ctx, s, ev)
		if res.handled || res.err != nil {
			return res.handled, res.err
		}
	}
	return false, nil
}

// startFlow begins a fresh session, silently discarding any prior session
// of the same family (restart-from-scratch semantics; already persisted
// rows are kept).
func (e *Engine) startFlow(ctx context.Context, fam Family, ev Event) (bool, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, nil
	}
	s, replaced := e.store.Create(ev.UserID, ev.ChatID, fam)
	if replaced != nil {
		replaced.stop()
	}
	e.wg.Add(1)
	go e.worker(s)
	e.mu.Unlock()

	if replaced != nil {
		logger.Debug(ctx, "flow", "session.discarded",
			slog.String("flow", fam.String()),
			slog.Int64("user_id", ev.UserID),
		)
	}

	res := e.send(ctx, s, ev)
	return res.handled, res.err
}

// Close stops every worker and waits for them to drain.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	for _, s := range e.store.All() {
		s.stop()
		e.store.Destroy(s)
	}
	e.wg.Wait()
}

// send enqueues the event on the session's inbox and waits for the
// worker's verdict. A session whose worker already finished reports the
// event as unhandled, which the caller treats as "flow not active".
func (e *Engine) send(ctx context.Context, s *Session, ev Event) dispatchResult {
	env := envelope{ctx: ctx, ev: ev, done: make(chan dispatchResult, 1)}
	select {
	case s.inbox <- env:
	case <-s.finished:
		return dispatchResult{}
	}
	select {
	case res := <-env.done:
		return res
	case <-s.finished:
		// The worker exited after we enqueued; it answers queued
		// envelopes while draining.
		select {
		case res := <-env.done:
			return res
		default:
			return dispatchResult{}
		}
	}
}

func (e *Engine) worker(s *Session) {
	defer e.wg.Done()
	def := e.defs[s.Family]

	timer := time.NewTimer(e.idle)
	defer timer.Stop()
	defer func() {
		close(s.finished)
		for {
			select {
			case env := <-s.inbox:
				env.done <- dispatchResult{}
			default:
				return
			}
		}
	}()

	for {
		select {
		case <-s.quit:
			return

		case env := <-s.inbox:
			res, ended := e.process(env.ctx, def, s, env.ev)
			if ended {
				e.store.Destroy(s)
				env.done <- res
				return
			}
			env.done <- res
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(e.idle)

		case <-timer.C:
			// A real event that raced the expiry takes precedence.
			select {
			case <-s.quit:
				return
			case env := <-s.inbox:
				res, ended := e.process(env.ctx, def, s, env.ev)
				if ended {
					e.store.Destroy(s)
					env.done <- res
					return
				}
				env.done <- res
				timer.Reset(e.idle)
				continue
			default:
			}
			e.expire(def, s)
			e.store.Destroy(s)
			return
		}
	}
}

// process resolves one event against the session's transition tables.
func (e *Engine) process(ctx context.Context, def *Definition, s *Session, ev Event) (dispatchResult, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	// A brand-new session has no state yet; the entry handler sets it up.
	if s.State == nil {
		return e.invoke(ctx, def, s, ev, def.Entry)
	}

	for _, t := range def.States[s.State] {
		if t.Match(ev) {
			return e.invoke(ctx, def, s, ev, t.Handle)
		}
	}
	for _, t := range def.Global {
		if t.Match(ev) {
			return e.invoke(ctx, def, s, ev, t.Handle)
		}
	}
	if def.CommandFallback != nil && ev.Kind == EventCommand {
		return e.invoke(ctx, def, s, ev, def.CommandFallback)
	}

	return dispatchResult{}, false
}

func (e *Engine) invoke(ctx context.Context, def *Definition, s *Session, ev Event, h Handler) (dispatchResult, bool) {
	from := "entry"
	if s.State != nil {
		from = s.State.String()
	}

	res, err := h(ctx, ev, s, e.deps)
	if err != nil {
		logger.Warn(ctx, "flow", "transition",
			slog.String("status", "fail"),
			slog.String("flow", def.Family.String()),
			slog.String("state", from),
			slog.Int64("user_id", s.UserID),
			slog.String("err", err.Error()),
		)
		return dispatchResult{handled: true, err: err}, false
	}

	next := from
	ended := res.End
	if !ended && res.Next != nil {
		s.State = res.Next
		next = res.Next.String()
	} else if ended {
		next = "end"
	}

	// Entry handlers that neither end nor transition would leave the
	// session stateless; treat that as an immediate end.
	if s.State == nil && !ended {
		ended = true
		next = "end"
	}

	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "flow", "transition",
			slog.String("status", "ok"),
			slog.String("flow", def.Family.String()),
			slog.String("state", from),
			slog.String("next", next),
			slog.Int64("user_id", s.UserID),
		)
	}
	return dispatchResult{handled: true}, ended
}

func (e *Engine) expire(def *Definition, s *Session) {
	ctx := context.Background()
	if def.OnTimeout != nil {
		ev := Event{UserID: s.UserID, ChatID: s.ChatID}
		if _, err := def.OnTimeout(ctx, ev, s, e.deps); err != nil {
			logger.Warn(ctx, "flow", "session.expire_cleanup",
				slog.String("flow", def.Family.String()),
				slog.Int64("user_id", s.UserID),
				slog.String("err", err.Error()),
			)
		}
	}
	state := "entry"
	if s.State != nil {
		state = s.State.String()
	}
	logger.Info(ctx, "flow", "session.expired",
		slog.String("status", "expired"),
		slog.String("flow", def.Family.String()),
		slog.String("state", state),
		slog.Int64("user_id", s.UserID),
	)
}
