package flow

import (
	"context"

	"github.com/botmama/botmama/internal/media"
	"github.com/botmama/botmama/internal/recipes"
)

// Chat command vocabulary shared by the flow definitions. This is the only
// externally fixed string contract the transport must match against.
const (
	CmdAdd    = "/add"
	CmdView   = "/view"
	CmdEdit   = "/edit"
	CmdDelete = "/delete"
	CmdSkip   = "/skip"
	CmdDone   = "/done"
	CmdCancel = "/cancel"
	CmdExit   = "/exit"
)

// Deps bundles the external collaborators handlers run against. The engine
// injects them at dispatch time so flow definitions stay pure tables.
type Deps struct {
	Repo      recipes.Repository
	Media     media.Store
	Presenter Presenter
}

// Result tells the engine what to do after a handler ran. A nil Next with
// End false keeps the current state (re-prompt in place).
type Result struct {
	Next State
	End  bool
}

// Stay keeps the session in its current state.
func Stay() Result { return Result{} }

// Goto moves the session to the named state.
func Goto(next State) Result { return Result{Next: next} }

// End terminates the flow; the engine destroys the session.
func End() Result { return Result{End: true} }

// Handler executes one transition's business logic. Returning an error
// means storage failed: the engine leaves the session in its current state
// so a retry can re-attempt the same transition, and propagates the error
// to the transport boundary.
type Handler func(ctx context.Context, ev Event, s *Session, d Deps) (Result, error)

// Transition pairs an event matcher with its handler. Within a state,
// transitions are tested in declaration order and the first match wins.
type Transition struct {
	Match  Matcher
	Handle Handler
}

// Definition is the declarative description of one flow: its entry
// command, per-state transition tables, flow-wide transitions, and
// cleanup behaviour.
type Definition struct {
	Family       Family
	EntryCommand string
	// Entry runs when the entry command fires with no active session (or
	// after the old one was discarded). It sets up the flow context and
	// returns the initial state, or End when the flow cannot start.
	Entry Handler
	// States holds the ordered transition list per state.
	States map[State][]Transition
	// Global transitions are tried after the state's own (e.g. /cancel).
	Global []Transition
	// CommandFallback, when set, runs for any otherwise-unmatched command
	// and ends the flow (the source's catch-all command exit).
	CommandFallback Handler
	// OnTimeout runs when the idle timer expires, before the session is
	// destroyed.
	OnTimeout Handler
}
