package flow

import (
	"sync"
)

// ItemKind selects which list the shared item-editor states operate on.
type ItemKind int

const (
	ItemIngredients ItemKind = iota
	ItemSteps
)

func (k ItemKind) String() string {
	if k == ItemSteps {
		return "steps"
	}
	return "ingredients"
}

// AddContext is the Add-Recipe flow's scratch data.
type AddContext struct {
	RecipeName string
	RecipeID   int64
	PhotoKey   string
}

// ViewContext is the View-Recipe flow's scratch data (none needed).
type ViewContext struct{}

// EditContext is the Edit-Recipe flow's scratch data.
type EditContext struct {
	RecipeName string
	RecipeID   int64

	// Items selects ingredients vs directions inside the item editor.
	Items ItemKind
	// PickedID / PickedLabel identify the item chosen for update.
	PickedID    int64
	PickedLabel string
}

// DeleteContext is the Delete-Recipe flow's scratch data.
type DeleteContext struct {
	RecipeName string
	RecipeID   int64
}

// Session is the transient execution context of one active flow for one
// user. It is owned by the Store; the engine's per-session worker is the
// only goroutine that touches State and the flow contexts after creation.
type Session struct {
	UserID int64
	ChatID int64
	Family Family
	State  State

	Add    *AddContext
	View   *ViewContext
	Edit   *EditContext
	Delete *DeleteContext

	inbox    chan envelope
	quit     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

func newSession(userID, chatID int64, family Family) *Session {
	s := &Session{
		UserID:   userID,
		ChatID:   chatID,
		Family:   family,
		inbox:    make(chan envelope, 8),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	switch family {
	case FamilyAdd:
		s.Add = &AddContext{}
	case FamilyView:
		s.View = &ViewContext{}
	case FamilyEdit:
		s.Edit = &EditContext{}
	case FamilyDelete:
		s.Delete = &DeleteContext{}
	}
	return s
}

// stop asks the worker to exit without running any cleanup handler.
func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

type sessionKey struct {
	userID int64
	family Family
}

// Store maps (user, flow family) to the active session. Concurrent
// transitions on different keys never contend beyond the map lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[sessionKey]*Session)}
}

// Create installs a fresh session, replacing (and returning) any prior
// session for the same key. The caller stops the replaced session's worker.
func (st *Store) Create(userID, chatID int64, family Family) (created, replaced *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	k := sessionKey{userID: userID, family: family}
	replaced = st.sessions[k]
	created = newSession(userID, chatID, family)
	st.sessions[k] = created
	return created, replaced
}

// Get returns the active session for the key, or nil if the flow is not
// active (absent or already expired).
func (st *Store) Get(userID int64, family Family) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[sessionKey{userID: userID, family: family}]
}

// Destroy removes the session if it is still the registered one.
func (st *Store) Destroy(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	k := sessionKey{userID: s.UserID, family: s.Family}
	if st.sessions[k] == s {
		delete(st.sessions, k)
	}
}

// All returns a snapshot of every active session.
func (st *Store) All() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}
