// Package roster holds per-session squad state: the selected formation,
// the slot-to-name entries, and the view mode.
package roster

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/dreamteam/internal/formation"
)

var (
	// ErrUnknownFormation is returned for names not in the catalog.
	ErrUnknownFormation = errors.New("unknown formation")
	// ErrUnknownSlot is returned when a slot does not belong to the
	// session's current formation.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrUnknownView is returned for view modes other than pitch and list.
	ErrUnknownView = errors.New("unknown view mode")
	// ErrNotFound is returned by the store for missing session IDs.
	ErrNotFound = errors.New("session not found")
)

// ---------------------------------------------------------------------------
// View mode
// ---------------------------------------------------------------------------

// ViewMode selects how a client renders the squad.
type ViewMode string

const (
	ViewPitch ViewMode = "pitch"
	ViewList  ViewMode = "list"
)

// ParseViewMode validates a client-supplied view mode string.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewPitch:
		return ViewPitch, nil
	case ViewList:
		return ViewList, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Session is the state object for one user's squad-building session. All
// mutation goes through its methods. Entries for slots the current
// formation does not have are retained across formation switches but are
// ignored by every derived view, so switching back restores them.
type Session struct {
	mu        sync.Mutex
	id        string
	formation formation.Formation
	players   map[string]string
	view      ViewMode
	createdAt time.Time
	updatedAt time.Time
}

func newSession(f formation.Formation) *Session {
	now := time.Now().UTC()
	return &Session{
		id:        uuid.NewString(),
		formation: f,
		players:   make(map[string]string),
		view:      ViewPitch,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// SetFormation switches the session to the named formation. Existing
// entries are kept, including those the new formation has no slot for.
func (s *Session) SetFormation(name string) error {
	f, ok := formation.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormation, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formation = f
	s.touch()
	return nil
}

// SetPlayer records a player name for a slot of the current formation.
// The name may be empty, which clears the slot.
func (s *Session) SetPlayer(slot, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.formation.HasSlot(slot) {
		return fmt.Errorf("%w: %q in formation %s", ErrUnknownSlot, slot, s.formation.Name)
	}
	s.players[slot] = name
	s.touch()
	return nil
}

// SetView switches the render mode.
func (s *Session) SetView(v ViewMode) error {
	if v != ViewPitch && v != ViewList {
		return fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.touch()
	return nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}

// Entry is one slot's roster line.
type Entry struct {
	Slot string `json:"slot"`
	Name string `json:"name"`
}

// DisplayName returns the entered name, or the slot key when empty.
func (e Entry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Slot
}

// Entries returns the current formation's slots with their entered names,
// in formation definition order. Stale entries are excluded.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := s.formation.Slots()
	out := make([]Entry, len(slots))
	for i, slot := range slots {
		out[i] = Entry{Slot: slot, Name: s.players[slot]}
	}
	return out
}

// Formation returns the session's current formation.
func (s *Session) Formation() formation.Formation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formation
}

// State is a point-in-time copy of a session, safe to serialize. Players
// covers exactly the current formation's slots.
type State struct {
	ID        string            `json:"id"`
	Formation string            `json:"formation"`
	View      ViewMode          `json:"view"`
	Players   map[string]string `json:"players"`
	Required  int               `json:"required"`
	Filled    int               `json:"filled"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make(map[string]string, s.formation.SquadSize())
	filled := 0
	for _, slot := range s.formation.Slots() {
		name := s.players[slot]
		players[slot] = name
		if name != "" {
			filled++
		}
	}
	return State{
		ID:        s.id,
		Formation: s.formation.Name,
		View:      s.view,
		Players:   players,
		Required:  s.formation.SquadSize(),
		Filled:    filled,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

const (
	sessionMaxIdle = 24 * time.Hour
	evictInterval  = 10 * time.Minute
)

// Store is the in-memory session registry. Sessions idle for longer than
// a day are evicted by a background loop.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxIdle  time.Duration
}

// NewStore creates a session store and starts its eviction loop.
func NewStore() *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		maxIdle:  sessionMaxIdle,
	}
	go s.evictLoop()
	return s
}

// Create opens a new session on the named formation.
func (s *Store) Create(formationName string) (*Session, error) {
	f, ok := formation.Lookup(formationName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormation, formationName)
	}
	sess := newSession(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
	return sess, nil
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return sess, nil
}

// Delete removes a session. Returns false if the ID was unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) evictLoop() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.evict(time.Now())
	}
}

func (s *Store) evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastTouched()) > s.maxIdle {
			delete(s.sessions, id)
		}
	}
}
