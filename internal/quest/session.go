// Package quest is the session orchestrator: it owns the in-memory stores
// (progress, catalog, labs, chat) and mediates every backend interaction.
//
// One Session object exists per client run, lifecycle init → active →
// discard. There is no package-level state. Every cross-component effect
// flows through a store fold here; the rendering layer only reads snapshots.
//
// Control flow per operation: guard → one idempotent backend call → fold the
// response → append a system notice to the chat log. The backend is the sole
// writer of numeric progress fields; nothing is incremented or decremented
// in anticipation of a response.
package quest

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"cyberquest/internal/backend"
	"cyberquest/internal/catalog"
	"cyberquest/internal/chat"
	"cyberquest/internal/lab"
	"cyberquest/internal/progress"
	"cyberquest/internal/store"
)

var (
	// ErrNoIdentity is returned when a Session is built without a session
	// identifier. Components fail fast rather than fabricate a second
	// identity mid-session.
	ErrNoIdentity = errors.New("session identifier missing")

	// ErrDiscarded is returned by operations on a discarded session.
	ErrDiscarded = errors.New("session discarded")
)

// Literal fallback strings. Tests pin these; keep them stable.
const (
	// agentFallbackReply substitutes an absent or empty agent reply.
	agentFallbackReply = "The Archmage's crystal flickers. Ask again."

	// connectivityNotice is appended when a chat turn cannot reach the
	// backend at all.
	connectivityNotice = "Could not reach the Archmage. Check the connection and try again."

	// hintDefaultReason is used when a hint rejection carries no detail.
	hintDefaultReason = "Not enough coins"

	// welcomeMessage opens every session.
	welcomeMessage = "Greetings! I am the Archmage. Pick a task and I will guide you through the dark arts of defense."
)

// Options configures a Session.
type Options struct {
	// EventRepo receives telemetry events. Nil disables telemetry.
	EventRepo store.EventRepo

	// Logger receives operational logging. Nil means no logging.
	Logger *zap.Logger
}

// Session is the explicit session-state object. All exported methods are
// safe for concurrent use: guards and folds run under the lock, network
// calls run outside it, so independent operations overlap freely while each
// fold still sees and produces a consistent whole value.
type Session struct {
	id  string
	api backend.API

	mu         sync.Mutex
	catalog    catalog.Catalog
	progress   progress.Snapshot
	labs       *lab.Set
	chatLog    *chat.Log
	activeTask *catalog.Task
	sending    bool // chat single-flight marker
	typing     bool // agent-is-responding marker
	discarded  bool

	events store.EventRepo
	logger *zap.Logger
}

// NewSession creates an active Session bound to the given identity.
func NewSession(sessionID string, api backend.API, opts Options) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNoIdentity
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		id:       sessionID,
		api:      api,
		catalog:  catalog.Catalog{},
		progress: progress.New(),
		labs:     lab.NewSet(),
		chatLog:  chat.NewLog(),
		events:   opts.EventRepo,
		logger:   logger,
	}
	s.chatLog.Append(chat.SenderAgent, welcomeMessage)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Discard ends the session. In-flight requests settle against a dead
// session and are dropped; no cancellation is signaled to the backend.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discarded = true
}

// Snapshot is a consistent read of the whole session state for rendering.
type Snapshot struct {
	SessionID  string
	Catalog    catalog.Catalog
	Progress   progress.Snapshot
	Messages   []chat.Message
	Labs       []lab.Instance
	ActiveTask *catalog.Task
	Typing     bool
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active *catalog.Task
	if s.activeTask != nil {
		t := *s.activeTask
		active = &t
	}
	return Snapshot{
		SessionID:  s.id,
		Catalog:    s.catalog,
		Progress:   s.progress,
		Messages:   s.chatLog.Messages(),
		Labs:       s.labs.Active(),
		ActiveTask: active,
		Typing:     s.typing,
	}
}

// systemNotice appends a system message under the lock.
func (s *Session) systemNotice(text string) {
	s.mu.Lock()
	s.chatLog.Append(chat.SenderSystem, text)
	s.mu.Unlock()
}

// guard returns ErrDiscarded once Discard has run.
func (s *Session) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return ErrDiscarded
	}
	return nil
}
