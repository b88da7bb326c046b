package presence

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/flor3z/presence-card/internal/lanyard"
)

var (
	// ErrMissingUserID is returned before any network call when no user is given
	ErrMissingUserID = errors.New("userId is required")

	// ErrTrackerStarted is returned when Start is called twice
	ErrTrackerStarted = errors.New("tracker already started")
)

// Status is what observers of a Tracker see
type Status string

const (
	StatusLoading   Status = "loading"
	StatusConnected Status = "connected"
	StatusError     Status = "error"
)

// Sources of a snapshot
const (
	SourceREST   = "rest"
	SourceSocket = "socket"
)

// State is the observable output of a Tracker
type State struct {
	Status   Status    `json:"status"`
	Source   string    `json:"source,omitempty"`
	Snapshot *Snapshot `json:"data,omitempty"`
}

// Fetcher performs the one-shot REST lookup
type Fetcher interface {
	GetPresence(ctx context.Context, userID string) (*lanyard.Presence, int, error)
}

// Realtime is a push subscription for one user
type Realtime interface {
	Run(ctx context.Context) error
	Close() error
}

// RealtimeFactory creates the push subscription owned by a Tracker
type RealtimeFactory func(userID string, onPresence lanyard.PresenceHandler) Realtime

// LanyardRealtime returns a factory dialing the Lanyard gateway at socketURL
func LanyardRealtime(socketURL string) RealtimeFactory {
	return func(userID string, onPresence lanyard.PresenceHandler) Realtime {
		return lanyard.NewSession(userID, lanyard.SessionOptions{
			URL:        socketURL,
			OnPresence: onPresence,
		})
	}
}

// Tracker reconciles the REST lookup and the realtime feed for one user.
// Both paths start together; whichever delivers data last wins. Once data has
// been seen the tracker never goes back to loading, and it only reports an
// error when both paths ended without producing anything.
type Tracker struct {
	userID      string
	rest        Fetcher
	newRealtime RealtimeFactory
	now         func() time.Time

	mu         sync.Mutex
	state      State
	started    bool
	closed     bool
	restDone   bool
	socketDone bool
	realtime   Realtime
	cancel     context.CancelFunc
	updates    chan State
	settled    chan struct{}

	wg sync.WaitGroup
}

// NewTracker creates a tracker for userID
func NewTracker(userID string, rest Fetcher, newRealtime RealtimeFactory) *Tracker {
	return &Tracker{
		userID:      strings.TrimSpace(userID),
		rest:        rest,
		newRealtime: newRealtime,
		now:         time.Now,
		state:       State{Status: StatusLoading},
		updates:     make(chan State, 1),
		settled:     make(chan struct{}),
	}
}

// Start launches the REST lookup and the realtime subscription
func (t *Tracker) Start(ctx context.Context) error {
	if t.userID == "" {
		return ErrMissingUserID
	}

	t.mu.Lock()
	if t.started || t.closed {
		t.mu.Unlock()
		return ErrTrackerStarted
	}
	t.started = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.realtime = t.newRealtime(t.userID, t.onSocketPresence)
	realtime := t.realtime
	t.mu.Unlock()

	slog.Debug("Starting presence tracker", "userID", t.userID)

	t.wg.Add(2)
	go t.fetchREST(ctx)
	go t.runRealtime(ctx, realtime)
	return nil
}

// State returns the current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Updates delivers state changes. Only the latest undelivered state is kept,
// so a slow reader skips intermediate states. The channel closes on Close.
func (t *Tracker) Updates() <-chan State {
	return t.updates
}

// Wait blocks until the tracker leaves loading or ctx is done
func (t *Tracker) Wait(ctx context.Context) (State, error) {
	select {
	case <-t.settled:
		return t.State(), nil
	case <-ctx.Done():
		return t.State(), ctx.Err()
	}
}

// Close stops both paths and waits for them to exit
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.updates)
	cancel, realtime := t.cancel, t.realtime
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if realtime != nil {
		realtime.Close()
	}
	t.wg.Wait()
	slog.Debug("Presence tracker closed", "userID", t.userID)
}

func (t *Tracker) fetchREST(ctx context.Context) {
	defer t.wg.Done()

	p, status, err := t.rest.GetPresence(ctx, t.userID)
	if err != nil {
		slog.Warn("Presence REST fetch failed", "userID", t.userID, "status", status, "error", err)
		t.finish(func() { t.restDone = true })
		return
	}

	t.apply(SourceREST, Normalize(t.userID, p, t.now()))
	t.finish(func() { t.restDone = true })
}

func (t *Tracker) runRealtime(ctx context.Context, realtime Realtime) {
	defer t.wg.Done()

	if err := realtime.Run(ctx); err != nil {
		slog.Warn("Presence socket closed", "userID", t.userID, "error", err)
	}
	t.finish(func() { t.socketDone = true })
}

func (t *Tracker) onSocketPresence(event string, p *lanyard.Presence) {
	slog.Debug("Presence event received", "userID", t.userID, "event", event)
	t.apply(SourceSocket, Normalize(t.userID, p, t.now()))
}

// apply replaces the snapshot wholesale
func (t *Tracker) apply(source string, s *Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.state = State{Status: StatusConnected, Source: source, Snapshot: s}
	t.publishLocked()
}

// finish marks one path as ended and reports an error if both ended empty
func (t *Tracker) finish(mark func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mark()
	if t.closed || t.state.Status != StatusLoading {
		return
	}
	if t.restDone && t.socketDone {
		t.state = State{Status: StatusError}
		t.publishLocked()
	}
}

// publishLocked hands the current state to Updates, replacing any state the
// reader has not taken yet. t.mu must be held and the tracker open.
func (t *Tracker) publishLocked() {
	select {
	case <-t.updates:
	default:
	}
	t.updates <- t.state

	select {
	case <-t.settled:
	default:
		if t.state.Status != StatusLoading {
			close(t.settled)
		}
	}
}
