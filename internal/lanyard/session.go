package lanyard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Gateway opcodes
const (
	OpEvent      = 0
	OpHello      = 1
	OpInitialize = 2
	OpHeartbeat  = 3
)

// Event types carried by OpEvent frames
const (
	EventInitState      = "INIT_STATE"
	EventPresenceUpdate = "PRESENCE_UPDATE"
)

var (
	// ErrSessionClosed is returned by Run on a session that was already closed
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionStarted is returned when Run is called more than once
	ErrSessionStarted = errors.New("session already started")
)

// State is the lifecycle state of a Session
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingHello
	StateHeartbeating
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingHello:
		return "awaiting_hello"
	case StateHeartbeating:
		return "heartbeating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Frame is a gateway message in either direction
type Frame struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	T  string          `json:"t,omitempty"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type subscribe struct {
	SubscribeToID string `json:"subscribe_to_id"`
}

// PresenceHandler receives every INIT_STATE and PRESENCE_UPDATE payload
type PresenceHandler func(event string, p *Presence)

// SessionOptions configures a Session
type SessionOptions struct {
	URL          string
	Dialer       *websocket.Dialer
	WriteTimeout time.Duration
	OnPresence   PresenceHandler
}

// Session owns one gateway connection subscribed to a single user.
// It does not reconnect: once disconnected it stays closed and the owner
// starts a new Session if it wants one.
type Session struct {
	id     string
	userID string
	opts   SessionOptions

	mu            sync.Mutex
	state         State
	conn          *websocket.Conn
	started       bool
	closed        bool
	stopHeartbeat context.CancelFunc
	heartbeatDone chan struct{}

	writeMu    sync.Mutex
	heartbeats atomic.Int32
}

// NewSession creates a session for userID. Nothing is dialed until Run.
func NewSession(userID string, opts SessionOptions) *Session {
	if opts.URL == "" {
		opts.URL = SocketURL
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Session{
		id:     uuid.NewString(),
		userID: userID,
		opts:   opts,
	}
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run dials the gateway, subscribes and processes frames until the socket
// closes, the context is cancelled, or Close is called. A nil error means the
// session was closed by its owner.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.started = true
	s.state = StateConnecting
	s.mu.Unlock()

	log := slog.With("session", s.id, "userID", s.userID)
	log.Debug("Connecting to Lanyard gateway", "url", s.opts.URL)

	conn, _, err := s.opts.Dialer.DialContext(ctx, s.opts.URL, nil)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("failed to dial gateway: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()

	if err := s.send(conn, OpInitialize, subscribe{SubscribeToID: s.userID}); err != nil {
		s.disconnect()
		return s.closeReason(fmt.Errorf("failed to subscribe: %w", err))
	}
	s.setState(StateAwaitingHello)
	log.Debug("Subscribed to presence")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.disconnect()
			return s.closeReason(fmt.Errorf("gateway read failed: %w", err))
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn("Ignoring malformed gateway frame", "error", err)
			continue
		}
		s.handle(conn, frame, log)
	}
}

// handle dispatches one inbound frame
func (s *Session) handle(conn *websocket.Conn, frame Frame, log *slog.Logger) {
	switch frame.Op {
	case OpHello:
		var h hello
		if err := json.Unmarshal(frame.D, &h); err != nil || h.HeartbeatInterval <= 0 {
			log.Warn("Ignoring hello without heartbeat interval", "payload", string(frame.D))
			return
		}
		interval := time.Duration(h.HeartbeatInterval) * time.Millisecond
		s.startHeartbeat(conn, interval)
		log.Debug("Heartbeat started", "interval", interval)

	case OpEvent:
		if frame.T != EventInitState && frame.T != EventPresenceUpdate {
			return
		}
		var p Presence
		if err := json.Unmarshal(frame.D, &p); err != nil {
			log.Warn("Ignoring malformed presence event", "event", frame.T, "error", err)
			return
		}
		if s.opts.OnPresence != nil {
			s.opts.OnPresence(frame.T, &p)
		}
	}
}

// startHeartbeat replaces any running heartbeat with one at the new interval
func (s *Session) startHeartbeat(conn *websocket.Conn, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.cancelHeartbeatLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopHeartbeat = cancel
	s.heartbeatDone = done
	s.state = StateHeartbeating

	s.heartbeats.Add(1)
	go s.heartbeat(ctx, conn, interval, done)
}

func (s *Session) heartbeat(ctx context.Context, conn *websocket.Conn, interval time.Duration, done chan struct{}) {
	defer close(done)
	defer s.heartbeats.Add(-1)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.send(conn, OpHeartbeat, nil); err != nil {
				slog.Debug("Heartbeat failed", "session", s.id, "error", err)
				return
			}
		}
	}
}

// cancelHeartbeatLocked stops the heartbeat and waits for it to exit.
// The heartbeat goroutine never takes s.mu, so waiting here is safe.
func (s *Session) cancelHeartbeatLocked() {
	if s.stopHeartbeat == nil {
		return
	}
	s.stopHeartbeat()
	<-s.heartbeatDone
	s.stopHeartbeat = nil
	s.heartbeatDone = nil
}

// send writes one frame; writes are serialized across goroutines
func (s *Session) send(conn *websocket.Conn, op int, payload interface{}) error {
	frame := Frame{Op: op}
	if payload != nil {
		d, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame.D = d
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	return conn.WriteJSON(frame)
}

// disconnect tears down the heartbeat and socket after the read loop ends
func (s *Session) disconnect() {
	s.mu.Lock()
	s.cancelHeartbeatLocked()
	s.state = StateDisconnected
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// closeReason hides read errors caused by the owner closing the session
func (s *Session) closeReason(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return err
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Close cancels the heartbeat and closes the socket. It is safe to call more
// than once and from any goroutine.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancelHeartbeatLocked()
	s.state = StateDisconnected
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return conn.Close()
}

// activeHeartbeats reports how many heartbeat loops are running
func (s *Session) activeHeartbeats() int {
	return int(s.heartbeats.Load())
}
