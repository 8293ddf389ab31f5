// Package chat implements the live connection registry behind the
// websocket chat: it admits connections whose session cookie resolves to
// an account, relays their messages to every admitted connection and
// announces departures.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/atinyakov/GophChat/internal/models"
	"go.uber.org/zap"
)

const (
	// EventMessage is the only event kind relayed to peers.
	EventMessage = "message"
	// SystemAuthor signs notices generated by the server.
	SystemAuthor = "Server"
	// UnknownUser stands in for a connection without a display name.
	UnknownUser = "Unknown User"
)

// Message is a relayed chat event. Timestamp is in Unix milliseconds.
type Message struct {
	Event     string `json:"event"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Sender delivers events to one connected peer. Send is called with the
// registry lock held and must not block.
type Sender interface {
	Send(Message) error
}

// Authenticator resolves a session token to the account holding it.
type Authenticator interface {
	GetUserBySession(ctx context.Context, session string) (*models.User, error)
}

// State is the lifecycle stage of a connection.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAdmitted
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAdmitted:
		return "admitted"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Registry tracks admitted connections and relays events between them.
type Registry struct {
	auth    Authenticator
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	mu        sync.Mutex
	admitted  []*Session // in admission order
	lastStamp int64
}

// NewRegistry creates an empty Registry. A nil logger disables logging and
// nil metrics are replaced with unregistered collectors.
func NewRegistry(auth Authenticator, log *zap.Logger, metrics *Metrics) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Registry{
		auth:    auth,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Session is one connection's view of the registry. All fields are guarded
// by the registry lock.
type Session struct {
	reg   *Registry
	peer  Sender
	name  string
	state State
}

// Open starts tracking a new connection. It is not admitted until its
// handshake succeeds.
func (r *Registry) Open(peer Sender) *Session {
	return &Session{reg: r, peer: peer, state: StateConnecting}
}

// Len returns the number of admitted connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.admitted)
}

// Handshake authenticates the connection from its raw Cookie header and
// admits it on success. It runs at most once per session; failures leave
// the session disconnected without telling the peer.
func (s *Session) Handshake(ctx context.Context, cookieHeader string) bool {
	r := s.reg

	r.mu.Lock()
	if s.state != StateConnecting {
		r.mu.Unlock()
		return false
	}
	s.state = StateAuthenticating
	r.mu.Unlock()

	token, ok := SessionFromCookieHeader(cookieHeader)
	if !ok {
		s.reject("no_session")
		return false
	}

	user, err := r.auth.GetUserBySession(ctx, token)
	if err != nil {
		r.log.Debug("chat handshake rejected", zap.Error(err))
		s.reject("unauthenticated")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// disconnected while the lookup was in flight
	if s.state != StateAuthenticating {
		r.metrics.Handshakes.WithLabelValues("abandoned").Inc()
		return false
	}

	s.name = user.Username
	s.state = StateAdmitted
	r.admitted = append(r.admitted, s)

	r.metrics.Handshakes.WithLabelValues("admitted").Inc()
	r.metrics.Connections.Inc()
	r.log.Debug("chat connection admitted", zap.String("user", s.name))
	return true
}

func (s *Session) reject(reason string) {
	r := s.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.state == StateAuthenticating {
		s.state = StateDisconnected
	}
	r.metrics.Handshakes.WithLabelValues(reason).Inc()
}

// Receive relays content from this connection to every admitted
// connection, the sender included. It reports false if the session is not
// admitted.
func (s *Session) Receive(content string) bool {
	r := s.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.state != StateAdmitted {
		return false
	}

	r.broadcastLocked(Message{
		Event:     EventMessage,
		Author:    s.displayName(),
		Content:   content,
		Timestamp: r.stampLocked(),
	})
	r.metrics.Messages.WithLabelValues("chat").Inc()
	return true
}

// Disconnect ends the session. If it was admitted, it is removed and the
// remaining connections are told who left. Calling it again is a no-op.
func (s *Session) Disconnect() {
	r := s.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := s.state
	s.state = StateDisconnected
	if prev != StateAdmitted {
		return
	}

	for i, other := range r.admitted {
		if other == s {
			r.admitted = append(r.admitted[:i], r.admitted[i+1:]...)
			break
		}
	}
	r.metrics.Connections.Dec()

	name := s.displayName()
	r.log.Info("chat connection left", zap.String("user", name))

	r.broadcastLocked(Message{
		Event:     EventMessage,
		Author:    SystemAuthor,
		Content:   fmt.Sprintf(`User "%s" disconnected`, name),
		Timestamp: r.stampLocked(),
	})
	r.metrics.Messages.WithLabelValues("notice").Inc()
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	return s.state
}

// Name returns the display name assigned at admission.
func (s *Session) Name() string {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	return s.name
}

func (s *Session) displayName() string {
	if s.name == "" {
		return UnknownUser
	}
	return s.name
}

func (r *Registry) broadcastLocked(msg Message) {
	for _, s := range r.admitted {
		if err := s.peer.Send(msg); err != nil {
			r.metrics.Dropped.Inc()
			r.log.Warn("chat event dropped",
				zap.String("recipient", s.displayName()),
				zap.String("author", msg.Author),
				zap.Error(err),
			)
		}
	}
}

// stampLocked returns the current time in milliseconds, never earlier than
// the previous stamp.
func (r *Registry) stampLocked() int64 {
	ts := r.now().UnixMilli()
	if ts < r.lastStamp {
		ts = r.lastStamp
	}
	r.lastStamp = ts
	return ts
}

// SessionFromCookieHeader extracts the session token from a raw Cookie
// header value.
func SessionFromCookieHeader(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	req := http.Request{Header: http.Header{"Cookie": {raw}}}
	c, err := req.Cookie(models.SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
