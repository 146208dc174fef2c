// Package stream owns the per-subscriber polling lifecycle: a repeating timer
// that drives fetch-normalize-push cycles until the subscriber disconnects.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultInterval is the poll period between cycles.
const DefaultInterval = 3 * time.Second

const failureKindUpstream = "upstream_failure"

var (
	errMissingRoomID = errors.New("stream: room identifier is required")
	errMissingSource = errors.New("stream: snapshot source is required")
	noOpLogger       = zap.NewNop()
)

// SnapshotSource produces one normalized room snapshot per poll cycle.
type SnapshotSource interface {
	RoomSnapshot(ctx context.Context, roomID string) (snapshot.RoomSnapshot, error)
}

// Failure is the wire representation of a failed cycle. It replaces raw error
// serialization so subscribers always receive a meaningful payload.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event is the unit pushed to a subscriber: exactly one of Snapshot or Failure
// is set, exactly one Event is emitted per cycle.
type Event struct {
	Snapshot *snapshot.RoomSnapshot
	Failure  *Failure
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateActive
	stateClosed
)

// SessionConfig captures the dependencies of a Session.
type SessionConfig struct {
	RoomID   string
	Source   SnapshotSource
	Interval time.Duration
	Logger   *zap.Logger
}

// Session drives one subscriber's poll loop. The ticker and events channel are
// owned exclusively by the session and torn down together; sessions share no
// state with each other.
type Session struct {
	id       string
	roomID   string
	source   SnapshotSource
	interval time.Duration
	logger   *zap.Logger

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	state   sessionState
	started bool
}

// NewSession validates the configuration and returns an idle Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.RoomID == "" {
		return nil, errMissingRoomID
	}
	if cfg.Source == nil {
		return nil, errMissingSource
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	sessionID := uuid.NewString()
	return &Session{
		id:       sessionID,
		roomID:   cfg.RoomID,
		source:   cfg.Source,
		interval: interval,
		logger:   logger.With(zap.String("session_id", sessionID), zap.String("room_id", cfg.RoomID)),
		events:   make(chan Event),
		done:     make(chan struct{}),
	}, nil
}

// ID returns the correlation identifier assigned to this session.
func (s *Session) ID() string {
	return s.id
}

// Events returns the channel carrying one Event per completed cycle, in cycle
// order. The channel is closed when the session closes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Run performs an immediate first cycle so the subscriber is not left waiting
// a full interval, then repeats on the timer until ctx is cancelled or Close
// is called. Run returns after closing the events channel.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	if s.state == stateClosed {
		s.mu.Unlock()
		close(s.events)
		return
	}
	s.state = stateActive
	s.mu.Unlock()

	s.logger.Info("stream session started")
	defer close(s.events)
	defer s.Close()

	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stream session stopped", zap.String("reason", "context cancelled"))
			return
		case <-s.done:
			s.logger.Info("stream session stopped", zap.String("reason", "closed"))
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// Close transitions the session to its terminal state. It is idempotent and
// safe to call from any goroutine; after the first call no further events are
// emitted.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	close(s.done)
}

// cycle performs one fetch and pushes exactly one event. A failed cycle emits
// a Failure event and leaves the timer running; an in-flight fetch whose
// session closed mid-call is discarded rather than pushed.
func (s *Session) cycle(ctx context.Context) {
	roomSnapshot, err := s.source.RoomSnapshot(ctx, s.roomID)

	var event Event
	if err != nil {
		s.logger.Warn("poll cycle failed", zap.Error(err))
		event = Event{Failure: &Failure{Kind: failureKindUpstream, Message: err.Error()}}
	} else {
		event = Event{Snapshot: &roomSnapshot}
	}

	select {
	case <-ctx.Done():
	case <-s.done:
	case s.events <- event:
	}
}
