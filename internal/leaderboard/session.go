package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var (
	ErrSessionBusy   = errors.New("leaderboard session busy")
	ErrSessionClosed = errors.New("leaderboard session closed")
)

type State int

const (
	StateIdle State = iota
	StatePublishing
	StateFetching
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePublishing:
		return "publishing"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session walks one leaderboard screen through publish and fetch:
// Idle -> Publishing -> Fetching -> Ready, or Failed from either in-flight state.
// A failed session can be retried, which starts over at Publishing.
type Session struct {
	service *Service

	mu         sync.Mutex
	state      State
	generation uint64
	closed     bool
	view       *View
	err        error
}

func NewSession(service *Service) *Session {
	return &Session{
		service: service,
		state:   StateIdle,
	}
}

// Start runs the first refresh of an idle session.
func (s *Session) Start(ctx context.Context) (*View, error) {
	return s.run(ctx, StateIdle)
}

// Retry runs the refresh again after a failure.
func (s *Session) Retry(ctx context.Context) (*View, error) {
	return s.run(ctx, StateFailed)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the last ranking the session loaded, nil before the first one.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Err returns the failure of a failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close detaches the session, in-flight work completing later changes nothing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) run(ctx context.Context, from State) (*View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.state != from {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot leave %s from %s", ErrSessionBusy, from, state)
	}
	s.generation++
	generation := s.generation
	s.state = StatePublishing
	s.err = nil
	s.mu.Unlock()

	publishErr := s.service.publishCurrentWeek(ctx)
	if publishErr != nil && !s.service.fetchOnPublishFailure {
		return nil, s.fail(generation, publishErr)
	}

	if !s.transition(generation, StateFetching) {
		return nil, ErrSessionClosed
	}

	view, fetchErr := s.service.FetchRanking(ctx)
	if err := multierr.Append(publishErr, fetchErr); err != nil {
		if view != nil {
			s.setView(generation, view)
		}
		return view, s.fail(generation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || generation != s.generation {
		log.Debugf("leaderboard session: refresh %d completed after close, dropped", generation)
		return nil, ErrSessionClosed
	}
	s.view = view
	s.state = StateReady
	return view, nil
}

func (s *Session) transition(generation uint64, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || generation != s.generation {
		return false
	}
	s.state = to
	return true
}

func (s *Session) setView(generation uint64, view *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || generation != s.generation {
		return
	}
	s.view = view
}

func (s *Session) fail(generation uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || generation != s.generation {
		return ErrSessionClosed
	}
	s.state = StateFailed
	s.err = err
	return err
}
