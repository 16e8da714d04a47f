// Package scheduler drives the two recurring checks of a client session:
// proactive token refresh and session timeout monitoring. Both run as
// single ticker loops owned by the session controller; starting an
// already running loop replaces it, so at most one handle of each kind
// exists at a time.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRefreshInterval = time.Minute
	DefaultRefreshBuffer   = 10 * time.Minute
)

// RefreshScheduler periodically asks whether the current token is within
// its refresh buffer and, if so, invokes the refresh callback. A failed
// refresh is retried on the next tick; the scheduler itself never signs
// the user out.
type RefreshScheduler struct {
	interval     time.Duration
	buffer       time.Duration
	needsRefresh func(buffer time.Duration) bool
	refresh      func(ctx context.Context) error

	mu      sync.Mutex
	done    chan struct{}
	running bool

	// inFlight stops a tick from re-entering the refresh callback while a
	// previous tick's call is still outstanding.
	inFlight atomic.Bool
}

type RefreshOption func(*RefreshScheduler)

func WithRefreshInterval(interval time.Duration) RefreshOption {
	return func(s *RefreshScheduler) {
		s.interval = interval
	}
}

func WithRefreshBuffer(buffer time.Duration) RefreshOption {
	return func(s *RefreshScheduler) {
		s.buffer = buffer
	}
}

func NewRefreshScheduler(needsRefresh func(buffer time.Duration) bool, refresh func(ctx context.Context) error, options ...RefreshOption) (*RefreshScheduler, error) {
	if needsRefresh == nil {
		return nil, errors.New("[NewRefreshScheduler] needsRefresh is required")
	}
	if refresh == nil {
		return nil, errors.New("[NewRefreshScheduler] refresh is required")
	}

	s := &RefreshScheduler{
		interval:     DefaultRefreshInterval,
		buffer:       DefaultRefreshBuffer,
		needsRefresh: needsRefresh,
		refresh:      refresh,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Start begins the ticker loop. Starting while already running stops the
// previous loop first: two active loops would double-refresh.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.done)
	}
	s.done = make(chan struct{})
	s.running = true
	go s.loop(s.done)
}

// Stop cancels future ticks. A refresh call already in flight is not
// cancelled and will still complete and write its result.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.done)
	s.running = false
}

func (s *RefreshScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RefreshScheduler) loop(done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-done:
			return
		}
	}
}

func (s *RefreshScheduler) tick() {
	if !s.needsRefresh(s.buffer) {
		return
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		log.Debug().Msg("token refresh still in flight, skipping tick")
		return
	}

	go func() {
		defer s.inFlight.Store(false)
		if err := s.refresh(context.Background()); err != nil {
			log.Warn().Err(err).Msg("token refresh failed, retrying on next tick")
		}
	}()
}
