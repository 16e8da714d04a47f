package scheduler

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMonitorInterval    = 10 * time.Second
	DefaultMaxSessionDuration = 30 * time.Minute
	DefaultWarnBuffer         = 5 * time.Minute
)

// State is the timeout monitor's view of the session.
type State int

const (
	StateNormal State = iota
	StateWarning
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// SessionTimer answers threshold questions about the running session's
// elapsed duration.
type SessionTimer interface {
	Elapsed() time.Duration
	IsNear(threshold, warnBefore time.Duration) bool
	HasExceeded(threshold time.Duration) bool
}

// TimeoutMonitor drives the Normal -> Warning -> Expired state machine
// against the session timer. While in Warning it recomputes the remaining
// time from live elapsed duration on every tick, so the surfaced
// countdown never drifts from the clock that decides expiry. On Expired
// it fires the expiry callback once and stops itself.
type TimeoutMonitor struct {
	interval    time.Duration
	maxDuration time.Duration
	warnBuffer  time.Duration
	timer       SessionTimer
	onWarning   func(remaining time.Duration)
	onExpired   func()

	mu      sync.Mutex
	state   State
	done    chan struct{}
	running bool
}

type MonitorOption func(*TimeoutMonitor)

func WithMonitorInterval(interval time.Duration) MonitorOption {
	return func(m *TimeoutMonitor) {
		m.interval = interval
	}
}

func WithMaxSessionDuration(maxDuration time.Duration) MonitorOption {
	return func(m *TimeoutMonitor) {
		m.maxDuration = maxDuration
	}
}

func WithWarnBuffer(warnBuffer time.Duration) MonitorOption {
	return func(m *TimeoutMonitor) {
		m.warnBuffer = warnBuffer
	}
}

// WithWarningFunc registers the callback invoked with the remaining time
// on every tick spent in the Warning state.
func WithWarningFunc(onWarning func(remaining time.Duration)) MonitorOption {
	return func(m *TimeoutMonitor) {
		m.onWarning = onWarning
	}
}

func NewTimeoutMonitor(timer SessionTimer, onExpired func(), options ...MonitorOption) (*TimeoutMonitor, error) {
	if timer == nil {
		return nil, errors.New("[NewTimeoutMonitor] timer is required")
	}
	if onExpired == nil {
		return nil, errors.New("[NewTimeoutMonitor] onExpired is required")
	}

	m := &TimeoutMonitor{
		interval:    DefaultMonitorInterval,
		maxDuration: DefaultMaxSessionDuration,
		warnBuffer:  DefaultWarnBuffer,
		timer:       timer,
		onExpired:   onExpired,
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// Start begins monitoring in the Normal state. Starting while already
// running replaces the previous loop.
func (m *TimeoutMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		close(m.done)
	}
	m.done = make(chan struct{})
	m.running = true
	m.state = StateNormal
	go m.loop(m.done)
}

func (m *TimeoutMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	close(m.done)
	m.running = false
}

func (m *TimeoutMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *TimeoutMonitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ResetToNormal returns the monitor to the Normal state regardless of the
// current one. Used by "extend session" after the session clock has been
// reset.
func (m *TimeoutMonitor) ResetToNormal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateNormal
}

func (m *TimeoutMonitor) loop(done chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.tick() {
				return
			}
		case <-done:
			return
		}
	}
}

// tick advances the state machine once; it reports true when the session
// expired and the loop must end.
func (m *TimeoutMonitor) tick() bool {
	m.mu.Lock()

	switch {
	case m.timer.HasExceeded(m.maxDuration):
		m.state = StateExpired
		m.running = false
		m.mu.Unlock()

		log.Info().Dur("max_duration", m.maxDuration).Msg("session timed out, forcing sign out")
		m.onExpired()
		return true

	case m.timer.IsNear(m.maxDuration, m.warnBuffer):
		m.state = StateWarning
		remaining := m.maxDuration - m.timer.Elapsed()
		if remaining < 0 {
			remaining = 0
		}
		m.mu.Unlock()

		if m.onWarning != nil {
			m.onWarning(remaining)
		}
		return false

	default:
		m.state = StateNormal
		m.mu.Unlock()
		return false
	}
}
