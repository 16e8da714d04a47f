package session_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/session"
	"github.com/stretchr/testify/require"
)

func TestClockElapsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := session.NewClock(session.WithClockNowFunc(func() time.Time { return now }))

	require.Zero(t, clock.Elapsed()) // no start recorded

	clock.MarkStart()
	require.Zero(t, clock.Elapsed())

	now = now.Add(25 * time.Minute)
	require.Equal(t, 25*time.Minute, clock.Elapsed())
}

func TestClockThresholds(t *testing.T) {
	const (
		maxDuration = 30 * time.Minute
		warnBuffer  = 5 * time.Minute
	)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := session.NewClock(session.WithClockNowFunc(func() time.Time { return now }))
	clock.MarkStart()

	// 25 minutes in: inside the warning window but not expired.
	now = now.Add(25 * time.Minute)
	require.True(t, clock.IsNear(maxDuration, warnBuffer))
	require.False(t, clock.HasExceeded(maxDuration))

	// 31 minutes in: expired.
	now = now.Add(6 * time.Minute)
	require.True(t, clock.HasExceeded(maxDuration))
}

func TestClockReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := session.NewClock(session.WithClockNowFunc(func() time.Time { return now }))
	clock.MarkStart()

	now = now.Add(time.Hour)
	require.True(t, clock.HasExceeded(30*time.Minute))

	clock.Reset()
	require.False(t, clock.HasExceeded(30*time.Minute))
	require.False(t, clock.IsNear(30*time.Minute, 5*time.Minute))
	require.Zero(t, clock.Elapsed())
}

func TestClockClear(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := session.NewClock(session.WithClockNowFunc(func() time.Time { return now }))
	clock.MarkStart()

	_, started := clock.Start()
	require.True(t, started)

	clock.Clear()
	_, started = clock.Start()
	require.False(t, started)
	now = now.Add(time.Hour)
	require.Zero(t, clock.Elapsed())
}

func TestClockRestore(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := session.NewClock(session.WithClockNowFunc(func() time.Time { return now }))

	clock.Restore(now.Add(-10 * time.Minute))
	require.Equal(t, 10*time.Minute, clock.Elapsed())
}
