package store

import "time"

// Store persists the client-side session state: the access token, its
// expiry, the remember-me flag and the session start time.
//
// Implementations never surface storage failures. Writes degrade to
// best-effort in-memory behaviour and reads simply report absence, so a
// caller can treat storage as always available.
type Store interface {
	// SetToken writes the token and, when known, its expiry. The write's
	// persisted lifetime is derived from the expiry when present,
	// otherwise a fixed default applies.
	SetToken(token string, expiresAt *time.Time)
	Token() (string, bool)
	TokenExpiry() (time.Time, bool)
	// IsTokenExpired reports whether the token is within buffer of its
	// expiry. An unknown expiry counts as expired (fail closed).
	IsTokenExpired(buffer time.Duration) bool
	SetRememberMe(remember bool)
	RememberMe() bool
	SetSessionStart(start time.Time)
	SessionStart() (time.Time, bool)
	// ClearAll removes every session key. Safe to call when nothing is
	// stored.
	ClearAll()
}

// DefaultTokenTTL is the persisted lifetime of a token written without a
// known expiry.
const DefaultTokenTTL = time.Hour

type settings struct {
	nowFunc    func() time.Time
	defaultTTL time.Duration
}

type Option func(*settings)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(s *settings) {
		s.nowFunc = now
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.defaultTTL = ttl
	}
}

func newSettings(options ...Option) settings {
	s := settings{
		nowFunc:    time.Now,
		defaultTTL: DefaultTokenTTL,
	}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

func expired(now, expiresAt time.Time, buffer time.Duration) bool {
	return !now.Before(expiresAt.Add(-buffer))
}
