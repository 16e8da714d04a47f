package session

import (
	"time"

	"github.com/jrsteele09/go-session-client/api"
)

// Session is the single authenticated session held by a client instance.
// It is created on successful sign-in, mutated in place by refresh (new
// token and expiry) and extend (new start time), and destroyed on
// sign-out.
type Session struct {
	ID           string        // Client-generated identifier, used for log correlation
	AccessToken  string        // Current bearer token
	ExpiresAt    *time.Time    // Nil when the expiry is unknown (treated as already expired for refresh purposes)
	RememberMe   bool          // Whether the session may resume across restarts
	SessionStart time.Time     // When the session began; reset only by "extend session"
	AdminInfo    api.AdminInfo // Cached profile, advisory only for UI display
}

func (s *Session) copy() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	return &dup
}
