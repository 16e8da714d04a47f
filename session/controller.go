package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/scheduler"
	"github.com/jrsteele09/go-session-client/store"
)

// revokeTimeout bounds the best-effort remote revoke during a forced
// sign-out, which has no caller-supplied context.
const revokeTimeout = 5 * time.Second

var _ scheduler.SessionTimer = (*Clock)(nil)

// AuthAPI is the external authentication collaborator. Refresh takes the
// current access token as its credential - the design has no separate
// refresh token.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.Token, error)
	Refresh(ctx context.Context, accessToken string) (*api.Token, error)
	Revoke(ctx context.Context, accessToken string) error
	AdminInfo(ctx context.Context, accessToken string) (api.AdminInfo, error)
}

// SignOutReason distinguishes a user-initiated sign-out from one forced
// by the timeout monitor.
type SignOutReason string

const (
	SignOutUser    SignOutReason = "user"
	SignOutTimeout SignOutReason = "timeout"
)

// Controller orchestrates sign-in, sign-out, refresh and extend, owning
// the Session entity, the token store, the session clock and both
// schedulers. External layers only read session state or invoke
// controller operations; nothing else mutates it.
type Controller struct {
	api       AuthAPI
	store     store.Store
	clock     *Clock
	refresher *scheduler.RefreshScheduler
	monitor   *scheduler.TimeoutMonitor

	nowFunc     func() time.Time
	onWarning   func(remaining time.Duration)
	onSignedOut func(reason SignOutReason)

	mu      sync.Mutex
	current *Session
}

type ControllerOption func(*Controller)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowFunc = nowFunc
	}
}

// WithWarningFunc registers the callback that surfaces the timeout
// countdown to the UI layer while the session is in the warning window.
func WithWarningFunc(onWarning func(remaining time.Duration)) ControllerOption {
	return func(c *Controller) {
		c.onWarning = onWarning
	}
}

// WithSignedOutFunc registers the callback invoked after every sign-out,
// user-initiated or forced, once local state has been cleared.
func WithSignedOutFunc(onSignedOut func(reason SignOutReason)) ControllerOption {
	return func(c *Controller) {
		c.onSignedOut = onSignedOut
	}
}

// NewController wires a controller from its collaborators. A nil cfg
// falls back to the default configuration; a nil st falls back to a
// file store at the configured state file path.
func NewController(authAPI AuthAPI, st store.Store, cfg config.SessionConfig, options ...ControllerOption) (*Controller, error) {
	if authAPI == nil {
		return nil, errors.New("[NewController] auth API is required")
	}
	if cfg == nil || st == nil {
		defaults := config.New()
		if cfg == nil {
			cfg = defaults
		}
		if st == nil {
			st = store.NewFileStore(defaults.GetStateFilePath(), store.WithDefaultTTL(defaults.GetDefaultTokenTTL()))
		}
	}

	c := &Controller{
		api:     authAPI,
		store:   st,
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	c.clock = NewClock(WithClockNowFunc(c.nowFunc))

	refresher, err := scheduler.NewRefreshScheduler(
		c.store.IsTokenExpired,
		func(ctx context.Context) error {
			_, err := c.Refresh(ctx)
			return err
		},
		scheduler.WithRefreshInterval(cfg.GetRefreshInterval()),
		scheduler.WithRefreshBuffer(cfg.GetRefreshBuffer()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[NewController] refresh scheduler")
	}
	c.refresher = refresher

	monitor, err := scheduler.NewTimeoutMonitor(
		c.clock,
		c.handleExpired,
		scheduler.WithMonitorInterval(cfg.GetMonitorInterval()),
		scheduler.WithMaxSessionDuration(cfg.GetMaxSessionDuration()),
		scheduler.WithWarnBuffer(cfg.GetWarnBuffer()),
		scheduler.WithWarningFunc(c.handleWarning),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[NewController] timeout monitor")
	}
	c.monitor = monitor

	return c, nil
}

// SignIn authenticates and returns the populated Session. The returned
// value is the contract: callers must not assume any other state
// container reflects the result before they receive it.
func (c *Controller) SignIn(ctx context.Context, email, password string, rememberMe bool) (*Session, error) {
	tok, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.SignIn] login")
	}

	now := c.nowFunc()
	sess := &Session{
		ID:           uuid.New().String(),
		AccessToken:  tok.AccessToken,
		ExpiresAt:    tok.ExpiresAt,
		RememberMe:   rememberMe,
		SessionStart: now,
	}

	// Profile fetch is advisory: its failure never blocks authentication.
	if info, err := c.api.AdminInfo(ctx, tok.AccessToken); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("admin info fetch failed")
	} else {
		sess.AdminInfo = info
	}

	c.mu.Lock()
	c.current = sess
	c.store.SetToken(tok.AccessToken, tok.ExpiresAt)
	c.store.SetRememberMe(rememberMe)
	c.store.SetSessionStart(now)
	c.clock.Restore(now)
	c.mu.Unlock()

	c.refresher.Start()
	c.monitor.Start()

	log.Info().Str("session_id", sess.ID).Bool("remember_me", rememberMe).Msg("signed in")
	return sess.copy(), nil
}

// Resume rebuilds a remembered session from persisted state after a
// process restart. It fails when nothing resumable is stored or the
// persisted token has already expired.
func (c *Controller) Resume(ctx context.Context) (*Session, error) {
	tok, ok := c.store.Token()
	if !ok || !c.store.RememberMe() {
		return nil, ErrNoResumableSession
	}
	if c.store.IsTokenExpired(0) {
		c.store.ClearAll()
		return nil, ErrNoResumableSession
	}

	var expiresAt *time.Time
	if exp, ok := c.store.TokenExpiry(); ok {
		expiresAt = &exp
	}
	start, ok := c.store.SessionStart()
	if !ok {
		start = c.nowFunc()
		c.store.SetSessionStart(start)
	}

	sess := &Session{
		ID:           uuid.New().String(),
		AccessToken:  tok,
		ExpiresAt:    expiresAt,
		RememberMe:   true,
		SessionStart: start,
	}

	if info, err := c.api.AdminInfo(ctx, tok); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("admin info fetch failed")
	} else {
		sess.AdminInfo = info
	}

	c.mu.Lock()
	c.current = sess
	c.clock.Restore(start)
	c.mu.Unlock()

	c.refresher.Start()
	c.monitor.Start()

	log.Info().Str("session_id", sess.ID).Time("session_start", start).Msg("session resumed")
	return sess.copy(), nil
}

// SignOut revokes the token remotely when asked (best-effort, failures
// are swallowed), then unconditionally clears all local state and stops
// both schedulers. It never fails from the caller's perspective.
func (c *Controller) SignOut(ctx context.Context, revokeRemote bool) {
	c.signOut(ctx, revokeRemote, SignOutUser)
}

func (c *Controller) signOut(ctx context.Context, revokeRemote bool, reason SignOutReason) {
	if revokeRemote {
		if tok, ok := c.store.Token(); ok {
			if err := c.api.Revoke(ctx, tok); err != nil {
				log.Warn().Err(err).Msg("remote revoke failed, clearing local session anyway")
			}
		}
	}

	c.refresher.Stop()
	c.monitor.Stop()

	c.mu.Lock()
	c.store.ClearAll()
	c.clock.Clear()
	c.current = nil
	c.mu.Unlock()

	log.Info().Str("reason", string(reason)).Msg("signed out")
	if c.onSignedOut != nil {
		c.onSignedOut(reason)
	}
}

// Refresh exchanges the current access token for a new one. On failure
// the stored token is left untouched: it remains usable until it
// naturally expires, and the scheduler simply retries.
func (c *Controller) Refresh(ctx context.Context) (*api.Token, error) {
	current, ok := c.store.Token()
	if !ok {
		return nil, ErrNotSignedIn
	}

	tok, err := c.api.Refresh(ctx, current)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Refresh] refresh")
	}

	c.mu.Lock()
	c.store.SetToken(tok.AccessToken, tok.ExpiresAt)
	if c.current != nil {
		c.current.AccessToken = tok.AccessToken
		c.current.ExpiresAt = tok.ExpiresAt
	}
	c.mu.Unlock()

	log.Debug().Msg("access token refreshed")
	return tok, nil
}

// ExtendSession refreshes the token and restarts the session clock,
// returning the timeout monitor to Normal. A failed refresh leaves the
// clock and monitor untouched so the warning stays visible.
func (c *Controller) ExtendSession(ctx context.Context) error {
	if _, err := c.Refresh(ctx); err != nil {
		return errors.Wrap(err, "[Controller.ExtendSession] refresh")
	}

	now := c.nowFunc()
	c.mu.Lock()
	c.clock.Restore(now)
	c.store.SetSessionStart(now)
	if c.current != nil {
		c.current.SessionStart = now
	}
	c.mu.Unlock()

	c.monitor.ResetToNormal()
	log.Info().Msg("session extended")
	return nil
}

// Current returns a copy of the active session, or nil when signed out.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.copy()
}

// TimeoutState exposes the timeout monitor's state for the UI layer.
func (c *Controller) TimeoutState() scheduler.State {
	return c.monitor.State()
}

func (c *Controller) handleWarning(remaining time.Duration) {
	log.Debug().Dur("remaining", remaining).Msg("session timeout warning")
	if c.onWarning != nil {
		c.onWarning(remaining)
	}
}

func (c *Controller) handleExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
	defer cancel()
	c.signOut(ctx, true, SignOutTimeout)
}
