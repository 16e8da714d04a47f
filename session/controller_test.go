package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/scheduler"
	"github.com/jrsteele09/go-session-client/session"
	fakeauthapi "github.com/jrsteele09/go-session-client/session/apifakes"
	"github.com/jrsteele09/go-session-client/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "password123"
)

// testConfig keeps scheduler ticks fast but thresholds far enough away
// that no timeout fires during a test.
type testConfig struct{}

func (testConfig) GetRefreshInterval() time.Duration    { return 5 * time.Millisecond }
func (testConfig) GetRefreshBuffer() time.Duration      { return 10 * time.Minute }
func (testConfig) GetMonitorInterval() time.Duration    { return 2 * time.Millisecond }
func (testConfig) GetMaxSessionDuration() time.Duration { return 10 * time.Second }
func (testConfig) GetWarnBuffer() time.Duration         { return time.Second }

// timeoutConfig expires the session almost immediately.
type timeoutConfig struct{ testConfig }

func (timeoutConfig) GetMaxSessionDuration() time.Duration { return 60 * time.Millisecond }
func (timeoutConfig) GetWarnBuffer() time.Duration         { return 30 * time.Millisecond }

// extendConfig enters the warning window ~50ms into the session.
type extendConfig struct{ testConfig }

func (extendConfig) GetMaxSessionDuration() time.Duration { return 10 * time.Second }
func (extendConfig) GetWarnBuffer() time.Duration         { return 10*time.Second - 50*time.Millisecond }

type fixture struct {
	api   *fakeauthapi.FakeAuthAPI
	store *store.MemoryStore
	ctrl  *session.Controller
}

func futureToken(value string) *api.Token {
	expiresAt := time.Now().Add(time.Hour)
	return &api.Token{AccessToken: value, ExpiresAt: &expiresAt}
}

func setupFixture(t *testing.T, cfg config.SessionConfig, options ...session.ControllerOption) *fixture {
	t.Helper()

	fakeAPI := fakeauthapi.New()
	fakeAPI.LoginToken = futureToken("access-token-1")
	fakeAPI.Info = api.AdminInfo{"email": testEmail, "name": "Root Admin"}

	st := store.NewMemoryStore()
	t.Cleanup(st.Close)

	ctrl, err := session.NewController(fakeAPI, st, cfg, options...)
	require.NoError(t, err)
	t.Cleanup(func() { ctrl.SignOut(context.Background(), false) })

	return &fixture{api: fakeAPI, store: st, ctrl: ctrl}
}

func TestSignInPopulatesSessionAndStore(t *testing.T) {
	f := setupFixture(t, testConfig{})

	sess, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, true)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, "access-token-1", sess.AccessToken)
	require.NotNil(t, sess.ExpiresAt)
	require.True(t, sess.RememberMe)
	require.Equal(t, testEmail, sess.AdminInfo["email"])

	tok, ok := f.store.Token()
	require.True(t, ok)
	require.Equal(t, "access-token-1", tok)
	require.True(t, f.store.RememberMe())
	_, ok = f.store.SessionStart()
	require.True(t, ok)

	current := f.ctrl.Current()
	require.NotNil(t, current)
	require.Equal(t, sess.ID, current.ID)
}

func TestSignInFailureLeavesNoState(t *testing.T) {
	f := setupFixture(t, testConfig{})
	f.api.LoginErr = api.ErrInvalidCredentials

	_, err := f.ctrl.SignIn(context.Background(), testEmail, "wrong", false)
	require.ErrorIs(t, err, api.ErrInvalidCredentials)

	_, ok := f.store.Token()
	require.False(t, ok)
	require.Nil(t, f.ctrl.Current())
}

func TestSignInSurvivesAdminInfoFailure(t *testing.T) {
	f := setupFixture(t, testConfig{})
	f.api.InfoErr = errors.New("profile endpoint down")

	sess, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)
	require.Nil(t, sess.AdminInfo)
}

func TestSignOutClearsStateEvenWhenRevokeFails(t *testing.T) {
	var reason session.SignOutReason
	f := setupFixture(t, testConfig{}, session.WithSignedOutFunc(func(r session.SignOutReason) { reason = r }))

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	f.api.RevokeErr = errors.New("network error")
	f.ctrl.SignOut(context.Background(), true)

	_, ok := f.store.Token()
	require.False(t, ok)
	require.Nil(t, f.ctrl.Current())
	require.Equal(t, session.SignOutUser, reason)
	require.Equal(t, 1, f.api.Revokes())
}

func TestSignOutWithoutRevoke(t *testing.T) {
	f := setupFixture(t, testConfig{})

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	f.ctrl.SignOut(context.Background(), false)
	require.Zero(t, f.api.Revokes())
	_, ok := f.store.Token()
	require.False(t, ok)
}

func TestRefreshStoresNewToken(t *testing.T) {
	f := setupFixture(t, testConfig{})
	f.api.RefreshToken = futureToken("access-token-2")

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	tok, err := f.ctrl.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-token-2", tok.AccessToken)

	// The current token is the refresh credential - no separate refresh
	// token exists in this design.
	require.Equal(t, "access-token-1", f.api.LastRefreshCredential)

	stored, ok := f.store.Token()
	require.True(t, ok)
	require.Equal(t, "access-token-2", stored)
	require.Equal(t, "access-token-2", f.ctrl.Current().AccessToken)
}

func TestRefreshFailureLeavesStoredToken(t *testing.T) {
	f := setupFixture(t, testConfig{})
	f.api.RefreshErr = api.ErrRefreshRejected

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	_, err = f.ctrl.Refresh(context.Background())
	require.ErrorIs(t, err, api.ErrRefreshRejected)

	stored, ok := f.store.Token()
	require.True(t, ok)
	require.Equal(t, "access-token-1", stored)
}

func TestRefreshWhenNotSignedIn(t *testing.T) {
	f := setupFixture(t, testConfig{})

	_, err := f.ctrl.Refresh(context.Background())
	require.ErrorIs(t, err, session.ErrNotSignedIn)
}

func TestForcedSignOutOnTimeout(t *testing.T) {
	signedOut := make(chan session.SignOutReason, 1)
	f := setupFixture(t, timeoutConfig{}, session.WithSignedOutFunc(func(r session.SignOutReason) {
		select {
		case signedOut <- r:
		default:
		}
	}))

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	select {
	case reason := <-signedOut:
		require.Equal(t, session.SignOutTimeout, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forced sign-out")
	}

	_, ok := f.store.Token()
	require.False(t, ok)
	require.Nil(t, f.ctrl.Current())
}

func TestWarningSurfacesCountdown(t *testing.T) {
	warned := make(chan time.Duration, 1)
	f := setupFixture(t, timeoutConfig{}, session.WithWarningFunc(func(remaining time.Duration) {
		select {
		case warned <- remaining:
		default:
		}
	}))

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	select {
	case remaining := <-warned:
		require.Greater(t, remaining, time.Duration(0))
		require.LessOrEqual(t, remaining, 60*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for warning")
	}
}

func TestExtendSessionReturnsMonitorToNormal(t *testing.T) {
	f := setupFixture(t, extendConfig{})
	f.api.RefreshToken = futureToken("access-token-2")

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.ctrl.TimeoutState() == scheduler.StateWarning
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, f.ctrl.ExtendSession(context.Background()))
	require.Equal(t, scheduler.StateNormal, f.ctrl.TimeoutState())
	require.Equal(t, "access-token-2", f.ctrl.Current().AccessToken)
}

func TestExtendSessionFailureKeepsWarning(t *testing.T) {
	f := setupFixture(t, extendConfig{})
	f.api.RefreshErr = api.ErrRefreshRejected

	_, err := f.ctrl.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.ctrl.TimeoutState() == scheduler.StateWarning
	}, 2*time.Second, time.Millisecond)

	require.Error(t, f.ctrl.ExtendSession(context.Background()))
	require.Equal(t, scheduler.StateWarning, f.ctrl.TimeoutState())
}

func TestResumeRemembersSession(t *testing.T) {
	f := setupFixture(t, testConfig{})

	expiresAt := time.Now().Add(time.Hour)
	f.store.SetToken("persisted-token", &expiresAt)
	f.store.SetRememberMe(true)
	start := time.Now().Add(-time.Minute)
	f.store.SetSessionStart(start)

	sess, err := f.ctrl.Resume(context.Background())
	require.NoError(t, err)
	require.Equal(t, "persisted-token", sess.AccessToken)
	require.True(t, sess.RememberMe)
	require.WithinDuration(t, start, sess.SessionStart, time.Second)
	require.Equal(t, testEmail, sess.AdminInfo["email"])
}

func TestResumeRequiresRememberMe(t *testing.T) {
	f := setupFixture(t, testConfig{})

	expiresAt := time.Now().Add(time.Hour)
	f.store.SetToken("persisted-token", &expiresAt)

	_, err := f.ctrl.Resume(context.Background())
	require.ErrorIs(t, err, session.ErrNoResumableSession)
}

func TestResumeRejectsExpiredToken(t *testing.T) {
	f := setupFixture(t, testConfig{})

	expiresAt := time.Now().Add(time.Minute)
	f.store.SetToken("persisted-token", &expiresAt)
	f.store.SetRememberMe(true)

	// Simulate the stored expiry arriving: overwrite with a past expiry is
	// a deletion, so instead store a token with no known expiry, which
	// fails closed.
	f.store.SetToken("persisted-token", nil)

	_, err := f.ctrl.Resume(context.Background())
	require.ErrorIs(t, err, session.ErrNoResumableSession)
}

func TestNewControllerDefaultsToFileStore(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "session.toml")
	t.Setenv("SESSION_STATE_FILE", statePath)

	fakeAPI := fakeauthapi.New()
	fakeAPI.LoginToken = futureToken("access-token-1")

	ctrl, err := session.NewController(fakeAPI, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ctrl.SignOut(context.Background(), false) })

	_, err = ctrl.SignIn(context.Background(), testEmail, testPassword, true)
	require.NoError(t, err)

	_, statErr := os.Stat(statePath)
	require.NoError(t, statErr)
}

func TestNewControllerRequiresAPI(t *testing.T) {
	_, err := session.NewController(nil, store.NewMemoryStore(), testConfig{})
	require.Error(t, err)
}
