package fakeauthapi

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/session"
)

var _ session.AuthAPI = (*FakeAuthAPI)(nil)

// FakeAuthAPI is a configurable in-memory AuthAPI for tests.
type FakeAuthAPI struct {
	lock sync.Mutex

	LoginToken   *api.Token
	LoginErr     error
	RefreshToken *api.Token
	RefreshErr   error
	RevokeErr    error
	Info         api.AdminInfo
	InfoErr      error

	LoginCalls            int
	RefreshCalls          int
	RevokeCalls           int
	AdminInfoCalls        int
	LastLoginEmail        string
	LastRefreshCredential string
	LastRevokedToken      string
}

func New() *FakeAuthAPI {
	return &FakeAuthAPI{}
}

func (f *FakeAuthAPI) Login(_ context.Context, email, _ string) (*api.Token, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LoginCalls++
	f.LastLoginEmail = email
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.LoginToken, nil
}

func (f *FakeAuthAPI) Refresh(_ context.Context, accessToken string) (*api.Token, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RefreshCalls++
	f.LastRefreshCredential = accessToken
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	return f.RefreshToken, nil
}

func (f *FakeAuthAPI) Revoke(_ context.Context, accessToken string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RevokeCalls++
	f.LastRevokedToken = accessToken
	return f.RevokeErr
}

func (f *FakeAuthAPI) AdminInfo(_ context.Context, _ string) (api.AdminInfo, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.AdminInfoCalls++
	if f.InfoErr != nil {
		return nil, f.InfoErr
	}
	return f.Info, nil
}

func (f *FakeAuthAPI) Revokes() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.RevokeCalls
}

func (f *FakeAuthAPI) Refreshes() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.RefreshCalls
}
