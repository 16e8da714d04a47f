package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

var _ Store = (*FileStore)(nil)

// FileStore persists session state to a TOML file so that a remembered
// session survives process restarts. Every write failure is logged and
// swallowed: the store keeps serving from its in-memory copy, so callers
// see the same behaviour whether or not the file is writable.
type FileStore struct {
	path       string
	nowFunc    func() time.Time
	defaultTTL time.Duration

	mu    sync.RWMutex
	state fileState
}

type fileState struct {
	AccessToken  string     `toml:"access_token,omitempty"`
	ExpiresAt    *time.Time `toml:"expires_at,omitempty"`
	RememberMe   bool       `toml:"remember_me,omitempty"`
	SessionStart *time.Time `toml:"session_start,omitempty"`
	WrittenAt    *time.Time `toml:"written_at,omitempty"`
}

// NewFileStore loads any previously persisted state from path. An empty
// path or an unreadable file degrades to in-memory-only behaviour.
func NewFileStore(path string, options ...Option) *FileStore {
	st := newSettings(options...)
	fs := &FileStore{
		path:       path,
		nowFunc:    st.nowFunc,
		defaultTTL: st.defaultTTL,
	}
	fs.load()
	return fs
}

func (fs *FileStore) load() {
	if fs.path == "" {
		return
	}

	var state fileState
	if _, err := toml.DecodeFile(fs.path, &state); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", fs.path).Msg("session state file unreadable, starting empty")
		}
		return
	}

	// Drop tokens that expired while the process was down. A token whose
	// expiry was never known outlives its write by the default TTL only.
	now := fs.nowFunc()
	if state.AccessToken != "" {
		switch {
		case state.ExpiresAt != nil && expired(now, *state.ExpiresAt, 0):
			state.AccessToken = ""
			state.ExpiresAt = nil
		case state.ExpiresAt == nil && (state.WrittenAt == nil || now.Sub(*state.WrittenAt) >= fs.defaultTTL):
			state.AccessToken = ""
		}
	}

	fs.state = state
}

func (fs *FileStore) SetToken(token string, expiresAt *time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.nowFunc()
	if expiresAt != nil && expired(now, *expiresAt, 0) {
		fs.state.AccessToken = ""
		fs.state.ExpiresAt = nil
		fs.persistLocked()
		return
	}

	fs.state.AccessToken = token
	fs.state.ExpiresAt = expiresAt
	fs.state.WrittenAt = &now
	fs.persistLocked()
}

func (fs *FileStore) Token() (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.state.AccessToken == "" {
		return "", false
	}
	return fs.state.AccessToken, true
}

func (fs *FileStore) TokenExpiry() (time.Time, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.state.ExpiresAt == nil {
		return time.Time{}, false
	}
	return *fs.state.ExpiresAt, true
}

func (fs *FileStore) IsTokenExpired(buffer time.Duration) bool {
	expiresAt, ok := fs.TokenExpiry()
	if !ok {
		return true
	}
	return expired(fs.nowFunc(), expiresAt, buffer)
}

func (fs *FileStore) SetRememberMe(remember bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.state.RememberMe = remember
	fs.persistLocked()
}

func (fs *FileStore) RememberMe() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.state.RememberMe
}

func (fs *FileStore) SetSessionStart(start time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.state.SessionStart = &start
	fs.persistLocked()
}

func (fs *FileStore) SessionStart() (time.Time, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.state.SessionStart == nil {
		return time.Time{}, false
	}
	return *fs.state.SessionStart, true
}

func (fs *FileStore) ClearAll() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.state = fileState{}
	if fs.path == "" {
		return
	}
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", fs.path).Msg("session state file removal failed")
	}
}

func (fs *FileStore) persistLocked() {
	if fs.path == "" {
		return
	}

	buf, err := toml.Marshal(fs.state)
	if err != nil {
		log.Warn().Err(err).Msg("session state encoding failed, continuing in memory")
		return
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		log.Warn().Err(err).Str("path", fs.path).Msg("session state folder creation failed, continuing in memory")
		return
	}
	if err := os.WriteFile(fs.path, buf, 0o600); err != nil {
		log.Warn().Err(err).Str("path", fs.path).Msg("session state write failed, continuing in memory")
	}
}
