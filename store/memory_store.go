package store

import (
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Storage keys, one per persisted session field.
const (
	tokenKey    = "access_token"
	expiryKey   = "token_expiry"
	rememberKey = "remember_me"
	startKey    = "session_start"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps session state in a TTL cache. It is the fallback
// medium when no persistent store is available and the default for tests:
// token entries evict themselves at expiry the way a cookie's max-age
// would.
type MemoryStore struct {
	cache      *ttlcache.Cache[string, string]
	nowFunc    func() time.Time
	defaultTTL time.Duration
}

func NewMemoryStore(options ...Option) *MemoryStore {
	st := newSettings(options...)
	cache := ttlcache.New(
		ttlcache.WithTTL[string, string](st.defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	// Start the eviction process
	go cache.Start()

	return &MemoryStore{
		cache:      cache,
		nowFunc:    st.nowFunc,
		defaultTTL: st.defaultTTL,
	}
}

func (s *MemoryStore) SetToken(token string, expiresAt *time.Time) {
	ttl := s.defaultTTL
	if expiresAt != nil {
		ttl = expiresAt.Sub(s.nowFunc())
		if ttl <= 0 {
			// A non-positive lifetime is a deletion, cookie-style.
			s.cache.Delete(tokenKey)
			s.cache.Delete(expiryKey)
			return
		}
		s.cache.Set(expiryKey, expiresAt.Format(time.RFC3339Nano), ttl)
	} else {
		s.cache.Delete(expiryKey)
	}
	s.cache.Set(tokenKey, token, ttl)
}

func (s *MemoryStore) Token() (string, bool) {
	item := s.cache.Get(tokenKey)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (s *MemoryStore) TokenExpiry() (time.Time, bool) {
	item := s.cache.Get(expiryKey)
	if item == nil {
		return time.Time{}, false
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, item.Value())
	if err != nil {
		return time.Time{}, false
	}
	return expiresAt, true
}

func (s *MemoryStore) IsTokenExpired(buffer time.Duration) bool {
	expiresAt, ok := s.TokenExpiry()
	if !ok {
		return true
	}
	return expired(s.nowFunc(), expiresAt, buffer)
}

func (s *MemoryStore) SetRememberMe(remember bool) {
	s.cache.Set(rememberKey, strconv.FormatBool(remember), ttlcache.NoTTL)
}

func (s *MemoryStore) RememberMe() bool {
	item := s.cache.Get(rememberKey)
	if item == nil {
		return false
	}
	remember, err := strconv.ParseBool(item.Value())
	return err == nil && remember
}

func (s *MemoryStore) SetSessionStart(start time.Time) {
	s.cache.Set(startKey, start.Format(time.RFC3339Nano), ttlcache.NoTTL)
}

func (s *MemoryStore) SessionStart() (time.Time, bool) {
	item := s.cache.Get(startKey)
	if item == nil {
		return time.Time{}, false
	}
	start, err := time.Parse(time.RFC3339Nano, item.Value())
	if err != nil {
		return time.Time{}, false
	}
	return start, true
}

func (s *MemoryStore) ClearAll() {
	s.cache.DeleteAll()
}

// Close stops the eviction goroutine.
func (s *MemoryStore) Close() {
	s.cache.Stop()
}
