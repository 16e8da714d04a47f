package config

import (
	"path/filepath"
	"time"
)

const stateFileVar = "SESSION_STATE_FILE"

type StoreConfig interface {
	GetDefaultTokenTTL() time.Duration
	GetStateFilePath() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetDefaultTokenTTL is the persisted lifetime of a token whose expiry is
// unknown at write time.
func (Store) GetDefaultTokenTTL() time.Duration {
	return time.Hour
}

func (Store) GetStateFilePath() string {
	return GetEnv(stateFileVar, filepath.Join(EnvVars{}.GetDataFolder(), "session.toml"))
}
