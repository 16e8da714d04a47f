package config

import "time"

type SessionConfig interface {
	GetRefreshInterval() time.Duration
	GetRefreshBuffer() time.Duration
	GetMonitorInterval() time.Duration
	GetMaxSessionDuration() time.Duration
	GetWarnBuffer() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetRefreshInterval is how often the refresh scheduler checks token expiry.
func (Session) GetRefreshInterval() time.Duration {
	return time.Minute
}

// GetRefreshBuffer is how long before expiry a proactive refresh is attempted.
func (Session) GetRefreshBuffer() time.Duration {
	return 10 * time.Minute
}

// GetMonitorInterval is how often the timeout monitor checks session duration.
func (Session) GetMonitorInterval() time.Duration {
	return 10 * time.Second
}

func (Session) GetMaxSessionDuration() time.Duration {
	return 30 * time.Minute
}

// GetWarnBuffer is how long before the session timeout the warning is shown.
func (Session) GetWarnBuffer() time.Duration {
	return 5 * time.Minute
}
