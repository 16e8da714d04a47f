package config

type Config interface {
	EnvConfig
	SessionConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetDataFolder() string
}

type mainConfig struct {
	EnvVars
	Session
	Store
}

func New() Config {
	return mainConfig{}
}
