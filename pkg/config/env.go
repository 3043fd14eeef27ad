package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHost        = "STUBROUTER_HOST"
	EnvPort        = "STUBROUTER_PORT"
	EnvAdminURL    = "STUBROUTER_ADMIN_URL"
	EnvConfig      = "STUBROUTER_CONFIG"
	EnvTargets     = "STUBROUTER_TARGETS"
	EnvStorageType = "STUBROUTER_STORAGE_TYPE"
	EnvStoragePath = "STUBROUTER_STORAGE_PATH"
	EnvTokenSecret = "STUBROUTER_TOKEN_SECRET"
	EnvToken       = "STUBROUTER_TOKEN"
	EnvLogLevel    = "STUBROUTER_LOG_LEVEL"
	EnvLogFormat   = "STUBROUTER_LOG_FORMAT"
)

// LoadEnv applies the STUBROUTER_* variables that are set. An unparsable
// port is ignored.
func LoadEnv(cfg *Config) {
	env := &Config{}

	env.Host = os.Getenv(EnvHost)
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			env.Port = port
		}
	}
	env.AdminURL = os.Getenv(EnvAdminURL)
	if v := os.Getenv(EnvTargets); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				env.Targets = append(env.Targets, t)
			}
		}
	}
	env.Storage.Type = os.Getenv(EnvStorageType)
	env.Storage.Path = os.Getenv(EnvStoragePath)
	env.Auth.TokenSecret = os.Getenv(EnvTokenSecret)
	env.Token = os.Getenv(EnvToken)
	env.Log.Level = os.Getenv(EnvLogLevel)
	env.Log.Format = os.Getenv(EnvLogFormat)

	Merge(cfg, env, SourceEnv)

	if v := os.Getenv(EnvConfig); v != "" && cfg.ConfigFile == "" {
		cfg.ConfigFile = v
		cfg.Sources["configFile"] = SourceEnv
	}
}
