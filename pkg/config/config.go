// Package config loads stubrouter settings.
//
// Values are layered with the following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (STUBROUTER_*)
//  3. Local config file (.stubrouter.yaml / .stubrouter.toml in the working directory)
//  4. Global config file (~/.config/stubrouter/config.yaml or config.toml)
//  5. Default values (lowest priority)
//
// A file given with --config or STUBROUTER_CONFIG replaces the local and
// global files. YAML or TOML is chosen by file extension.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/stubrouter/pkg/stubstore"
)

// Defaults.
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 3333
	DefaultAdminURL   = "http://localhost:3333"
	DefaultUserField  = "userid"
	DefaultSessionTTL = 24 * time.Hour
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Value sources.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// AuthConfig configures bearer tokens on the store API.
type AuthConfig struct {
	// TokenSecret signs and verifies HS256 tokens. Empty disables auth.
	TokenSecret string `yaml:"tokenSecret" toml:"token_secret" json:"-"`
	// UserField is the token claim that names the operator.
	UserField string `yaml:"userField" toml:"user_field" json:"userField"`
}

// SessionConfig configures web UI editor sessions.
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl" toml:"ttl" json:"ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Config is the complete stubrouter configuration.
type Config struct {
	// Server settings
	Host    string           `yaml:"host" toml:"host" json:"host"`
	Port    int              `yaml:"port" toml:"port" json:"port"`
	Targets []string         `yaml:"targets" toml:"targets" json:"targets"`
	Storage stubstore.Config `yaml:"storage" toml:"storage" json:"storage"`
	Auth    AuthConfig       `yaml:"auth" toml:"auth" json:"auth"`
	Session SessionConfig    `yaml:"session" toml:"session" json:"session"`
	Log     LogConfig        `yaml:"log" toml:"log" json:"log"`

	// Client settings
	AdminURL string `yaml:"adminUrl" toml:"admin_url" json:"adminUrl"`
	Token    string `yaml:"token" toml:"token" json:"-"`

	// ConfigFile is the explicitly requested config file, if any.
	ConfigFile string `yaml:"-" toml:"-" json:"configFile,omitempty"`

	// Sources tracks where each value came from.
	Sources map[string]string `yaml:"-" toml:"-" json:"-"`
}

// NewDefault returns a Config holding the defaults.
func NewDefault() *Config {
	cfg := &Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		AdminURL: DefaultAdminURL,
		Storage: stubstore.Config{
			Type: stubstore.TypeMemory,
			Cache: stubstore.CacheConfig{
				Expiration: stubstore.DefaultCacheExpiration,
				Cleanup:    stubstore.DefaultCacheCleanup,
			},
		},
		Auth:    AuthConfig{UserField: DefaultUserField},
		Session: SessionConfig{TTL: DefaultSessionTTL},
		Log:     LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Sources: make(map[string]string),
	}
	for _, key := range []string{
		"host", "port", "adminUrl", "storage.type", "storage.cache.expiration",
		"storage.cache.cleanup", "auth.userField", "session.ttl", "log.level", "log.format",
	} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range (1-65535)", c.Port))
	}
	switch c.Storage.Type {
	case stubstore.TypeMemory, stubstore.TypeFile, stubstore.TypeRedis:
	default:
		errs = append(errs, fmt.Errorf("storage.type %q is not one of memory, file, redis", c.Storage.Type))
	}
	if c.Storage.Type == stubstore.TypeRedis && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path must hold the redis url"))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("session.ttl %s is negative", c.Session.TTL))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	return errors.Join(errs...)
}
