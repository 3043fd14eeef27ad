package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/stubrouter/pkg/stubstore"
)

// isolate points the global config dir at an empty directory, moves into
// an empty working directory and clears STUBROUTER_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		EnvHost, EnvPort, EnvAdminURL, EnvConfig, EnvTargets, EnvStorageType,
		EnvStoragePath, EnvTokenSecret, EnvToken, EnvLogLevel, EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	if cfg.Addr() != "0.0.0.0:3333" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.AdminURL != DefaultAdminURL {
		t.Errorf("AdminURL = %q", cfg.AdminURL)
	}
	if cfg.Storage.Type != stubstore.TypeMemory {
		t.Errorf("Storage.Type = %q", cfg.Storage.Type)
	}
	if cfg.Storage.Cache.Expiration != 30*time.Minute || cfg.Storage.Cache.Cleanup != 60*time.Minute {
		t.Errorf("cache intervals = %v/%v", cfg.Storage.Cache.Expiration, cfg.Storage.Cache.Cleanup)
	}
	if cfg.Sources["port"] != SourceDefault {
		t.Errorf("Sources[port] = %q", cfg.Sources["port"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port too high", func(c *Config) { c.Port = 70000 }, "port 70000 is out of range"},
		{"port zero", func(c *Config) { c.Port = 0 }, "port 0 is out of range"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "mongo" }, `storage.type "mongo"`},
		{"redis without url", func(c *Config) { c.Storage.Type = "redis" }, "redis url"},
		{"negative ttl", func(c *Config) { c.Session.TTL = -time.Second }, "session.ttl"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"uppercase level ok", func(c *Config) { c.Log.Level = "DEBUG" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFile_YAMLAndTOML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "stubrouter.yaml")
	writeFile(t, yamlPath, `
port: 8080
targets: [svcA, svcB]
storage:
  type: file
  path: /var/lib/stubs
  cache:
    enabled: true
    expiration: 5m
auth:
  tokenSecret: s3cret
  userField: login
session:
  ttl: 1h
log:
  level: debug
`)
	tomlPath := filepath.Join(dir, "stubrouter.toml")
	writeFile(t, tomlPath, `
port = 8080
targets = ["svcA", "svcB"]

[storage]
type = "file"
path = "/var/lib/stubs"

[storage.cache]
enabled = true
expiration = "5m"

[auth]
token_secret = "s3cret"
user_field = "login"

[session]
ttl = "1h"

[log]
level = "debug"
`)

	for _, path := range []string{yamlPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if cfg.Port != 8080 {
				t.Errorf("Port = %d", cfg.Port)
			}
			if strings.Join(cfg.Targets, ",") != "svcA,svcB" {
				t.Errorf("Targets = %v", cfg.Targets)
			}
			if cfg.Storage.Type != "file" || cfg.Storage.Path != "/var/lib/stubs" {
				t.Errorf("Storage = %+v", cfg.Storage)
			}
			if !cfg.Storage.Cache.Enabled || cfg.Storage.Cache.Expiration != 5*time.Minute {
				t.Errorf("Storage.Cache = %+v", cfg.Storage.Cache)
			}
			if cfg.Auth.TokenSecret != "s3cret" || cfg.Auth.UserField != "login" {
				t.Errorf("Auth = %+v", cfg.Auth)
			}
			if cfg.Session.TTL != time.Hour {
				t.Errorf("Session.TTL = %v", cfg.Session.TTL)
			}
			if cfg.Log.Level != "debug" {
				t.Errorf("Log.Level = %q", cfg.Log.Level)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "host = \"x\"\nport = = 2\n")
	_, err = LoadFile(bad)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if ce.Line != 2 {
		t.Errorf("Line = %d, want 2", ce.Line)
	}

	badYAML := filepath.Join(dir, "bad.yaml")
	writeFile(t, badYAML, "port: [1\n")
	_, err = LoadFile(badYAML)
	if !errors.As(err, &ce) {
		t.Errorf("error = %v, want *ConfigError", err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), GlobalConfigDir, "config.yaml"),
		"port: 4000\nhost: 127.0.0.1\nadminUrl: http://global:1\n")
	writeFile(t, filepath.Join(dir, ".stubrouter.toml"), "port = 5000\n")
	t.Setenv(EnvAdminURL, "http://env:2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 5000 || cfg.Sources["port"] != SourceLocal {
		t.Errorf("port = %d from %q, want 5000 from local", cfg.Port, cfg.Sources["port"])
	}
	if cfg.Host != "127.0.0.1" || cfg.Sources["host"] != SourceGlobal {
		t.Errorf("host = %q from %q, want global", cfg.Host, cfg.Sources["host"])
	}
	if cfg.AdminURL != "http://env:2" || cfg.Sources["adminUrl"] != SourceEnv {
		t.Errorf("adminUrl = %q from %q, want env", cfg.AdminURL, cfg.Sources["adminUrl"])
	}
	if cfg.Sources["log.level"] != SourceDefault {
		t.Errorf("log.level source = %q", cfg.Sources["log.level"])
	}
}

func TestLoad_ExplicitFileReplacesSearch(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".stubrouter.yaml"), "port: 5000\n")
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, explicit, "port: 6000\n")

	cfg, err := Load(explicit)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 6000 || cfg.Sources["port"] != SourceFile {
		t.Errorf("port = %d from %q", cfg.Port, cfg.Sources["port"])
	}
	if cfg.ConfigFile != explicit {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}

	t.Setenv(EnvConfig, explicit)
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() via env error = %v", err)
	}
	if cfg.Port != 6000 {
		t.Errorf("port = %d via %s", cfg.Port, EnvConfig)
	}

	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvTargets, "svcA, svcB,,")
	t.Setenv(EnvStorageType, "redis")
	t.Setenv(EnvStoragePath, "redis://localhost:6379/0")
	t.Setenv(EnvTokenSecret, "s3cret")
	t.Setenv(EnvLogFormat, "json")

	cfg := NewDefault()
	LoadEnv(cfg)

	if cfg.Port != 9000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if strings.Join(cfg.Targets, "|") != "svcA|svcB" {
		t.Errorf("Targets = %q", cfg.Targets)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.Path != "redis://localhost:6379/0" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Auth.TokenSecret != "s3cret" || cfg.Log.Format != "json" {
		t.Errorf("Auth/Log = %+v %+v", cfg.Auth, cfg.Log)
	}
	if cfg.Sources["storage.type"] != SourceEnv {
		t.Errorf("Sources[storage.type] = %q", cfg.Sources["storage.type"])
	}

	t.Setenv(EnvPort, "not-a-port")
	cfg = NewDefault()
	LoadEnv(cfg)
	if cfg.Port != DefaultPort {
		t.Errorf("unparsable port applied: %d", cfg.Port)
	}
}

func TestMerge_KeepsDestinationForZeroValues(t *testing.T) {
	dst := NewDefault()
	Merge(dst, &Config{Log: LogConfig{Level: "error"}}, SourceFlag)
	Merge(dst, nil, SourceFlag)

	if dst.Port != DefaultPort || dst.Sources["port"] != SourceDefault {
		t.Errorf("port changed: %d from %q", dst.Port, dst.Sources["port"])
	}
	if dst.Log.Level != "error" || dst.Sources["log.level"] != SourceFlag {
		t.Errorf("log.level = %q from %q", dst.Log.Level, dst.Sources["log.level"])
	}
}
