package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory under the user config dir.
const GlobalConfigDir = "stubrouter"

// LocalConfigFileNames are searched in the working directory, in order.
var LocalConfigFileNames = []string{".stubrouter.yaml", ".stubrouter.yml", ".stubrouter.toml"}

// GlobalConfigFileNames are searched in the global config dir, in order.
var GlobalConfigFileNames = []string{"config.yaml", "config.yml", "config.toml"}

// ConfigError is a config file that could not be parsed.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return e.Path + ": " + e.Message
}

// LoadFile reads a YAML or TOML config file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			ce := &ConfigError{Path: path, Message: err.Error()}
			var pe toml.ParseError
			if errors.As(err, &pe) {
				ce.Line = pe.Position.Line
				ce.Message = pe.Message
			}
			return nil, ce
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, &ConfigError{Path: path, Message: err.Error()}
		}
	}
	return &cfg, nil
}

func findFile(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindLocal returns the local config file, or "".
func FindLocal() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findFile(cwd, LocalConfigFileNames)
}

// FindGlobal returns the global config file, or "".
func FindGlobal() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return findFile(filepath.Join(dir, GlobalConfigDir), GlobalConfigFileNames)
}

// Load builds the configuration from defaults, config files and the
// environment. explicit, when set, names the only config file to read and
// must exist. Flags are applied by the caller on top of the result.
func Load(explicit string) (*Config, error) {
	cfg := NewDefault()
	if explicit == "" {
		explicit = os.Getenv(EnvConfig)
	}

	if explicit != "" {
		fileCfg, err := LoadFile(explicit)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		Merge(cfg, fileCfg, SourceFile)
		cfg.ConfigFile = explicit
	} else {
		for _, layer := range []struct {
			path   string
			source string
		}{
			{FindGlobal(), SourceGlobal},
			{FindLocal(), SourceLocal},
		} {
			if layer.path == "" {
				continue
			}
			fileCfg, err := LoadFile(layer.path)
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			Merge(cfg, fileCfg, layer.source)
		}
	}

	LoadEnv(cfg)
	return cfg, nil
}
