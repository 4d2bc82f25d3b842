package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/talkbot/internal/config"
	"github.com/specialistvlad/talkbot/internal/engine"
)

// Defaults applied by NewConfig to empty fields.
const (
	DefaultPrompt    = "> "
	DefaultLogFormat = "text"
	DefaultLogLevel  = "warn"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScriptPath  string // file or directory of .talk files
	Entry       string
	ErrorPolicy string
	SpinLimit   int
	Variables   map[string]string
	Prompt      string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	ServeAddress string // non-empty selects server mode
	ServePath    string
	ConnectURL   string // non-empty selects remote client mode
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ServeAddress != "" && cfg.ConnectURL != "" {
		return nil, errors.New("serve and connect cannot be used together")
	}
	if cfg.ScriptPath == "" && cfg.ConnectURL == "" {
		return nil, errors.New("ScriptPath is a required configuration field and cannot be empty")
	}
	if _, err := engine.ParsePolicy(cfg.ErrorPolicy); err != nil {
		return nil, err
	}
	if cfg.SpinLimit < 0 {
		return nil, fmt.Errorf("invalid spin-limit %d: must not be negative", cfg.SpinLimit)
	}
	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("invalid healthcheck-port %d: must not be negative", cfg.HealthcheckPort)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return &cfg, nil
}

// ApplyModel overlays the non-zero settings of a run-config file onto cfg.
func (cfg *Config) ApplyModel(m *config.Model) {
	if m == nil {
		return
	}
	setString(&cfg.ScriptPath, m.Script)
	setString(&cfg.Entry, m.Entry)
	setString(&cfg.ErrorPolicy, m.ErrorPolicy)
	setString(&cfg.LogLevel, m.LogLevel)
	setString(&cfg.LogFormat, m.LogFormat)
	setString(&cfg.Prompt, m.Prompt)
	if m.SpinLimit != 0 {
		cfg.SpinLimit = m.SpinLimit
	}
	if len(m.Variables) > 0 {
		if cfg.Variables == nil {
			cfg.Variables = make(map[string]string, len(m.Variables))
		}
		for k, v := range m.Variables {
			cfg.Variables[k] = v
		}
	}
	if m.Server != nil {
		setString(&cfg.ServeAddress, m.Server.Address)
		setString(&cfg.ServePath, m.Server.Path)
		if m.Server.HealthcheckPort != 0 {
			cfg.HealthcheckPort = m.Server.HealthcheckPort
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// sessionOptions translates the validated config into engine options.
func (cfg *Config) sessionOptions() engine.Options {
	policy, _ := engine.ParsePolicy(cfg.ErrorPolicy)
	return engine.Options{
		Entry:     cfg.Entry,
		Policy:    policy,
		SpinLimit: cfg.SpinLimit,
		Variables: cfg.Variables,
	}
}
