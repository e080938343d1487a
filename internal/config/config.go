package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	DefaultConfigPath         = "config.toml"
	DefaultHTTPAddr           = ":3000"
	DefaultLINEAPIBaseURL     = "https://api.line.me"
	DefaultTimeoutSeconds     = 5
	DefaultDispatchWorkers    = 4
	DefaultTokenCheckSchedule = "@every 30m"
)

// DefaultSubjectKeywords mark a line as the notification subject.
var DefaultSubjectKeywords = []string{
	"簡報", "報告", "監測", "監控", "通報", "會議",
	"presentation", "briefing", "report", "monitoring",
}

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	LINE      LINEConfig      `toml:"line"`
	Teams     TeamsConfig     `toml:"teams"`
	Dispatch  DispatchConfig  `toml:"dispatch"`
	Health    HealthConfig    `toml:"health"`
	Extractor ExtractorConfig `toml:"extractor"`
}

type LogConfig struct {
	Level  string `toml:"level"  env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LINEConfig struct {
	APIBaseURL     string `toml:"api_base_url"    env:"LINE_API_BASE_URL"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type TeamsConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type DispatchConfig struct {
	Concurrency int `toml:"concurrency"`
}

type HealthConfig struct {
	TokenCheckSchedule string `toml:"token_check_schedule"`
}

type ExtractorConfig struct {
	SubjectKeywords []string `toml:"subject_keywords"`
}

// envOverrides holds process variables that win over the file.
type envOverrides struct {
	Port string `env:"PORT"`
	Log  LogConfig
	LINE LINEConfig
}

// Load reads the TOML file at path (missing file means defaults) and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		LINE: LINEConfig{
			APIBaseURL:     DefaultLINEAPIBaseURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Teams: TeamsConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Dispatch: DispatchConfig{
			Concurrency: DefaultDispatchWorkers,
		},
		Health: HealthConfig{
			TokenCheckSchedule: DefaultTokenCheckSchedule,
		},
		Extractor: ExtractorConfig{
			SubjectKeywords: DefaultSubjectKeywords,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	overrides := envOverrides{Log: cfg.Log, LINE: cfg.LINE}
	if err := env.Parse(&overrides); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.Log = overrides.Log
	cfg.LINE = overrides.LINE
	if port := strings.TrimSpace(overrides.Port); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultHTTPAddr
	}
	c.LINE.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.LINE.APIBaseURL), "/")
	if c.LINE.APIBaseURL == "" {
		c.LINE.APIBaseURL = DefaultLINEAPIBaseURL
	}
	if c.LINE.TimeoutSeconds <= 0 {
		c.LINE.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Teams.TimeoutSeconds <= 0 {
		c.Teams.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Dispatch.Concurrency <= 0 {
		c.Dispatch.Concurrency = DefaultDispatchWorkers
	}
	if len(c.Extractor.SubjectKeywords) == 0 {
		c.Extractor.SubjectKeywords = DefaultSubjectKeywords
	}
}
