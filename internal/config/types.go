package config

import "meetremind/internal/reminder"

// Config is the on-disk configuration (JSON, or YAML coerced to JSON).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Zero values mean "use the default" unless noted.
type Config struct {
	Server   ServerConfig     `json:"server"`
	Logging  LoggingConfig    `json:"logging"`
	API      APIConfig        `json:"api"`
	Skill    SkillConfig      `json:"skill"`
	Metrics  MetricsConfig    `json:"metrics"`
	Pprof    PprofConfig      `json:"pprof,omitempty"`
	Messages reminder.Catalog `json:"messages"`
}

// ServerConfig controls the webhook HTTP listener.
//
// Defaults:
//   - addr: ":8080"
//   - path: "/"
//   - read_timeout: "10s", write_timeout: "10s", idle_timeout: "60s"
//   - max_body_bytes: 262144
type ServerConfig struct {
	Addr         string `json:"addr,omitempty"`
	Path         string `json:"path,omitempty"`
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
	MaxBodyBytes int64  `json:"max_body_bytes,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// APIConfig controls outbound calls to the platform APIs.
//
// Defaults: timeout "8s", rate_per_sec 0 (unlimited), max_body_bytes 65536.
type APIConfig struct {
	Timeout      string `json:"timeout,omitempty"`
	RatePerSec   int    `json:"rate_per_sec,omitempty"`
	MaxBodyBytes int64  `json:"max_body_bytes,omitempty"`
}

type SkillConfig struct {
	// SkillID, when set, must match the application id of every request.
	SkillID string `json:"skill_id,omitempty"`
	// ParallelCreate books both reminders concurrently.
	ParallelCreate bool `json:"parallel_create,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // default: "/metrics"
}

// PprofConfig controls the optional profiling listener. It is applied
// live on reload.
//
// Prefer binding to localhost (the default "127.0.0.1:6060"). A non-loopback
// address needs a token or an explicit allow_insecure.
type PprofConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`
	Prefix        string `json:"prefix,omitempty"` // default: "/debug/pprof/"
	Token         string `json:"token,omitempty"`  // never logged
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	ReadTimeout   string `json:"read_timeout,omitempty"`
	IdleTimeout   string `json:"idle_timeout,omitempty"`
}

const (
	DefaultServerAddr     = ":8080"
	DefaultServerPath     = "/"
	DefaultServerMaxBody  = 256 << 10
	DefaultAPIMaxBody     = 64 << 10
	DefaultMetricsPath    = "/metrics"
	DefaultReadTimeout    = "10s"
	DefaultWriteTimeout   = "10s"
	DefaultIdleTimeout    = "60s"
	DefaultAPITimeout     = "8s"
	DefaultConfigFilePath = "./config.yaml"
)

// Default returns the configuration used when a section is omitted.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			Path:         DefaultServerPath,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MaxBodyBytes: DefaultServerMaxBody,
		},
		Logging: LoggingConfig{Level: "info", Console: true},
		API: APIConfig{
			Timeout:      DefaultAPITimeout,
			MaxBodyBytes: DefaultAPIMaxBody,
		},
		Metrics: MetricsConfig{Enabled: true, Path: DefaultMetricsPath},
	}
}

// Catalog returns the default messages with configured overrides applied.
func (c *Config) Catalog() reminder.Catalog {
	if c == nil {
		return reminder.DefaultCatalog()
	}
	return reminder.DefaultCatalog().Merge(c.Messages)
}
