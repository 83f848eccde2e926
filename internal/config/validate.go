package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	logx "meetremind/pkg/logx"
)

// ServerSettings is ServerConfig with defaults applied and durations parsed.
type ServerSettings struct {
	Addr         string
	Path         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

func (c ServerConfig) Resolve() (ServerSettings, error) {
	s := ServerSettings{
		Addr:         strings.TrimSpace(c.Addr),
		Path:         strings.TrimSpace(c.Path),
		MaxBodyBytes: c.MaxBodyBytes,
	}
	if s.Addr == "" {
		s.Addr = DefaultServerAddr
	}
	if s.Path == "" {
		s.Path = DefaultServerPath
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultServerMaxBody
	}
	var err error
	if s.ReadTimeout, err = durationOr("server.read_timeout", c.ReadTimeout, DefaultReadTimeout); err != nil {
		return ServerSettings{}, err
	}
	if s.WriteTimeout, err = durationOr("server.write_timeout", c.WriteTimeout, DefaultWriteTimeout); err != nil {
		return ServerSettings{}, err
	}
	if s.IdleTimeout, err = durationOr("server.idle_timeout", c.IdleTimeout, DefaultIdleTimeout); err != nil {
		return ServerSettings{}, err
	}
	return s, nil
}

func (c APIConfig) TimeoutDuration() (time.Duration, error) {
	return durationOr("api.timeout", c.Timeout, DefaultAPITimeout)
}

// Timeouts parses the debug listener timeouts.
func (c PprofConfig) Timeouts() (read, idle time.Duration, err error) {
	if read, err = durationOr("pprof.read_timeout", c.ReadTimeout, DefaultReadTimeout); err != nil {
		return 0, 0, err
	}
	if idle, err = durationOr("pprof.idle_timeout", c.IdleTimeout, DefaultIdleTimeout); err != nil {
		return 0, 0, err
	}
	return read, idle, nil
}

// durationOr parses the Go duration at path. Blank and zero values fall
// back to def, one of the Default* duration constants.
func durationOr(path, raw, def string) (time.Duration, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		v = def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	if d == 0 && v != def {
		return time.ParseDuration(def)
	}
	return d, nil
}

func (c MetricsConfig) PathOrDefault() string {
	if p := strings.TrimSpace(c.Path); p != "" {
		return p
	}
	return DefaultMetricsPath
}

// LogxConfig maps the logging section onto the logger service config.
func (c LoggingConfig) LogxConfig() logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

// Validate reports every problem in cfg at once.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error

	srv, srvErr := cfg.Server.Resolve()
	if srvErr != nil {
		errs = append(errs, srvErr)
	}
	if srvErr == nil && !strings.HasPrefix(srv.Path, "/") {
		errs = append(errs, fmt.Errorf("server.path: must start with '/': %q", srv.Path))
	}
	if srvErr == nil && (srv.Path == "/livez" || srv.Path == "/readyz") {
		errs = append(errs, fmt.Errorf("server.path: %q is reserved for health checks", srv.Path))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max_body_bytes: must be >= 0"))
	}

	if lvl := strings.TrimSpace(cfg.Logging.Level); lvl != "" && !logx.ValidLevel(lvl) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", lvl))
	}

	if _, err := cfg.API.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if cfg.API.RatePerSec < 0 {
		errs = append(errs, errors.New("api.rate_per_sec: must be >= 0"))
	}
	if cfg.API.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("api.max_body_bytes: must be >= 0"))
	}

	mp := cfg.Metrics.PathOrDefault()
	if !strings.HasPrefix(mp, "/") {
		errs = append(errs, fmt.Errorf("metrics.path: must start with '/': %q", mp))
	}
	if cfg.Metrics.Enabled && srvErr == nil && mp == srv.Path {
		errs = append(errs, fmt.Errorf("metrics.path: collides with server.path %q", mp))
	}

	if _, _, err := cfg.Pprof.Timeouts(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
