package app

import (
	"meetremind/internal/alexaapi"
	"meetremind/internal/config"
	"meetremind/internal/observability/pprof"
	"meetremind/internal/server"
	"meetremind/internal/skill"
)

func mapServerConfig(cfg *config.Config) (server.Config, error) {
	s, err := cfg.Server.Resolve()
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:           s.Addr,
		Path:           s.Path,
		ReadTimeout:    s.ReadTimeout,
		WriteTimeout:   s.WriteTimeout,
		IdleTimeout:    s.IdleTimeout,
		MaxBodyBytes:   s.MaxBodyBytes,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.PathOrDefault(),
	}, nil
}

func mapAPIConfig(cfg *config.Config) (alexaapi.Config, error) {
	timeout, err := cfg.API.TimeoutDuration()
	if err != nil {
		return alexaapi.Config{}, err
	}
	return alexaapi.Config{
		Timeout:      timeout,
		RatePerSec:   cfg.API.RatePerSec,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
	}, nil
}

func mapSkillOptions(cfg *config.Config) skill.Options {
	return skill.Options{
		SkillID:        cfg.Skill.SkillID,
		ParallelCreate: cfg.Skill.ParallelCreate,
	}
}

func mapPprofConfig(cfg *config.Config) (pprof.Config, error) {
	p := cfg.Pprof
	readTimeout, idleTimeout, err := p.Timeouts()
	if err != nil {
		return pprof.Config{}, err
	}
	out := pprof.Config{
		Enabled:       p.Enabled,
		Addr:          p.Addr,
		Prefix:        p.Prefix,
		Token:         p.Token,
		AllowInsecure: p.AllowInsecure,
		ReadTimeout:   readTimeout,
		IdleTimeout:   idleTimeout,
	}
	return out, out.Validate()
}
