package config

import (
	"sort"
	"strings"

	logx "meetremind/pkg/logx"
)

// Sections that only take effect after a process restart.
var restartSections = map[string]bool{
	"server":  true,
	"api":     true,
	"skill":   true,
	"metrics": true,
}

// SummarizeConfigChange returns (1) the sorted list of changed sections,
// (2) safe structured fields for logging, and (3) the subset of changed
// sections that need a restart to apply.
//
// The skill id and pprof token are never logged, only whether they are set.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field, []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	o, n := oldCfg.Server, newCfg.Server
	if strings.TrimSpace(o.Addr) != strings.TrimSpace(n.Addr) ||
		strings.TrimSpace(o.Path) != strings.TrimSpace(n.Path) ||
		strings.TrimSpace(o.ReadTimeout) != strings.TrimSpace(n.ReadTimeout) ||
		strings.TrimSpace(o.WriteTimeout) != strings.TrimSpace(n.WriteTimeout) ||
		strings.TrimSpace(o.IdleTimeout) != strings.TrimSpace(n.IdleTimeout) ||
		o.MaxBodyBytes != n.MaxBodyBytes {
		changed = append(changed, "server")
		attrs = append(attrs,
			logx.String("server.addr", strings.TrimSpace(n.Addr)),
			logx.String("server.path", strings.TrimSpace(n.Path)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if strings.TrimSpace(oldCfg.API.Timeout) != strings.TrimSpace(newCfg.API.Timeout) ||
		oldCfg.API.RatePerSec != newCfg.API.RatePerSec ||
		oldCfg.API.MaxBodyBytes != newCfg.API.MaxBodyBytes {
		changed = append(changed, "api")
		attrs = append(attrs,
			logx.String("api.timeout", strings.TrimSpace(newCfg.API.Timeout)),
			logx.Int("api.rate_per_sec", newCfg.API.RatePerSec),
		)
	}

	if strings.TrimSpace(oldCfg.Skill.SkillID) != strings.TrimSpace(newCfg.Skill.SkillID) ||
		oldCfg.Skill.ParallelCreate != newCfg.Skill.ParallelCreate {
		changed = append(changed, "skill")
		attrs = append(attrs,
			logx.Bool("skill.skill_id_set", strings.TrimSpace(newCfg.Skill.SkillID) != ""),
			logx.Bool("skill.parallel_create", newCfg.Skill.ParallelCreate),
		)
	}

	if oldCfg.Metrics.Enabled != newCfg.Metrics.Enabled ||
		oldCfg.Metrics.PathOrDefault() != newCfg.Metrics.PathOrDefault() {
		changed = append(changed, "metrics")
		attrs = append(attrs,
			logx.Bool("metrics.enabled", newCfg.Metrics.Enabled),
			logx.String("metrics.path", newCfg.Metrics.PathOrDefault()),
		)
	}

	// Pprof (never log token)
	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, "pprof")
		attrs = append(attrs,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", strings.TrimSpace(newCfg.Pprof.Addr)),
			logx.Bool("pprof.token_set", strings.TrimSpace(newCfg.Pprof.Token) != ""),
			logx.Bool("pprof.allow_insecure", newCfg.Pprof.AllowInsecure),
		)
	}

	if oldCfg.Messages != newCfg.Messages {
		changed = append(changed, "messages")
		attrs = append(attrs, logx.Int("messages.overrides", countOverrides(newCfg)))
	}

	sort.Strings(changed)
	var restart []string
	for _, s := range changed {
		if restartSections[s] {
			restart = append(restart, s)
		}
	}
	return changed, attrs, restart
}

func countOverrides(cfg *Config) int {
	n := 0
	for _, v := range []string{
		cfg.Messages.Welcome, cfg.Messages.Help, cfg.Messages.Stop, cfg.Messages.Fallback,
		cfg.Messages.Denied, cfg.Messages.NotifyMissingPermissions, cfg.Messages.NoValue,
		cfg.Messages.ReminderSet, cfg.Messages.NoReminderSet, cfg.Messages.UnsupportedDevice,
		cfg.Messages.StatusUnknown, cfg.Messages.PermissionsRequired, cfg.Messages.TenMinutesTitle,
		cfg.Messages.OneMinuteTitle, cfg.Messages.Joiner, cfg.Messages.FullLayout, cfg.Messages.ClockLayout,
	} {
		if v != "" {
			n++
		}
	}
	return n
}
