// Package app wires the skill together and owns its start/stop lifecycle.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"meetremind/internal/alexaapi"
	"meetremind/internal/config"
	"meetremind/internal/metrics"
	"meetremind/internal/observability/pprof"
	rtsup "meetremind/internal/runtime/supervisor"
	"meetremind/internal/server"
	"meetremind/internal/skill"
	logx "meetremind/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	handler *skill.Handler
	http    *server.Server
	pprof   *pprof.Service
}

// NewApp loads and validates the config at cfgPath and builds every
// component. Nothing runs until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfgm.SetValidator(validate)
	cfg, err := cfgm.Load(context.Background())
	if err != nil {
		return nil, err
	}
	return newApp(cfgm, cfg, prometheus.NewRegistry())
}

// validate runs before every commit, so a bad hot reload keeps the
// previous config.
func validate(_ context.Context, cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if _, err := mapPprofConfig(cfg); err != nil {
		return fmt.Errorf("pprof: %w", err)
	}
	return nil
}

func newApp(cfgm *config.ConfigManager, cfg *config.Config, reg *prometheus.Registry) (*App, error) {
	logSvc, log := logx.New(cfg.Logging.LogxConfig())

	srvCfg, err := mapServerConfig(cfg)
	if err != nil {
		return nil, err
	}
	apiCfg, err := mapAPIConfig(cfg)
	if err != nil {
		return nil, err
	}
	pprofCfg, err := mapPprofConfig(cfg)
	if err != nil {
		return nil, err
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.MustNewMetrics(reg)
		gatherer = reg
	}

	api := alexaapi.New(apiCfg, log.With(logx.String("comp", "alexaapi")))

	opts := mapSkillOptions(cfg)
	opts.Metrics = m
	h := skill.NewHandler(api, cfg.Catalog(), opts, log)

	return &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		handler: h,
		http:    server.New(srvCfg, h, gatherer, log),
		pprof:   pprof.New(pprofCfg, log),
	}, nil
}

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	if err := a.http.Start(a.sup.Context()); err != nil {
		a.sup.Cancel()
		return err
	}
	httpDone := a.http.Done()
	a.sup.Go("http.watch", func(c context.Context) error {
		select {
		case <-c.Done():
			return nil
		case <-httpDone:
			return a.http.Err()
		}
	})
	if a.pprof.Enabled() {
		a.pprof.Start(a.sup.Context())
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.http.SetReady(true)
	notifySystemd(a.log, daemon.SdNotifyReady)
	a.log.Info("app started", logx.String("config", a.cfgm.Path()))
	return nil
}

// reloadLoop applies hot-reloadable sections until c is done. Bursts are
// coalesced so only the newest config is applied.
func (a *App) reloadLoop(c context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		var newCfg *config.Config
		select {
		case <-c.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			newCfg = cfg
		}
	drain:
		for {
			select {
			case newer := <-sub:
				if newer != nil {
					newCfg = newer
				}
			default:
				break drain
			}
		}

		a.applyConfig(c, lastApplied, newCfg)
		lastApplied = newCfg
	}
}

func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs, restart := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	a.logs.Apply(newCfg.Logging.LogxConfig())
	a.handler.SetCatalog(newCfg.Catalog())
	if ppc, err := mapPprofConfig(newCfg); err != nil {
		a.log.Warn("invalid pprof config; keeping previous", logx.Err(err))
	} else {
		a.pprof.Reconfigure(ctx, ppc)
	}

	if len(restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect",
			logx.String("sections", strings.Join(restart, ",")),
		)
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	notifySystemd(a.log, daemon.SdNotifyStopping)

	// Drain HTTP first so in-flight requests still see a live app context.
	a.step(ctx, "http", 5*time.Second, a.http.Stop)

	a.step(ctx, "pprof", time.Second, func(c context.Context) error {
		a.pprof.Stop(c)
		return nil
	})

	a.sup.Cancel()
	a.step(ctx, "supervisor", 2*time.Second, a.sup.Wait)

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}

// step runs one shutdown step bounded by max and the caller's deadline.
// A step that overruns is logged and left running.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Err(stepCtx.Err()),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}

// notifySystemd is a no-op outside a systemd unit with Type=notify.
func notifySystemd(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn("systemd notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		log.Debug("systemd notified", logx.String("state", state))
	}
}
