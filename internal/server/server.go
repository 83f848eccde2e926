// Package server exposes the skill over HTTP: the platform webhook, health
// checks and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meetremind/internal/alexa"
	rtsup "meetremind/internal/runtime/supervisor"
	logx "meetremind/pkg/logx"
)

// Handler answers one decoded request envelope.
type Handler interface {
	Handle(ctx context.Context, env *alexa.RequestEnvelope) (alexa.ResponseEnvelope, error)
}

type Config struct {
	Addr         string
	Path         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64

	MetricsEnabled bool
	MetricsPath    string
}

type Server struct {
	cfg     Config
	log     logx.Logger
	engine  *gin.Engine
	handler Handler
	ready   atomic.Bool

	backoffMin, backoffMax time.Duration

	mu   sync.Mutex
	sup  *rtsup.Supervisor
	ln   net.Listener // bound by Start, consumed by the first serveOnce
	srv  *http.Server
	addr string
}

// maxRestarts bounds how often a failing listener is re-bound before the
// server gives up and reports through Done and Err.
const maxRestarts = 5

// New builds the router. gatherer may be nil when metrics are disabled.
func New(cfg Config, h Handler, gatherer prometheus.Gatherer, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	s := &Server{
		cfg:     cfg,
		log:     log.With(logx.String("comp", "http")),
		handler: h,

		backoffMin: 500 * time.Millisecond,
		backoffMax: 10 * time.Second,
	}

	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(requestID(), s.accessLog(), s.recovery())

	e.POST(cfg.Path, bodyLimit(cfg.MaxBodyBytes), s.handleSkill)
	e.GET("/livez", func(c *gin.Context) { c.String(http.StatusOK, "OK\n") })
	e.GET("/readyz", s.handleReady)
	if cfg.MetricsEnabled && gatherer != nil {
		e.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	s.engine = e
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// SetReady flips the /readyz answer.
func (s *Server) SetReady(ok bool) { s.ready.Store(ok) }

// Addr is the bound listen address once the server is serving.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleReady(c *gin.Context) {
	if !s.ready.Load() {
		c.String(http.StatusServiceUnavailable, "not ready\n")
		return
	}
	c.String(http.StatusOK, "OK\n")
}

// Start binds the listen address and serves in the background under a
// restart loop. A bind failure is returned directly. Start is idempotent.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", s.cfg.Addr, err)
	}
	s.ln = ln
	s.addr = ln.Addr().String()
	s.sup = rtsup.New(ctx, rtsup.WithLogger(s.log), rtsup.WithCancelOnError(true))
	s.sup.GoRestart("http.serve", s.serveOnce,
		rtsup.WithRestartBackoff(s.backoffMin, s.backoffMax),
		rtsup.WithMaxRestarts(maxRestarts),
	)
	return nil
}

// Done is closed when the serve loop ends: on Stop, when the parent context
// ends, or after the loop gave up. Before Start it never closes.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup == nil {
		return nil
	}
	return s.sup.Context().Done()
}

// Err is the error that made the serve loop give up, if any.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup == nil {
		return nil
	}
	return s.sup.Err()
}

// Stop marks the server unready, drains in-flight requests until ctx ends
// and stops the restart loop.
func (s *Server) Stop(ctx context.Context) error {
	s.SetReady(false)

	s.mu.Lock()
	sup, srv, ln := s.sup, s.srv, s.ln
	s.sup, s.srv, s.ln = nil, nil, nil
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	if ln != nil {
		_ = ln.Close()
	}

	var err error
	if srv != nil {
		if serr := srv.Shutdown(ctx); serr != nil {
			err = serr
			_ = srv.Close()
		}
	}
	sup.Cancel()
	if werr := sup.Wait(ctx); werr != nil && err == nil && !errors.Is(werr, context.Canceled) {
		err = werr
	}
	s.log.Info("http server stopped")
	return err
}

func (s *Server) serveOnce(ctx context.Context) error {
	s.mu.Lock()
	ln, addr := s.ln, s.cfg.Addr
	s.ln = nil
	s.mu.Unlock()
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			s.log.Error("http listen failed", logx.String("addr", addr), logx.Err(err))
			return err
		}
	}

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.mu.Lock()
	s.srv = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(cctx)
	})
	defer stop()

	s.log.Info("http server started",
		logx.String("addr", ln.Addr().String()),
		logx.String("path", s.cfg.Path),
		logx.Bool("metrics", s.cfg.MetricsEnabled),
	)

	err := srv.Serve(ln)
	if ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		closed := s.srv != srv
		s.mu.Unlock()
		if closed {
			return nil
		}
		return errors.New("http server exited unexpectedly")
	}
	return err
}

func (s *Server) handleSkill(c *gin.Context) {
	var env alexa.RequestEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		s.log.Warn("malformed request body", logx.String("request_id", RequestIDFrom(c)), logx.Err(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request envelope"})
		return
	}
	if strings.TrimSpace(env.Request.Type) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing request type"})
		return
	}

	resp, err := s.handler.Handle(c.Request.Context(), &env)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.PureJSON(http.StatusOK, resp)
}
