// Package skill turns classified platform requests into spoken responses.
//
// Handler is stateless between requests. The message catalog is an immutable
// snapshot swapped atomically on config reload.
package skill

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"meetremind/internal/alexa"
	"meetremind/internal/alexaapi"
	"meetremind/internal/metrics"
	"meetremind/internal/reminder"
	logx "meetremind/pkg/logx"
)

// ErrSkillMismatch is returned when the envelope targets another skill id.
var ErrSkillMismatch = errors.New("skill: application id mismatch")

// PlatformAPI is the subset of the platform client the skill calls.
type PlatformAPI interface {
	TimeZone(ctx context.Context, endpoint, token, deviceID string) (string, error)
	CreateReminder(ctx context.Context, endpoint, token string, req reminder.WireRequest) (*alexaapi.ReminderResponse, error)
}

type Options struct {
	SkillID        string // empty accepts any application id
	ParallelCreate bool
	Now            func() time.Time
	Metrics        *metrics.Metrics
}

type Handler struct {
	api     PlatformAPI
	catalog atomic.Pointer[reminder.Catalog]
	opts    Options
	log     logx.Logger
}

func NewHandler(api PlatformAPI, cat reminder.Catalog, opts Options, log logx.Logger) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	h := &Handler{
		api:  api,
		opts: opts,
		log:  log.With(logx.String("comp", "skill")),
	}
	h.SetCatalog(cat)
	return h
}

// SetCatalog replaces the message catalog for subsequent requests.
func (h *Handler) SetCatalog(cat reminder.Catalog) {
	c := cat
	h.catalog.Store(&c)
}

func (h *Handler) Catalog() reminder.Catalog { return *h.catalog.Load() }

// Handle answers one request envelope. The only error is ErrSkillMismatch;
// every other failure is turned into a spoken response.
func (h *Handler) Handle(ctx context.Context, env *alexa.RequestEnvelope) (alexa.ResponseEnvelope, error) {
	if env == nil {
		env = &alexa.RequestEnvelope{}
	}
	if h.opts.SkillID != "" && env.ApplicationID() != h.opts.SkillID {
		h.log.Warn("rejecting request for another skill",
			logx.String("application_id", env.ApplicationID()),
			logx.String("request_id", env.Request.RequestID),
		)
		return alexa.ResponseEnvelope{}, ErrSkillMismatch
	}

	kind := alexa.Classify(env)
	start := time.Now()
	h.opts.Metrics.IncRequest(kind.String())
	defer func() { h.opts.Metrics.ObserveRequest(kind.String(), time.Since(start).Seconds()) }()

	log := h.log.With(
		logx.String("request_id", env.Request.RequestID),
		logx.String("kind", kind.String()),
	)
	cat := h.Catalog()

	switch kind {
	case alexa.KindLaunch:
		return alexa.NewResponse().Speak(cat.Welcome).Reprompt(cat.Welcome).Build(), nil
	case alexa.KindDateTime:
		return h.dateTime(ctx, env, cat, log), nil
	case alexa.KindHelp:
		return alexa.NewResponse().Speak(cat.Help).Reprompt(cat.Help).Build(), nil
	case alexa.KindCancelStop:
		return alexa.NewResponse().Speak(cat.Stop).Build(), nil
	case alexa.KindFallback:
		return alexa.NewResponse().Speak(cat.Fallback).Reprompt(cat.Fallback).Build(), nil
	case alexa.KindSessionEnded:
		fields := []logx.Field{logx.String("reason", env.Request.Reason)}
		if e := env.Request.Error; e != nil {
			fields = append(fields, logx.String("error_type", e.Type), logx.String("error_message", e.Message))
		}
		log.Info("session ended", fields...)
		return alexa.NewResponse().Build(), nil
	case alexa.KindUnknown:
		log.Warn("unhandled request",
			logx.String("type", env.Request.Type),
			logx.String("intent", env.IntentName()),
		)
		return alexa.NewResponse().Speak(cat.Fallback).Reprompt(cat.Fallback).Build(), nil
	default:
		return alexa.NewResponse().Speak(cat.Fallback).Reprompt(cat.Fallback).Build(), nil
	}
}
