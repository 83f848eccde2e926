package skill

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"meetremind/internal/alexa"
	"meetremind/internal/alexaapi"
	"meetremind/internal/reminder"
	logx "meetremind/pkg/logx"
)

func (h *Handler) dateTime(ctx context.Context, env *alexa.RequestEnvelope, cat reminder.Catalog, log logx.Logger) alexa.ResponseEnvelope {
	intent := env.Request.Intent
	switch intent.Confirmation() {
	case alexa.ConfirmationDenied:
		return alexa.NewResponse().Speak(cat.Denied).Reprompt(cat.Denied).Build()
	case alexa.ConfirmationConfirmed:
	default:
		return alexa.NewResponse().Delegate().Build()
	}

	sys := env.Context.System
	if strings.TrimSpace(sys.APIAccessToken) == "" {
		log.Info("reminder permission not granted")
		return alexa.NewResponse().
			Speak(cat.NotifyMissingPermissions).
			AskForPermissionsConsent(alexa.ScopeRemindersReadWrite).
			Build()
	}

	zone, err := h.api.TimeZone(ctx, sys.APIEndpoint, sys.APIAccessToken, sys.Device.DeviceID)
	if err != nil {
		h.countAPIError(alexaapi.ServiceTimeZone, err)
		return h.errorResponse(cat, log, err)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return h.errorResponse(cat, log, fmt.Errorf("load time zone %q: %w", zone, err))
	}

	out, err := reminder.Schedule(h.opts.Now(), loc, intent.Slot(alexa.SlotDate), intent.Slot(alexa.SlotTime), cat)
	if errors.Is(err, reminder.ErrInvalidSlot) {
		log.Info("unusable slot values",
			logx.String("date", intent.Slot(alexa.SlotDate).Value),
			logx.String("time", intent.Slot(alexa.SlotTime).Value),
			logx.Err(err),
		)
		return alexa.NewResponse().Speak(cat.Fallback).Reprompt(cat.Fallback).Build()
	}
	if err != nil {
		return h.errorResponse(cat, log, err)
	}
	h.opts.Metrics.IncOutcome(out.Kind.String())

	if out.Kind == reminder.NoTimeProvided {
		return alexa.NewResponse().Speak(cat.NoValue).Build()
	}

	if err := h.create(ctx, sys.APIEndpoint, sys.APIAccessToken, out.Requests, log); err != nil {
		return h.errorResponse(cat, log, err)
	}

	log.Info("reminders booked",
		logx.String("zone", zone),
		logx.Time("meeting", out.Meeting),
		logx.String("outcome", out.Kind.String()),
		logx.Int("count", len(out.Requests)),
	)
	return alexa.NewResponse().Speak(out.Text).Build()
}

// create books reqs in order, or concurrently when ParallelCreate is set.
// Each parallel call runs to completion on its own; the first error wins.
// Reminders created before a failure are left in place.
func (h *Handler) create(ctx context.Context, endpoint, token string, reqs []reminder.Request, log logx.Logger) error {
	one := func(r reminder.Request) error {
		resp, err := h.api.CreateReminder(ctx, endpoint, token, r.Wire())
		if err != nil {
			h.opts.Metrics.IncReminder(r.Offset.String(), "failed")
			h.countAPIError(alexaapi.ServiceReminders, err)
			return err
		}
		h.opts.Metrics.IncReminder(r.Offset.String(), "created")
		fields := []logx.Field{
			logx.Duration("offset", r.Offset),
			logx.String("scheduled_time", reminder.FormatTrigger(r.Trigger)),
		}
		if resp != nil {
			fields = append(fields, logx.String("alert_token", resp.AlertToken))
		}
		log.Debug("reminder created", fields...)
		return nil
	}

	if !h.opts.ParallelCreate {
		for _, r := range reqs {
			if err := one(r); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for _, r := range reqs {
		r := r
		g.Go(func() error { return one(r) })
	}
	return g.Wait()
}

func (h *Handler) countAPIError(service string, err error) {
	h.opts.Metrics.IncAPIError(service, alexaapi.StatusCode(err))
}

func (h *Handler) errorResponse(cat reminder.Catalog, log logx.Logger, err error) alexa.ResponseEnvelope {
	status := alexaapi.StatusCode(err)
	log.Error("reminder flow failed", logx.Int("status", status), logx.Err(err))

	switch status {
	case http.StatusUnauthorized:
		return alexa.NewResponse().
			Speak(cat.PermissionsRequired).
			AskForPermissionsConsent(alexa.ScopeRemindersReadWrite).
			Build()
	case http.StatusForbidden:
		return alexa.NewResponse().Speak(cat.UnsupportedDevice).Reprompt(cat.UnsupportedDevice).Build()
	default:
		return alexa.NewResponse().Speak(cat.StatusUnknown).Build()
	}
}
