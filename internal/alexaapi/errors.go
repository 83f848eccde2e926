package alexaapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoEndpoint   = errors.New("alexaapi: api endpoint not set")
	ErrNoToken      = errors.New("alexaapi: api access token not set")
	ErrNoDevice     = errors.New("alexaapi: device id not set")
	ErrEmptyZone    = errors.New("alexaapi: empty time zone")
	ErrBodyTooLarge = errors.New("alexaapi: response body too large")
)

// Service names used in ServiceError and metrics.
const (
	ServiceTimeZone  = "timezone"
	ServiceReminders = "reminders"
)

// ServiceError is a non-2xx answer from a platform API.
type ServiceError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s service: status %d (%s): %s", e.Service, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s service: status %d: %s", e.Service, e.StatusCode, msg)
}

// StatusCode extracts the status of a wrapped *ServiceError, or 0.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
