package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	logx "meetremind/pkg/logx"
)

const (
	HeaderRequestID = "X-Request-Id"
	ctxRequestID    = "request_id"
	maxRequestIDLen = 128
)

// requestID propagates the caller's X-Request-Id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned by the request-id middleware.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logx.Field{
			logx.String("request_id", RequestIDFrom(c)),
			logx.String("method", c.Request.Method),
			logx.String("path", c.Request.URL.Path),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("latency", time.Since(start)),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.log.Error("http request", fields...)
		case c.Request.URL.Path == "/livez" || c.Request.URL.Path == "/readyz":
			s.log.Debug("http request", fields...)
		default:
			s.log.Info("http request", fields...)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		s.log.Error("handler panicked",
			logx.String("request_id", RequestIDFrom(c)),
			logx.String("panic", fmt.Sprint(rec)),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// bodyLimit caps the request body; reads past n fail with *http.MaxBytesError.
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
