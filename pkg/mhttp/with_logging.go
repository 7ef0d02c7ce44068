package mhttp

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
)

// RequestInfo carries one http access log line's fields, in the style of
// the Apache Common Log Format.
type RequestInfo struct {
	Method        string
	URI           string
	RemoteAddress string
	Status        int
	Date          time.Time
	Duration      time.Duration
	CorrelationID string
	Protocol      string
}

// CLFString renders a CLF-style log line.
func (r RequestInfo) CLFString() string {
	return strings.Join([]string{
		r.RemoteAddress,
		`"` + r.Method,
		r.URI + `"`,
		r.Protocol,
		strconv.Itoa(r.Status),
		r.CorrelationID,
		r.Duration.String(),
	}, " ")
}

// WithHTTPLogging logs every request (except /health) once it completes,
// threading the request-scoped logger into context via mlog so handlers
// and the services they call log with the correlation id attached.
func WithHTTPLogging(logger mlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		cid := CorrelationID(c)

		scoped := logger.WithFields("correlation_id", cid)
		c.SetUserContext(mlog.ContextWithLogger(c.UserContext(), scoped))

		err := c.Next()

		info := RequestInfo{
			Method:        c.Method(),
			URI:           c.OriginalURL(),
			RemoteAddress: c.IP(),
			Status:        c.Response().StatusCode(),
			Date:          start,
			Duration:      time.Since(start),
			CorrelationID: cid,
			Protocol:      c.Protocol(),
		}

		scoped.Info(info.CLFString())

		return err
	}
}
