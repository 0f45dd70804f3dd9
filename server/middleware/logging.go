package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/logger"
)

const slowRequest = 500 * time.Millisecond

// RequestLogger logs one line per request once the handler chain returns.
// 5xx logs at error, 4xx at warn and the rest at debug. Probe paths under
// /health are not logged.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if req.URL.Path == "/health" || strings.HasPrefix(req.URL.Path, "/health/") {
			c.Next()
			return
		}

		began := time.Now()
		c.Next()
		elapsed := time.Since(began)

		target := req.URL.Path
		if req.URL.RawQuery != "" {
			target += "?" + req.URL.RawQuery
		}
		status := c.Writer.Status()

		fields := logger.Fields(
			"method", req.Method,
			logger.FieldPath, target,
			logger.FieldStatus, status,
			logger.FieldDuration, elapsed.Milliseconds(),
			"client", c.ClientIP(),
		)
		if id := c.GetString(logger.FieldRequestID); id != "" {
			fields[logger.FieldRequestID] = id
		}
		if elapsed > slowRequest {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			fields["size"] = c.Writer.Size()
			log.Error("Request completed", fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}
