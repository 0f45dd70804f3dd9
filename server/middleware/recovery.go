package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/logger"
)

// Recovery turns a panicking handler into a 500 INTERNAL_ERROR response and
// logs the stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			cause := fmt.Errorf("panic: %v", rec)
			log.WithError(cause).Error("Panic recovered", logger.Fields(
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				logger.FieldPath, c.Request.URL.Path,
				logger.FieldRequestID, c.GetString(logger.FieldRequestID),
			))
			abort(c, errors.Internal(cause))
		}()
		c.Next()
	}
}
