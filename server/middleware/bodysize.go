package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/errors"
)

// BodySizeLimit caps request bodies at limit bytes. A declared
// Content-Length over the limit is rejected with 413 before the handler
// runs; chunked bodies fail on read. A non-positive limit disables it.
func BodySizeLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			abort(c, errors.TooLarge(limit))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
