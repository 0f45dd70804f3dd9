package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/errors"
)

// abort ends the request with err as the JSON error envelope.
func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
