package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/version"
)

// Instance describes the container serving a request.
type Instance interface {
	Uptime() time.Duration
}

// Info returns a handler that reports build information and, when inst is
// set, the uptime of the serving container.
func Info(serviceName string, inst Instance, generation int) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service":   serviceName,
			"build":     version.Get(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if inst != nil {
			body["uptime"] = inst.Uptime().Round(time.Millisecond).String()
			body["generation"] = generation
		}
		c.JSON(http.StatusOK, body)
	}
}
