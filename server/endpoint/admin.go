package endpoint

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halo-dev/halo/bootstrap"
	"github.com/halo-dev/halo/component"
)

// Restarter is the part of the bootstrapper the admin endpoints drive.
type Restarter interface {
	Restart() *bootstrap.RestartHandle
	Status() bootstrap.Status
}

// RestartAccepted is the body of an accepted restart request.
type RestartAccepted struct {
	RestartID   string    `json:"restartId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Restart returns a handler that triggers an in-process restart and answers
// 202 immediately. The current container, including this server, is closed
// after the response is written.
func Restart(r Restarter) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := r.Restart()
		if h.Finished() {
			if err := h.Err(); err != nil {
				RespondWithError(c, err)
				return
			}
		}
		RespondAccepted(c, RestartAccepted{
			RestartID:   h.ID(),
			RequestedAt: h.RequestedAt().UTC(),
		})
	}
}

// RestartStatus returns a handler reporting the bootstrapper status.
func RestartStatus(r Restarter) gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, r.Status())
	}
}

// Docs returns a handler listing the registered HTTP routes.
func Docs(routes func() []component.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, routes())
	}
}
