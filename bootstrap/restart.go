package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/halo-dev/halo/errors"
)

// RestartHandle tracks one in-process restart. Callers may ignore it; the
// restart completes regardless.
type RestartHandle struct {
	id        string
	requested time.Time
	done      chan struct{}

	mu        sync.Mutex
	container *Container
	err       error
}

func newRestartHandle(id string) *RestartHandle {
	return &RestartHandle{id: id, requested: time.Now(), done: make(chan struct{})}
}

// finishedHandle returns a handle that is already complete.
func finishedHandle(id string, err error) *RestartHandle {
	h := newRestartHandle(id)
	h.finish(nil, err)
	return h
}

func (h *RestartHandle) finish(c *Container, err error) {
	h.mu.Lock()
	h.container = c
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// ID identifies the restart in logs and status responses.
func (h *RestartHandle) ID() string { return h.id }

// RequestedAt is when the restart was requested.
func (h *RestartHandle) RequestedAt() time.Time { return h.requested }

// Done is closed when the restart has finished, successfully or not.
func (h *RestartHandle) Done() <-chan struct{} { return h.done }

// Finished reports whether the restart has completed.
func (h *RestartHandle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Err returns the restart error once finished, nil before that.
func (h *RestartHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Container returns the new container once the restart succeeded.
func (h *RestartHandle) Container() *Container {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.container
}

// Wait blocks until the restart finishes or ctx is done. Giving up returns
// a TIMEOUT error wrapping ctx.Err(); the restart itself carries on.
func (h *RestartHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return errors.Timeout("restart").
			WithDetail("restart_id", h.id).
			WithCause(ctx.Err())
	}
}
