package bootstrap

import "time"

// Phase summarizes the bootstrapper for health reporting.
type Phase string

const (
	PhaseStopped    Phase = "stopped"
	PhaseRunning    Phase = "running"
	PhaseRestarting Phase = "restarting"
	PhaseDegraded   Phase = "degraded"
)

// Status is a point-in-time view of the bootstrapper.
type Status struct {
	Phase         Phase     `json:"phase"`
	ContainerID   string    `json:"containerId,omitempty"`
	Generation    int       `json:"generation"`
	StartedAt     time.Time `json:"startedAt,omitempty"`
	Restarts      int       `json:"restarts"`
	RestartID     string    `json:"restartId,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
	FailurePolicy string    `json:"failurePolicy"`
}

// Serving reports whether a container is current and no restart is in
// flight.
func (s Status) Serving() bool {
	return s.Phase == PhaseRunning
}
