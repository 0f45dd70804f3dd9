package logger

import "time"

// Field keys shared by every package, so log queries can rely on them.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldPath      = "path"

	FieldRequestID = "request_id"

	FieldPhase       = "phase"
	FieldContainerID = "container_id"
	FieldGeneration  = "generation"
	FieldRestartID   = "restart_id"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing key without a value are dropped.
//
//	log.Info("directory ready", logger.Fields(logger.FieldPath, dir))
func Fields(kvs ...interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kvs)/2)
	for i := 1; i < len(kvs); i += 2 {
		if key, ok := kvs[i-1].(string); ok {
			out[key] = kvs[i]
		}
	}
	return out
}

func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}

func DurationFields(op string, d time.Duration) map[string]interface{} {
	return Fields(FieldOperation, op, FieldDuration, d.Milliseconds())
}
