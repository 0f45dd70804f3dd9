// Package logger wraps zerolog for the whole process.
//
// Entries are maps of fields keyed by the Field* constants. The logging.*
// keys pick level, console or JSON format and output:
//
//	logging:
//	  level: debug
//	  format: json
//
// Each application container derives its own logger tagged with the
// container ID and generation; packages that have no logger handed to them
// use the global one:
//
//	logger.WithComponent("config").Warn("location missing", logger.Fields(logger.FieldPath, dir))
package logger
