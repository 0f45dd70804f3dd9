// Package errors provides the structured error type shared by the bootstrap,
// configuration and HTTP layers.
package errors
