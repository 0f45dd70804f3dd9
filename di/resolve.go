package di

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is returned when a registered instance does not have the
// requested type.
var ErrTypeMismatch = errors.New("di: type mismatch")

// Resolve returns the instance registered under key as a T.
//
//	client, err := di.Resolve[*http.Client](c, di.Names.DownloadClient)
func Resolve[T any](c Container, key string) (T, error) {
	var want T
	raw, err := c.Resolve(key)
	if err != nil {
		return want, fmt.Errorf("resolve %s: %w", key, err)
	}
	got, ok := raw.(T)
	if !ok {
		return want, fmt.Errorf("%w: %s holds %T, not %T", ErrTypeMismatch, key, raw, want)
	}
	return got, nil
}

// MustResolve is Resolve for wiring code, where a missing dependency is a bug.
func MustResolve[T any](c Container, key string) T {
	got, err := Resolve[T](c, key)
	if err != nil {
		panic(err)
	}
	return got
}

// TryResolve reports whether an optional dependency is available.
func TryResolve[T any](c Container, key string) (T, bool) {
	got, err := Resolve[T](c, key)
	return got, err == nil
}
