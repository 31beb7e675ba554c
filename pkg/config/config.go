// Package config provides typed runtime configuration values backed by
// pluggable sources, such as the environment or memory for tests.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates the source has no value, so the default applies.
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the source was used after Shutdown.
	ErrShutdown = errors.New("config: shutdown")
)

// Source yields raw, untyped configuration values. Sources typically return
// []byte, which typed values parse, or a value that is already of the
// target type.
type Source interface {
	Get(ctx context.Context) (interface{}, error)
	Shutdown()
}

// Value is a typed configuration value.
type Value[T any] interface {
	// Get returns the current value, falling back to the last known good
	// value when the source errors.
	Get(ctx context.Context) T

	// GetSafe is Get, but also reports source or parse errors.
	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

type (
	Bool     = Value[bool]
	String   = Value[string]
	Duration = Value[time.Duration]
)
