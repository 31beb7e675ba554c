package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key for the *newrelic.Application used by
// RecordCount, RecordDuration and RecordEvent.
type NewRelicContextKey struct{}

// NewContext returns a context carrying the New Relic application. A nil app
// leaves the context unchanged, which turns every recorder into a no-op.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}
