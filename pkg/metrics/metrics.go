package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

func application(ctx context.Context) *newrelic.Application {
	app, _ := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return app
}

// RecordCount records a count metric
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app := application(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app := application(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}

// RecordEvent records a custom event, such as a completed mint, with a set of
// attributes.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if app := application(ctx); app != nil {
		app.RecordCustomEvent(eventName, attributes)
	}
}
