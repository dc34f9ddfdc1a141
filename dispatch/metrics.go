package dispatch

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/kbukum/taskkit/dispatch"

// meters holds the package instruments. They register against the global
// meter provider and are no-ops until the application installs an SDK.
type meters struct {
	completed metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

var (
	metersOnce sync.Once
	metersInst meters
)

func getMeters() meters {
	metersOnce.Do(func() {
		m := otel.Meter(meterName)
		metersInst.completed, _ = m.Int64Counter("taskkit.dispatch.units.completed",
			metric.WithDescription("Work units completed successfully"))
		metersInst.failed, _ = m.Int64Counter("taskkit.dispatch.units.failed",
			metric.WithDescription("Work units whose function failed"))
		metersInst.duration, _ = m.Float64Histogram("taskkit.dispatch.unit.duration",
			metric.WithDescription("Wall time of one unit's function invocation"),
			metric.WithUnit("s"))
	})
	return metersInst
}

func recordOutcome(ctx context.Context, mode Mode, o Outcome) {
	m := getMeters()
	attrs := metric.WithAttributes(attribute.String("mode", string(mode)))
	if o.Failed() {
		if m.failed != nil {
			m.failed.Add(ctx, 1, attrs)
		}
	} else if m.completed != nil {
		m.completed.Add(ctx, 1, attrs)
	}
	if m.duration != nil && o.Duration > 0 {
		m.duration.Record(ctx, float64(o.Duration)/float64(time.Second), attrs)
	}
}
