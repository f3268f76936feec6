package analyzer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("structscope.analyzer")
	meter  = otel.Meter("structscope.analyzer")
)

var (
	analysisLatency metric.Float64Histogram
	filesAnalyzed   metric.Int64Counter
	fileErrors      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysisLatency, err = meter.Float64Histogram(
			"analysis_duration_seconds",
			metric.WithDescription("Duration of one Analyze call"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesAnalyzed, err = meter.Int64Counter(
			"analysis_files_total",
			metric.WithDescription("Files handed to analyzers"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fileErrors, err = meter.Int64Counter(
			"analysis_errors_total",
			metric.WithDescription("Per-file errors collected into results"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// Begin opens a span for one Analyze call. The returned func records the
// outcome and must be called exactly once.
func (b *Base) Begin(ctx context.Context, files int) (context.Context, func(r *Result)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, b.name+".Analyze",
		trace.WithAttributes(
			attribute.String("analyzer.name", b.name),
			attribute.Int("analyzer.files", files),
		),
	)
	b.log.Debug("analysis started", "files", files)

	return ctx, func(r *Result) {
		defer span.End()
		errCount, warnCount := 0, 0
		if r != nil {
			errCount, warnCount = len(r.Errors), len(r.Warnings)
			r.Metadata["analysisDuration"] = time.Since(start).Milliseconds()
		}
		span.SetAttributes(
			attribute.Int("analyzer.error_count", errCount),
			attribute.Int("analyzer.warning_count", warnCount),
		)
		b.log.Info("analysis finished",
			"files", files,
			"errors", errCount,
			"warnings", warnCount,
			"duration", time.Since(start),
		)

		if err := initMetrics(); err != nil {
			return
		}
		attrs := metric.WithAttributes(attribute.String("analyzer", b.name))
		analysisLatency.Record(ctx, time.Since(start).Seconds(), attrs)
		filesAnalyzed.Add(ctx, int64(files), attrs)
		if errCount > 0 {
			fileErrors.Add(ctx, int64(errCount), attrs)
		}
	}
}
