// Package observe provides the OpenTelemetry metric instruments for goodday
// and the Prometheus bridge that exposes them on /metrics.
//
// Tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all goodday metrics.
const meterName = "github.com/hyperengineering/goodday"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// APIRequests counts Goodday API calls. Attributes: op, status.
	APIRequests metric.Int64Counter

	// APIDuration tracks Goodday API round-trip latency. Attribute: op.
	APIDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Attributes: tool, status.
	ToolCalls metric.Int64Counter

	// ToolDuration tracks tool execution latency. Attribute: tool.
	ToolDuration metric.Float64Histogram

	// CacheHits counts directory lookups served from the local cache.
	// Attribute: kind (projects or users).
	CacheHits metric.Int64Counter

	// CacheMisses counts directory lookups that went to the API.
	CacheMisses metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// HTTP-bound operations.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.APIRequests, err = m.Int64Counter("goodday.api.requests",
		metric.WithDescription("Total Goodday API requests by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.APIDuration, err = m.Float64Histogram("goodday.api.duration",
		metric.WithDescription("Latency of Goodday API requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("goodday.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram("goodday.tool.duration",
		metric.WithDescription("Latency of tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CacheHits, err = m.Int64Counter("goodday.cache.hits",
		metric.WithDescription("Directory lookups served from the local cache."),
	); err != nil {
		return nil, err
	}
	if met.CacheMisses, err = m.Int64Counter("goodday.cache.misses",
		metric.WithDescription("Directory lookups fetched from the Goodday API."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Nop returns a Metrics instance whose instruments discard all measurements.
func Nop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// ObserveAPI records one Goodday API round trip. Its signature matches
// gdapi.RequestObserver so it can be registered directly.
func (m *Metrics) ObserveAPI(ctx context.Context, op string, status int, elapsed time.Duration, err error) {
	label := strconv.Itoa(status)
	if err != nil && status == 0 {
		label = "transport_error"
	}
	m.APIRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", label),
	))
	m.APIDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("op", op)))
}

// RecordToolCall records a tool invocation and its latency.
func (m *Metrics) RecordToolCall(ctx context.Context, tool string, isError bool, elapsed time.Duration) {
	status := "ok"
	if isError {
		status = "error"
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
	m.ToolDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordCache records a directory cache lookup.
func (m *Metrics) RecordCache(ctx context.Context, kind string, hit bool) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}
