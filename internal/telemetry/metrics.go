package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/wolfeidau/tenantguard"

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Authorization decision metrics
	DecisionsTotal   metric.Int64Counter
	DenialsTotal     metric.Int64Counter
	DecisionDuration metric.Float64Histogram

	// Session lifecycle metrics
	SessionsSyncedTotal  metric.Int64Counter
	SessionsRevokedTotal metric.Int64Counter

	// Setup gate metrics
	SetupGateBlocksTotal metric.Int64Counter

	// Cache metrics
	CacheHitsTotal          metric.Int64Counter
	CacheMissesTotal        metric.Int64Counter
	CacheInvalidationsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.DecisionsTotal, _ = meter.Int64Counter(
		"tenantguard.authz.decisions.total",
		metric.WithDescription("Total number of authorization decisions"),
		metric.WithUnit("{decision}"),
	)

	m.DenialsTotal, _ = meter.Int64Counter(
		"tenantguard.authz.denials.total",
		metric.WithDescription("Total number of denied authorization requests, by reason"),
		metric.WithUnit("{denial}"),
	)

	m.DecisionDuration, _ = meter.Float64Histogram(
		"tenantguard.authz.decision.duration",
		metric.WithDescription("Duration of authorization context resolution"),
		metric.WithUnit("ms"),
	)

	m.SessionsSyncedTotal, _ = meter.Int64Counter(
		"tenantguard.sessions.synced.total",
		metric.WithDescription("Total number of tenant session record upserts"),
		metric.WithUnit("{session}"),
	)

	m.SessionsRevokedTotal, _ = meter.Int64Counter(
		"tenantguard.sessions.revoked.total",
		metric.WithDescription("Total number of session revocations"),
		metric.WithUnit("{session}"),
	)

	m.SetupGateBlocksTotal, _ = meter.Int64Counter(
		"tenantguard.setup.blocks.total",
		metric.WithDescription("Total number of requests blocked by the workspace setup gate"),
		metric.WithUnit("{request}"),
	)

	m.CacheHitsTotal, _ = meter.Int64Counter(
		"tenantguard.cache.hits.total",
		metric.WithDescription("Total number of record cache hits"),
		metric.WithUnit("{hit}"),
	)

	m.CacheMissesTotal, _ = meter.Int64Counter(
		"tenantguard.cache.misses.total",
		metric.WithDescription("Total number of record cache misses"),
		metric.WithUnit("{miss}"),
	)

	m.CacheInvalidationsTotal, _ = meter.Int64Counter(
		"tenantguard.cache.invalidations.total",
		metric.WithDescription("Total number of tag-based cache invalidations"),
		metric.WithUnit("{invalidation}"),
	)

	return m
}

// RecordDenial increments the denial counter tagged with the failure reason.
func (m *Metrics) RecordDenial(ctx context.Context, reason string) {
	m.DenialsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
