// Package metrics exports OpenTelemetry instruments in the Prometheus
// format on the diagnostics listener.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const ServiceName = "blog"

// Domain events counted by Event.
const (
	ArticleCreated = "article_created"
	ArticleUpdated = "article_updated"
	ArticleDeleted = "article_deleted"
	CommentCreated = "comment_created"
)

// Recorder counts domain events.
type Recorder interface {
	Event(ctx context.Context, name string)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Event(context.Context, string) {}

// Metrics owns the meter provider and the instruments of the service.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	requests metric.Int64Counter
	latency  metric.Float64Histogram
	events   metric.Int64Counter
}

func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(ServiceName)

	m := &Metrics{registry: registry, provider: provider}

	m.requests, err = meter.Int64Counter(
		"blog.http.requests",
		metric.WithDescription("Count of completed requests, by route, HTTP method and response status"),
	)
	if err != nil {
		return nil, err
	}

	m.latency, err = meter.Float64Histogram(
		"blog.http.request.duration",
		metric.WithDescription("Request latency, by route, HTTP method and response status"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.events, err = meter.Int64Counter(
		"blog.events",
		metric.WithDescription("Count of domain events, by kind"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Event counts one domain event of the given kind.
func (m *Metrics) Event(ctx context.Context, name string) {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", name)))
}

// Middleware records every request under its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := metric.WithAttributes(
			attribute.String("route", route),
			attribute.String("method", r.Method),
			attribute.String("status", strconv.Itoa(status)),
		)
		m.requests.Add(r.Context(), 1, attrs)
		m.latency.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}

// Handler serves the Prometheus exposition of the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
