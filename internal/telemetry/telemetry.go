package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Telemetry owns the OpenTelemetry meter backed by a Prometheus registry.
type Telemetry struct {
	Meter    metric.Meter
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewTelemetry wires the otel metric SDK to a fresh Prometheus registry.
func NewTelemetry(logger *zap.Logger) (*Telemetry, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	logger.Info("telemetry initialized")

	return &Telemetry{
		Meter:    provider.Meter("notesvault"),
		registry: registry,
		provider: provider,
	}, nil
}

// Handler exposes the metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
