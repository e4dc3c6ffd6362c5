// Package metrics fans metric values out to every configured client.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/metrics/prometheus"
	"go.uber.org/zap"
)

type MetricsSinkConfig struct{}

type MetricsSink struct {
	config  *MetricsSinkConfig
	clients []metricsTypes.IMetricsClient
}

func NewMetricsSink(cfg *MetricsSinkConfig, clients []metricsTypes.IMetricsClient) (*MetricsSink, error) {
	if cfg == nil {
		cfg = &MetricsSinkConfig{}
	}
	return &MetricsSink{
		config:  cfg,
		clients: clients,
	}, nil
}

// InitMetricsSinksFromConfig creates the prometheus and statsd clients enabled in cfg.
func InitMetricsSinksFromConfig(cfg *config.Config, l *zap.Logger) ([]metricsTypes.IMetricsClient, error) {
	clients := make([]metricsTypes.IMetricsClient, 0)

	if cfg.IsStatsdEnabled() {
		dd, err := NewDogStatsdMetricsClient(cfg.DataDogConfig.StatsdConfig.Url, cfg.DataDogConfig.StatsdConfig.SampleRate, l)
		if err != nil {
			return nil, fmt.Errorf("failed to setup statsd client: %w", err)
		}
		clients = append(clients, dd)
		l.Sugar().Infow("Statsd metrics enabled", zap.String("url", cfg.DataDogConfig.StatsdConfig.Url))
	}

	if cfg.PrometheusConfig.Enabled {
		pc, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{
			Metrics: metricsTypes.MetricTypes,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to setup prometheus client: %w", err)
		}
		clients = append(clients, pc)
		l.Sugar().Infow("Prometheus metrics enabled", zap.Int("port", cfg.PrometheusConfig.Port))
	}

	return clients, nil
}

// FindPrometheusClient returns the prometheus client among clients, if any.
func FindPrometheusClient(clients []metricsTypes.IMetricsClient) *prometheus.PrometheusMetricsClient {
	for _, c := range clients {
		if pc, ok := c.(*prometheus.PrometheusMetricsClient); ok {
			return pc
		}
	}
	return nil
}

func (ms *MetricsSink) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error {
	errs := make([]error, 0)
	for _, client := range ms.clients {
		if err := client.Incr(name, labels, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ms *MetricsSink) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) error {
	errs := make([]error, 0)
	for _, client := range ms.clients {
		if err := client.Gauge(name, value, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ms *MetricsSink) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error {
	errs := make([]error, 0)
	for _, client := range ms.clients {
		if err := client.Timing(name, value, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ms *MetricsSink) Flush() {
	for _, client := range ms.clients {
		client.Flush()
	}
}
