package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T) *PrometheusMetricsClient {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)

	pmc, err := NewPrometheusMetricsClient(&PrometheusMetricsConfig{
		Metrics: metricsTypes.MetricTypes,
	}, l)
	assert.Nil(t, err)
	return pmc
}

func Test_UnexpectedLabelsParsing(t *testing.T) {
	pmc := setup(t)

	t.Run("Should return no error for all labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Timing, metricsTypes.Metric_Timing_ExportDuration, []metricsTypes.MetricsLabel{
			{Name: "kind", Value: "neurons"},
			{Name: "hasError", Value: "false"},
		})
		assert.Nil(t, err)
	})
	t.Run("Should return no error for a subset labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Timing, metricsTypes.Metric_Timing_ExportDuration, []metricsTypes.MetricsLabel{
			{Name: "kind", Value: "neurons"},
		})
		assert.Nil(t, err)
	})
	t.Run("Should return an error for unexpected labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Timing, metricsTypes.Metric_Timing_ExportDuration, []metricsTypes.MetricsLabel{
			{Name: "kind", Value: "neurons"},
			{Name: "hasError", Value: "false"},
			{Name: "unexpectedLabel", Value: "unexpectedValue"},
		})
		assert.NotNil(t, err)
	})
	t.Run("Should return an error for unexpected labels when expecting 0 labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Gauge, metricsTypes.Metric_Gauge_StakingPower, []metricsTypes.MetricsLabel{
			{Name: "project", Value: "nns"},
		})
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "project")
	})
}

func Test_PrometheusMetricsClient(t *testing.T) {
	t.Run("Should allow several clients in one process", func(t *testing.T) {
		setup(t)
		setup(t)
	})

	t.Run("Should expose recorded values on its handler", func(t *testing.T) {
		pmc := setup(t)

		assert.Nil(t, pmc.Incr(metricsTypes.Metric_Incr_CanisterCall, []metricsTypes.MetricsLabel{
			{Name: "method", Value: "list_neurons"},
			{Name: "certified", Value: "true"},
			{Name: "status", Value: "ok"},
		}, 1))
		assert.Nil(t, pmc.Gauge(metricsTypes.Metric_Gauge_StakingPower, 0.5, nil))
		assert.Nil(t, pmc.Timing(metricsTypes.Metric_Timing_StakingRewardsCalc, 12*time.Millisecond, nil))
		assert.Nil(t, pmc.Incr("unknown.metric", nil, 1))

		rec := httptest.NewRecorder()
		pmc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		body := rec.Body.String()

		assert.True(t, strings.Contains(body, `wallet_sidecar_agent_call{certified="true",method="list_neurons",status="ok"} 1`))
		assert.True(t, strings.Contains(body, "wallet_sidecar_stakingRewards_stakingPower 0.5"))
		assert.True(t, strings.Contains(body, "wallet_sidecar_stakingRewards_duration_ms_count 1"))
	})
}
