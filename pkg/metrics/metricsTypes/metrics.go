package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
	Flush()
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_HttpRequest         = "rpc.http.request"
	Metric_Incr_CanisterCall        = "agent.call"
	Metric_Incr_PollingLimitReached = "poller.limitReached"
	Metric_Incr_ExportCompleted     = "export.completed"
	Metric_Incr_Toast               = "toast"

	Metric_Gauge_StakingPower          = "stakingRewards.stakingPower"
	Metric_Gauge_StakingPowerUSD       = "stakingRewards.stakingPowerUsd"
	Metric_Gauge_RewardEstimateWeekUSD = "stakingRewards.rewardEstimateWeekUsd"
	Metric_Gauge_ProjectApy            = "stakingRewards.apy"

	Metric_Timing_HttpDuration         = "rpc.http.duration"
	Metric_Timing_CanisterCallDuration = "agent.call.duration"
	Metric_Timing_StakingRewardsCalc   = "stakingRewards.duration"
	Metric_Timing_ExportDuration       = "export.duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name: Metric_Incr_HttpRequest,
			Labels: []string{
				"method",
				"pattern",
				"status_code",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_CanisterCall,
			Labels: []string{
				"method",
				"certified",
				"status",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_PollingLimitReached,
			Labels: []string{
				"operation",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_ExportCompleted,
			Labels: []string{
				"kind",
				"hasError",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_Toast,
			Labels: []string{
				"level",
			},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_StakingPower,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_StakingPowerUSD,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_RewardEstimateWeekUSD,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name: Metric_Gauge_ProjectApy,
			Labels: []string{
				"project",
				"kind",
			},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name: Metric_Timing_HttpDuration,
			Labels: []string{
				"method",
				"pattern",
				"status_code",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Timing_CanisterCallDuration,
			Labels: []string{
				"method",
				"certified",
				"status",
			},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_StakingRewardsCalc,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name: Metric_Timing_ExportDuration,
			Labels: []string{
				"kind",
				"hasError",
			},
		},
	},
}
