package stakingRewardsDataService

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/storage"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

type ProjectsSource interface {
	ProjectParameters() []*stakingRewards.ProjectParameters
}

type NeuronsSource interface {
	StakingNeurons() []*stakingRewards.Neuron
}

type BalancesSource interface {
	StakingBalances() []*stakingRewards.Balance
}

type RatesSource interface {
	ExchangeRates() map[string]decimal.Decimal
}

type Sources struct {
	Projects ProjectsSource
	Neurons  NeuronsSource
	Balances BalancesSource
	Rates    RatesSource
}

type StakingRewardsDataService struct {
	baseDataService.BaseDataService
	sources Sources
	history storage.RewardsHistoryStore
	now     func() time.Time

	Result *stores.Store[*stakingRewards.Result]
}

// NewStakingRewardsDataService creates the service. history may be nil, in
// which case estimates are not persisted.
func NewStakingRewardsDataService(base baseDataService.BaseDataService, sources Sources, history storage.RewardsHistoryStore) *StakingRewardsDataService {
	return &StakingRewardsDataService{
		BaseDataService: base,
		sources:         sources,
		history:         history,
		now:             time.Now,
		Result:          stores.NewStore(&stakingRewards.Result{Loading: true}),
	}
}

func (s *StakingRewardsDataService) Snapshot() *stakingRewards.Snapshot {
	return &stakingRewards.Snapshot{
		ReferenceTimestampSeconds: uint64(s.now().Unix()),
		Projects:                  s.sources.Projects.ProjectParameters(),
		Neurons:                   s.sources.Neurons.StakingNeurons(),
		Balances:                  s.sources.Balances.StakingBalances(),
		ExchangeRates:             s.sources.Rates.ExchangeRates(),
	}
}

// Compute recalculates the estimate from the current stores. When persist is
// set a successful result is appended to the history.
func (s *StakingRewardsDataService) Compute(ctx context.Context, persist bool) *stakingRewards.Result {
	span, _ := ddTracer.StartSpanFromContext(ctx, "stakingRewards.Compute")
	defer span.Finish()

	start := time.Now()
	res := stakingRewards.Calculate(s.Snapshot())
	span.SetTag("loading", res.Loading)
	span.SetTag("has_error", res.Err != nil)
	elapsed := time.Since(start)

	s.Result.Set(res)

	switch {
	case res.Loading:
		s.Logger.Sugar().Debugw("Staking rewards still loading")
		return res
	case res.Err != nil:
		s.Logger.Sugar().Errorw("Failed to compute staking rewards", zap.Error(res.Err))
		return res
	}

	s.Publish(eventBusTypes.Event_StakingRewardsComputed, res.Data)
	s.recordMetrics(res.Data, elapsed)

	if persist && s.history != nil {
		if _, err := s.history.InsertEstimate(s.toEstimate(res.Data)); err != nil {
			s.ToastError("Failed to store staking rewards estimate", err, true)
		}
	}
	return res
}

// Watch recomputes the estimate whenever an input store changes. The returned
// function stops watching.
func (s *StakingRewardsDataService) Watch(ctx context.Context, watched ...func(func()) func()) func() {
	stops := make([]func(), 0, len(watched))
	for _, w := range watched {
		stops = append(stops, w(func() { s.Compute(ctx, false) }))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// WatchStore adapts a store to Watch.
func WatchStore[T any](store *stores.Store[T]) func(func()) func() {
	return func(onChange func()) func() {
		unsubscribe := store.Subscribe(func(T) { onChange() })
		return func() { unsubscribe() }
	}
}

func (s *StakingRewardsDataService) History(principal string, limit int) ([]*storage.StakingRewardEstimate, error) {
	if s.history == nil {
		return []*storage.StakingRewardEstimate{}, nil
	}
	return s.history.ListEstimates(principal, limit)
}

func (s *StakingRewardsDataService) toEstimate(data *stakingRewards.StakingRewardData) *storage.StakingRewardEstimate {
	projectIds := make([]string, 0, len(data.Apy))
	for id := range data.Apy {
		projectIds = append(projectIds, id)
	}
	sort.Strings(projectIds)

	apys := make([]*storage.ProjectApy, 0, len(projectIds))
	for _, id := range projectIds {
		apys = append(apys, &storage.ProjectApy{
			ProjectId: id,
			Current:   data.Apy[id].Current,
			Max:       data.Apy[id].Max,
		})
	}
	return &storage.StakingRewardEstimate{
		Principal:             s.GlobalConfig.Principal,
		ReferenceTimestamp:    uint64(s.now().Unix()),
		StakingPower:          data.StakingPower,
		StakingPowerUSD:       data.StakingPowerUSD,
		RewardEstimateWeekUSD: data.RewardEstimateWeekUSD,
		UnpricedProjects:      strings.Join(data.UnpricedProjects, ","),
		Apys:                  apys,
	}
}

func (s *StakingRewardsDataService) recordMetrics(data *stakingRewards.StakingRewardData, elapsed time.Duration) {
	if s.MetricsSink == nil {
		return
	}
	_ = s.MetricsSink.Timing(metricsTypes.Metric_Timing_StakingRewardsCalc, elapsed, nil)
	_ = s.MetricsSink.Gauge(metricsTypes.Metric_Gauge_StakingPower, data.StakingPower.InexactFloat64(), nil)
	_ = s.MetricsSink.Gauge(metricsTypes.Metric_Gauge_StakingPowerUSD, data.StakingPowerUSD.InexactFloat64(), nil)
	_ = s.MetricsSink.Gauge(metricsTypes.Metric_Gauge_RewardEstimateWeekUSD, data.RewardEstimateWeekUSD.InexactFloat64(), nil)
	for projectId, apy := range data.Apy {
		_ = s.MetricsSink.Gauge(metricsTypes.Metric_Gauge_ProjectApy, apy.Current.InexactFloat64(), []metricsTypes.MetricsLabel{
			{Name: "project", Value: projectId},
			{Name: "kind", Value: "current"},
		})
		_ = s.MetricsSink.Gauge(metricsTypes.Metric_Gauge_ProjectApy, apy.Max.InexactFloat64(), []metricsTypes.MetricsLabel{
			{Name: "project", Value: projectId},
			{Name: "kind", Value: "max"},
		})
	}
}

// Current returns the latest computed result.
func (s *StakingRewardsDataService) Current() *stakingRewards.Result {
	return s.Result.Get()
}
