package accountsDataService

import (
	"context"
	"errors"
	"fmt"

	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/poller"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/govwallet/sidecar/pkg/types/numbers"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AccountsDataService struct {
	baseDataService.BaseDataService
	// Balances holds liquid token balances keyed by project id.
	Balances     *stores.KeyedStore[decimal.Decimal]
	PollerConfig *poller.Config
}

func NewAccountsDataService(base baseDataService.BaseDataService, pollerConfig *poller.Config) *AccountsDataService {
	return &AccountsDataService{
		BaseDataService: base,
		Balances:        stores.NewKeyedStore[decimal.Decimal](),
		PollerConfig:    pollerConfig,
	}
}

func balanceKey(projectId string) string {
	return fmt.Sprintf("balance:%s", projectId)
}

// LoadBalances loads the balance of every project and blocks until all
// responses have been handled.
func (s *AccountsDataService) LoadBalances(ctx context.Context) {
	for _, p := range s.Projects {
		s.LoadBalance(ctx, p.Project.Id)
	}
}

func (s *AccountsDataService) LoadBalance(ctx context.Context, projectId string) {
	p := s.GetProject(projectId)
	if p == nil {
		s.Logger.Sugar().Warnw("Unknown project", zap.String("projectId", projectId))
		return
	}
	account := s.Account()

	queryAndUpdate.Run(ctx, s.Runner, balanceKey(projectId),
		func(ctx context.Context, certified bool) (uint64, error) {
			return p.Ledger.BalanceOf(ctx, account, certified)
		},
		func(balance uint64, certified bool) {
			s.Balances.SetKey(projectId, numbers.E8sToTokens(balance), certified)
			s.Publish(eventBusTypes.Event_BalancesLoaded, &eventBusTypes.LoadedData{ProjectId: projectId, Certified: certified})
		},
		func(err error, certified bool) {
			s.ToastError(fmt.Sprintf("Failed to load %s balance", p.Project.Symbol), err, certified)
		},
	)
}

// SyncBalanceAfterTransfer polls the certified balance until it differs from
// previous, which is how a completed transfer becomes visible. Giving up
// after the configured attempts is not reported as an error.
func (s *AccountsDataService) SyncBalanceAfterTransfer(ctx context.Context, projectId string, previous decimal.Decimal) (decimal.Decimal, error) {
	p := s.GetProject(projectId)
	if p == nil {
		return decimal.Zero, fmt.Errorf("unknown project '%s'", projectId)
	}
	account := s.Account()
	errUnchanged := errors.New("balance unchanged")

	balance, err := poller.PollWithBackoff(ctx, s.PollerConfig, func(ctx context.Context) (decimal.Decimal, error) {
		e8s, err := p.Ledger.BalanceOf(ctx, account, true)
		if err != nil {
			return decimal.Zero, err
		}
		tokens := numbers.E8sToTokens(e8s)
		if tokens.Equal(previous) {
			return decimal.Zero, errUnchanged
		}
		return tokens, nil
	}, nil)

	if errors.Is(err, poller.ErrPollingLimit) {
		s.Logger.Sugar().Infow("Balance did not change before polling limit",
			zap.String("projectId", projectId),
		)
		if s.MetricsSink != nil {
			_ = s.MetricsSink.Incr(metricsTypes.Metric_Incr_PollingLimitReached, []metricsTypes.MetricsLabel{
				{Name: "operation", Value: "syncBalance"},
			}, 1)
		}
		return previous, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	s.Balances.SetKey(projectId, balance, true)
	s.Publish(eventBusTypes.Event_BalancesLoaded, &eventBusTypes.LoadedData{ProjectId: projectId, Certified: true})
	return balance, nil
}

// StakingBalances returns the liquid balance of every project as estimator
// input, or nil while any project has not been loaded.
func (s *AccountsDataService) StakingBalances() []*stakingRewards.Balance {
	loaded := s.Balances.Get()
	res := make([]*stakingRewards.Balance, 0, len(s.Projects))
	for _, p := range s.Projects {
		entry, ok := loaded[p.Project.Id]
		if !ok {
			return nil
		}
		res = append(res, &stakingRewards.Balance{ProjectId: p.Project.Id, Amount: entry.Data})
	}
	return res
}

func (s *AccountsDataService) GetBalance(projectId string) (*stores.CertifiedData[decimal.Decimal], bool) {
	return s.Balances.GetKey(projectId)
}
