package accountsDataService

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/clients/ledger"
	"github.com/govwallet/sidecar/pkg/eventBus"
	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/metrics"
	"github.com/govwallet/sidecar/pkg/poller"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const ledgerId = "ryjl3-tyaaa-aaaaa-aaaba-cai"

func setup(strategy queryAndUpdate.Strategy) (*AccountsDataService, *agent.MockAgent, *eventBusTypes.Consumer) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &config.Config{
		Principal: "aaaaa-aa",
		Projects: []*config.ProjectConfig{
			{Id: "nns", Symbol: "ICP", GovernanceCanisterId: "gov", LedgerCanisterId: ledgerId},
		},
	}
	a := agent.NewMockAgent()
	eb := eventBus.NewEventBus(l)
	consumer := eventBusTypes.NewConsumer(context.Background(), 100)
	eb.Subscribe(consumer)
	sink, _ := metrics.NewMetricsSink(nil, nil)

	svc := NewAccountsDataService(baseDataService.BaseDataService{
		Logger:       l,
		EventBus:     eb,
		MetricsSink:  sink,
		Runner:       queryAndUpdate.NewRunner(strategy, l),
		GlobalConfig: cfg,
		Projects:     baseDataService.NewProjectClients(a, cfg.Projects, l),
	}, &poller.Config{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 3})
	return svc, a, consumer
}

func Test_AccountsDataService(t *testing.T) {
	t.Run("Should end with the certified balance", func(t *testing.T) {
		svc, a, _ := setup(queryAndUpdate.Strategy_QueryAndUpdate)
		a.Handle(ledgerId, ledger.Method_BalanceOf, func(_ context.Context, certified bool, _ json.RawMessage) (any, error) {
			if certified {
				return uint64(250_000_000), nil
			}
			return uint64(100_000_000), nil
		})

		svc.LoadBalances(context.Background())

		balance, ok := svc.Balances.GetKey("nns")
		assert.True(t, ok)
		assert.True(t, balance.Certified)
		assert.True(t, balance.Data.Equal(decimal.RequireFromString("2.5")))
	})
	t.Run("Should toast certified errors and leave the balance unloaded", func(t *testing.T) {
		svc, a, consumer := setup(queryAndUpdate.Strategy_Update)
		a.Handle(ledgerId, ledger.Method_BalanceOf, func(context.Context, bool, json.RawMessage) (any, error) {
			return nil, errors.New("replica unavailable")
		})

		svc.LoadBalance(context.Background(), "nns")

		_, ok := svc.Balances.GetKey("nns")
		assert.False(t, ok)

		event := <-consumer.Channel
		assert.Equal(t, eventBusTypes.Event_Toast, event.Name)
		toast := event.Data.(*eventBusTypes.ToastData)
		assert.Equal(t, eventBusTypes.ToastLevel_Error, toast.Level)
		assert.Equal(t, "Failed to load ICP balance", toast.Message)
	})
	t.Run("Should publish a loaded event", func(t *testing.T) {
		svc, a, consumer := setup(queryAndUpdate.Strategy_Query)
		a.Reply(ledgerId, ledger.Method_BalanceOf, uint64(1))

		svc.LoadBalance(context.Background(), "nns")

		event := <-consumer.Channel
		assert.Equal(t, eventBusTypes.Event_BalancesLoaded, event.Name)
		assert.Equal(t, &eventBusTypes.LoadedData{ProjectId: "nns", Certified: false}, event.Data)
	})
	t.Run("SyncBalanceAfterTransfer", func(t *testing.T) {
		t.Run("Should poll until the balance changes", func(t *testing.T) {
			svc, a, _ := setup(queryAndUpdate.Strategy_Update)
			var calls atomic.Int32
			a.Handle(ledgerId, ledger.Method_BalanceOf, func(context.Context, bool, json.RawMessage) (any, error) {
				if calls.Add(1) < 3 {
					return uint64(500_000_000), nil
				}
				return uint64(300_000_000), nil
			})

			balance, err := svc.SyncBalanceAfterTransfer(context.Background(), "nns", decimal.NewFromInt(5))
			assert.Nil(t, err)
			assert.True(t, balance.Equal(decimal.NewFromInt(3)))
			assert.Equal(t, int32(3), calls.Load())

			stored, _ := svc.Balances.GetKey("nns")
			assert.True(t, stored.Certified)
		})
		t.Run("Should stop silently at the polling limit", func(t *testing.T) {
			svc, a, _ := setup(queryAndUpdate.Strategy_Update)
			a.Reply(ledgerId, ledger.Method_BalanceOf, uint64(500_000_000))

			balance, err := svc.SyncBalanceAfterTransfer(context.Background(), "nns", decimal.NewFromInt(5))
			assert.Nil(t, err)
			assert.True(t, balance.Equal(decimal.NewFromInt(5)))
			assert.Len(t, a.Calls(), 3)
		})
		t.Run("Should reject unknown projects", func(t *testing.T) {
			svc, _, _ := setup(queryAndUpdate.Strategy_Update)
			_, err := svc.SyncBalanceAfterTransfer(context.Background(), "unknown", decimal.Zero)
			assert.NotNil(t, err)
		})
	})
}
