package rpcServer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/exportQueue"
	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/metrics"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/metrics/prometheus"
	"github.com/govwallet/sidecar/pkg/service/exportDataService"
	"github.com/govwallet/sidecar/pkg/service/swapDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/storage"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeRewards struct {
	result    *stakingRewards.Result
	estimates []*storage.StakingRewardEstimate
	limit     int
}

func (f *fakeRewards) Current() *stakingRewards.Result { return f.result }
func (f *fakeRewards) History(principal string, limit int) ([]*storage.StakingRewardEstimate, error) {
	f.limit = limit
	return f.estimates, nil
}

type fakeAccounts struct {
	balances map[string]*stores.CertifiedData[decimal.Decimal]
	loaded   []string
	synced   []string
}

func (f *fakeAccounts) LoadBalance(_ context.Context, projectId string) {
	f.loaded = append(f.loaded, projectId)
	f.balances[projectId] = &stores.CertifiedData[decimal.Decimal]{Data: decimal.NewFromInt(7), Certified: true}
}
func (f *fakeAccounts) SyncBalanceAfterTransfer(_ context.Context, projectId string, previous decimal.Decimal) (decimal.Decimal, error) {
	f.synced = append(f.synced, previous.String())
	next := previous.Add(decimal.NewFromInt(1))
	f.balances[projectId] = &stores.CertifiedData[decimal.Decimal]{Data: next, Certified: true}
	return next, nil
}
func (f *fakeAccounts) GetBalance(projectId string) (*stores.CertifiedData[decimal.Decimal], bool) {
	b, ok := f.balances[projectId]
	return b, ok
}

type fakeSwaps struct {
	statuses map[string]*swapDataService.SwapStatus
}

func (f *fakeSwaps) GetStatus(id string) (*swapDataService.SwapStatus, bool) {
	s, ok := f.statuses[id]
	return s, ok
}
func (f *fakeSwaps) LoadStatus(_ context.Context, id string) (*swapDataService.SwapStatus, error) {
	return nil, errors.New("unknown swap canister")
}

type fakeExports struct {
	err error
}

func (f *fakeExports) EnqueueAndWait(_ context.Context, data exportQueue.ExportRequest) (*exportQueue.ExportResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &exportQueue.ExportResponse{Data: &exportDataService.ExportResult{
		JobId:    "job-1",
		Kind:     data.Kind,
		FilePath: "/exports/" + string(data.Kind) + "_20250510.csv",
		Content:  `"Neuron ID"`,
	}}, nil
}

func setup(t *testing.T) (*RpcServer, *fakeRewards, *fakeAccounts, *fakeExports, *prometheus.PrometheusMetricsClient) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	pc, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{Metrics: metricsTypes.MetricTypes}, l)
	if err != nil {
		t.Fatal(err)
	}
	sink, _ := metrics.NewMetricsSink(nil, []metricsTypes.IMetricsClient{pc})

	cfg := &config.Config{
		Chain:     config.Chain_Mainnet,
		Principal: "aaaaa-aa",
		Projects:  []*config.ProjectConfig{{Id: "nns", Symbol: "ICP"}},
	}
	rewards := &fakeRewards{result: &stakingRewards.Result{Loading: true}}
	accounts := &fakeAccounts{balances: map[string]*stores.CertifiedData[decimal.Decimal]{}}
	swaps := &fakeSwaps{statuses: map[string]*swapDataService.SwapStatus{
		"swap-1": {ProjectId: "sns-1", SwapCanisterId: "swap-1", Lifecycle: "open"},
	}}
	exports := &fakeExports{}
	return NewRpcServer(rewards, accounts, swaps, exports, sink, l, cfg), rewards, accounts, exports, pc
}

func do(rpc *RpcServer, method string, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	rpc.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func Test_RpcServer(t *testing.T) {
	t.Run("Should report health", func(t *testing.T) {
		rpc, _, _, _, _ := setup(t)
		rec := do(rpc, http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})
	t.Run("Should report the chain", func(t *testing.T) {
		rpc, _, _, _, _ := setup(t)
		rec := do(rpc, http.MethodGet, "/v1/about")
		var about AboutResponse
		assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &about))
		assert.Equal(t, "mainnet", about.Chain)
	})
	t.Run("Staking rewards", func(t *testing.T) {
		t.Run("Should report loading", func(t *testing.T) {
			rpc, _, _, _, _ := setup(t)
			rec := do(rpc, http.MethodGet, "/v1/staking-rewards")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"loading":true}`, rec.Body.String())
		})
		t.Run("Should report errors", func(t *testing.T) {
			rpc, rewards, _, _, _ := setup(t)
			rewards.result = &stakingRewards.Result{Err: errors.New("unknown project 'sns-9'")}
			rec := do(rpc, http.MethodGet, "/v1/staking-rewards")
			assert.JSONEq(t, `{"loading":false,"error":"unknown project 'sns-9'"}`, rec.Body.String())
		})
		t.Run("Should return data", func(t *testing.T) {
			rpc, rewards, _, _, _ := setup(t)
			rewards.result = &stakingRewards.Result{Data: &stakingRewards.StakingRewardData{
				StakingPower: decimal.RequireFromString("0.5"),
				Apy: map[string]*stakingRewards.ProjectApy{
					"nns": {Current: decimal.RequireFromString("0.0685"), Max: decimal.RequireFromString("0.1375")},
				},
			}}
			rec := do(rpc, http.MethodGet, "/v1/staking-rewards")
			var body StakingRewardsResponse
			assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Loading)
			assert.True(t, body.Data.StakingPower.Equal(decimal.RequireFromString("0.5")))
			assert.True(t, body.Data.Apy["nns"].Max.Equal(decimal.RequireFromString("0.1375")))
		})
		t.Run("Should list history with a bounded limit", func(t *testing.T) {
			rpc, rewards, _, _, _ := setup(t)
			rewards.estimates = []*storage.StakingRewardEstimate{
				{Id: 2, Apys: []*storage.ProjectApy{{ProjectId: "nns"}}},
			}

			rec := do(rpc, http.MethodGet, "/v1/staking-rewards/history")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, defaultHistoryLimit, rewards.limit)
			var body []*EstimateResponse
			assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body, 1)
			assert.Equal(t, "nns", body[0].Apys[0].ProjectId)

			do(rpc, http.MethodGet, "/v1/staking-rewards/history?limit=100000")
			assert.Equal(t, maxHistoryLimit, rewards.limit)

			rec = do(rpc, http.MethodGet, "/v1/staking-rewards/history?limit=-1")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	})
	t.Run("Exports", func(t *testing.T) {
		t.Run("Should return the csv as an attachment", func(t *testing.T) {
			rpc, _, _, _, _ := setup(t)
			rec := do(rpc, http.MethodGet, "/v1/exports/neurons.csv")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="neurons_20250510.csv"`, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, "job-1", rec.Header().Get("X-Export-Job-Id"))
			assert.Equal(t, `"Neuron ID"`, rec.Body.String())
		})
		t.Run("Should report failed exports", func(t *testing.T) {
			rpc, _, _, exports, _ := setup(t)
			exports.err = errors.New("index unavailable")
			rec := do(rpc, http.MethodGet, "/v1/exports/transactions.csv")
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.JSONEq(t, `{"error":"index unavailable"}`, rec.Body.String())
		})
	})
	t.Run("Should return cached swap statuses", func(t *testing.T) {
		rpc, _, _, _, _ := setup(t)
		rec := do(rpc, http.MethodGet, "/v1/swaps/swap-1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), `"lifecycle":"open"`))

		rec = do(rpc, http.MethodGet, "/v1/swaps/swap-9")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("Accounts", func(t *testing.T) {
		t.Run("Should sync a balance", func(t *testing.T) {
			rpc, _, accounts, _, _ := setup(t)
			rec := do(rpc, http.MethodGet, "/v1/accounts/nns/balance")
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = do(rpc, http.MethodPost, "/v1/accounts/nns/sync")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{"nns"}, accounts.loaded)
			assert.JSONEq(t, `{"projectId":"nns","balance":"7","certified":true}`, rec.Body.String())
		})
		t.Run("Should wait for the balance to change after a transfer", func(t *testing.T) {
			rpc, _, accounts, _, _ := setup(t)
			rec := do(rpc, http.MethodPost, "/v1/accounts/nns/sync?previous=2.5")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{"2.5"}, accounts.synced)
			assert.Len(t, accounts.loaded, 0)
			assert.JSONEq(t, `{"projectId":"nns","balance":"3.5","certified":true}`, rec.Body.String())

			rec = do(rpc, http.MethodPost, "/v1/accounts/nns/sync?previous=lots")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
		t.Run("Should reject unknown projects", func(t *testing.T) {
			rpc, _, accounts, _, _ := setup(t)
			rec := do(rpc, http.MethodPost, "/v1/accounts/sns-9/sync")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Len(t, accounts.loaded, 0)
		})
	})
	t.Run("Should record request metrics", func(t *testing.T) {
		rpc, _, _, _, pc := setup(t)
		do(rpc, http.MethodGet, "/v1/swaps/swap-1")

		metricsRec := httptest.NewRecorder()
		pc.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Contains(t, metricsRec.Body.String(), `pattern="/v1/swaps/{canisterId}"`)
		assert.NotContains(t, metricsRec.Body.String(), `path=`)
	})
	t.Run("Should not grow request series with distinct paths", func(t *testing.T) {
		rpc, _, _, _, pc := setup(t)
		countSeries := func() int {
			families, err := pc.Registry().Gather()
			assert.Nil(t, err)
			for _, mf := range families {
				if strings.HasSuffix(mf.GetName(), "rpc_http_request") {
					return len(mf.GetMetric())
				}
			}
			return 0
		}

		do(rpc, http.MethodGet, "/v1/swaps/junk-0")
		do(rpc, http.MethodGet, "/no/such/route/0")
		initial := countSeries()
		assert.NotZero(t, initial)

		for i := 1; i < 50; i++ {
			do(rpc, http.MethodGet, fmt.Sprintf("/v1/swaps/junk-%d", i))
			do(rpc, http.MethodGet, fmt.Sprintf("/no/such/route/%d", i))
		}
		assert.Equal(t, initial, countSeries())
	})
}
