package rpcServer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/exportQueue"
	"github.com/govwallet/sidecar/pkg/metrics"
	"github.com/govwallet/sidecar/pkg/service/swapDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/storage"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StakingRewardsService interface {
	Current() *stakingRewards.Result
	History(principal string, limit int) ([]*storage.StakingRewardEstimate, error)
}

type AccountsService interface {
	LoadBalance(ctx context.Context, projectId string)
	SyncBalanceAfterTransfer(ctx context.Context, projectId string, previous decimal.Decimal) (decimal.Decimal, error)
	GetBalance(projectId string) (*stores.CertifiedData[decimal.Decimal], bool)
}

type SwapService interface {
	GetStatus(swapCanisterId string) (*swapDataService.SwapStatus, bool)
	LoadStatus(ctx context.Context, swapCanisterId string) (*swapDataService.SwapStatus, error)
}

type ExportService interface {
	EnqueueAndWait(ctx context.Context, data exportQueue.ExportRequest) (*exportQueue.ExportResponse, error)
}

type RpcServer struct {
	Logger       *zap.Logger
	globalConfig *config.Config
	metricsSink  *metrics.MetricsSink

	stakingRewardsService StakingRewardsService
	accountsService       AccountsService
	swapService           SwapService
	exportService         ExportService

	httpServer *http.Server
}

func NewRpcServer(
	stakingRewardsService StakingRewardsService,
	accountsService AccountsService,
	swapService SwapService,
	exportService ExportService,
	ms *metrics.MetricsSink,
	l *zap.Logger,
	cfg *config.Config,
) *RpcServer {
	return &RpcServer{
		Logger:                l,
		globalConfig:          cfg,
		metricsSink:           ms,
		stakingRewardsService: stakingRewardsService,
		accountsService:       accountsService,
		swapService:           swapService,
		exportService:         exportService,
	}
}

func (rpc *RpcServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)
	r.Use(rpc.tracingMiddleware)
	r.Use(rpc.metricsMiddleware)

	r.Get("/healthz", rpc.Health)
	r.Get("/v1/about", rpc.About)

	r.Route("/v1/staking-rewards", func(r chi.Router) {
		r.Get("/", rpc.GetStakingRewards)
		r.Get("/history", rpc.GetStakingRewardsHistory)
	})
	r.Route("/v1/exports", func(r chi.Router) {
		r.Get("/neurons.csv", rpc.ExportNeurons)
		r.Get("/transactions.csv", rpc.ExportTransactions)
	})
	r.Get("/v1/swaps/{canisterId}", rpc.GetSwapStatus)
	r.Get("/v1/accounts/{projectId}/balance", rpc.GetBalance)
	r.Post("/v1/accounts/{projectId}/sync", rpc.SyncBalance)

	return r
}

// Start serves the API until Shutdown is called.
func (rpc *RpcServer) Start() error {
	rpc.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", rpc.globalConfig.RpcConfig.HttpPort),
		Handler:           rpc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	rpc.Logger.Sugar().Infow("Starting HTTP server", zap.Int("port", rpc.globalConfig.RpcConfig.HttpPort))

	go func() {
		if err := rpc.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rpc.Logger.Sugar().Fatalw("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

func (rpc *RpcServer) Shutdown(ctx context.Context) error {
	if rpc.httpServer == nil {
		return nil
	}
	return rpc.httpServer.Shutdown(ctx)
}
