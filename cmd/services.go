package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/internal/tracer"
	"github.com/govwallet/sidecar/internal/version"
	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/clients/coingecko"
	"github.com/govwallet/sidecar/pkg/eventBus"
	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/metrics"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/poller"
	"github.com/govwallet/sidecar/pkg/postgres"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/accountsDataService"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/service/exportDataService"
	"github.com/govwallet/sidecar/pkg/service/neuronsDataService"
	"github.com/govwallet/sidecar/pkg/service/pricesDataService"
	"github.com/govwallet/sidecar/pkg/service/projectsDataService"
	"github.com/govwallet/sidecar/pkg/service/stakingRewardsDataService"
	"github.com/govwallet/sidecar/pkg/service/swapDataService"
	"github.com/govwallet/sidecar/pkg/storage"
	"github.com/govwallet/sidecar/pkg/storage/memory"
	pgStorage "github.com/govwallet/sidecar/pkg/storage/postgres"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMemoryEstimates = 1000

// app holds everything the commands share.
type app struct {
	cfg            *config.Config
	logger         *zap.Logger
	eventBus       *eventBus.EventBus
	metricsClients []metricsTypes.IMetricsClient
	sink           *metrics.MetricsSink

	db  *sql.DB
	grm *gorm.DB

	accounts       *accountsDataService.AccountsDataService
	neurons        *neuronsDataService.NeuronsDataService
	projects       *projectsDataService.ProjectsDataService
	prices         *pricesDataService.PricesDataService
	stakingRewards *stakingRewardsDataService.StakingRewardsDataService
	swaps          *swapDataService.SwapDataService
	exports        *exportDataService.ExportDataService
}

func newApp(command string) (*app, error) {
	cfg := config.NewConfig()
	if err := cfg.LoadProjects(viper.GetString(config.KebabToSnakeCase(config.ProjectsFile))); err != nil {
		return nil, err
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	l.Sugar().Infow("wallet sidecar",
		zap.String("command", command),
		zap.String("version", version.GetVersion()),
		zap.String("commit", version.GetCommit()),
		zap.String("chain", cfg.Chain.String()),
		zap.String("principal", cfg.Principal),
		zap.Int("projects", len(cfg.Projects)),
	)
	if cfg.Principal == "" {
		return nil, fmt.Errorf("%s is required", config.Principal)
	}

	tracer.StartTracer(cfg.DataDogConfig.EnableTracing, cfg.Chain)

	metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		return nil, err
	}
	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
	if err != nil {
		return nil, fmt.Errorf("failed to setup metrics sink: %w", err)
	}

	a := &app{
		cfg:            cfg,
		logger:         l,
		eventBus:       eventBus.NewEventBus(l),
		metricsClients: metricsClients,
		sink:           sink,
	}

	httpAgent := agent.NewHttpAgent(&agent.HttpAgentConfig{
		Host:      cfg.AgentConfig.Host,
		Principal: cfg.Principal,
		Timeout:   cfg.AgentConfig.Timeout,
	}, l)
	instrumented := agent.NewInstrumentedAgent(httpAgent, sink)

	base := baseDataService.BaseDataService{
		Logger:       l,
		EventBus:     a.eventBus,
		MetricsSink:  sink,
		Runner:       queryAndUpdate.NewRunner(queryAndUpdate.Strategy(cfg.SyncConfig.QueryStrategy), l),
		GlobalConfig: cfg,
		Projects:     baseDataService.NewProjectClients(instrumented, cfg.Projects, l),
	}

	history, jobs, err := a.openStorage()
	if err != nil {
		return nil, err
	}

	pollerConfig := &poller.Config{
		InitialDelay: cfg.SyncConfig.Retry.InitialDelay,
		MaxDelay:     cfg.SyncConfig.Retry.MaxDelay,
		MaxAttempts:  cfg.SyncConfig.Retry.MaxAttempts,
	}

	a.accounts = accountsDataService.NewAccountsDataService(base, pollerConfig)
	a.neurons = neuronsDataService.NewNeuronsDataService(base)
	a.projects = projectsDataService.NewProjectsDataService(base)
	a.prices = pricesDataService.NewPricesDataService(base, coingecko.NewClient(cfg.CoingeckoConfig.ApiKey, cfg.CoingeckoConfig.BaseUrl, l))
	a.stakingRewards = stakingRewardsDataService.NewStakingRewardsDataService(base, stakingRewardsDataService.Sources{
		Projects: a.projects,
		Neurons:  a.neurons,
		Balances: a.accounts,
		Rates:    a.prices,
	}, history)
	a.swaps = swapDataService.NewSwapDataService(base, cfg.SyncConfig.SwapPollInterval, pollerConfig)
	a.exports = exportDataService.NewExportDataService(base, jobs)

	return a, nil
}

// openStorage uses PostgreSQL when enabled and an in-memory store otherwise.
func (a *app) openStorage() (storage.RewardsHistoryStore, storage.ExportJobStore, error) {
	if !a.cfg.DatabaseConfig.Enabled {
		a.logger.Sugar().Infow("Database disabled, keeping history in memory", zap.Int("maxEstimates", maxMemoryEstimates))
		store := memory.NewMemoryHistoryStore(maxMemoryEstimates)
		return store, store, nil
	}
	db, grm, err := postgres.OpenAndMigrate(a.cfg, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.grm = grm
	store := pgStorage.NewPostgresHistoryStore(grm, a.logger, a.cfg)
	return store, store, nil
}

// refresh loads every input of the estimate and recomputes it.
func (a *app) refresh(ctx context.Context, persist bool) {
	a.projects.LoadParameters(ctx)
	a.neurons.LoadNeurons(ctx)
	a.accounts.LoadBalances(ctx)
	a.prices.LoadPrices(ctx)
	a.stakingRewards.Compute(ctx, persist)
}

func (a *app) close() {
	a.sink.Flush()
	tracer.StopTracer()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Sugar().Errorw("Failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
