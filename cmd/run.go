package cmd

import (
	"context"
	"time"

	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/exportQueue"
	"github.com/govwallet/sidecar/pkg/metrics"
	"github.com/govwallet/sidecar/pkg/metrics/prometheus"
	"github.com/govwallet/sidecar/pkg/rpcServer"
	"github.com/govwallet/sidecar/pkg/scheduler"
	"github.com/govwallet/sidecar/pkg/service/stakingRewardsDataService"
	"github.com/govwallet/sidecar/pkg/shutdown"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const refreshJob = "refresh"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep the principal's data in sync and serve it over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)

		a, err := newApp("run")
		if err != nil {
			panic(err)
		}
		defer a.close()
		l := a.logger

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		consumer := eventBusTypes.NewConsumer(ctx, 100)
		a.eventBus.Subscribe(consumer)
		go logEvents(consumer, l)

		stopWatching := a.stakingRewards.Watch(ctx,
			stakingRewardsDataService.WatchStore(a.projects.Parameters.Store),
			stakingRewardsDataService.WatchStore(a.neurons.Neurons.Store),
			stakingRewardsDataService.WatchStore(a.accounts.Balances.Store),
			stakingRewardsDataService.WatchStore(a.prices.Prices),
		)

		eq := exportQueue.NewExportQueue(a.exports, l)
		go eq.Process()

		sched := scheduler.NewScheduler(ctx, l)
		if err := sched.Register(refreshJob, a.cfg.SyncConfig.RefreshSchedule, func(ctx context.Context) {
			a.refresh(ctx, true)
		}); err != nil {
			l.Sugar().Fatalw("Failed to schedule refresh", zap.Error(err))
		}

		for _, p := range a.swaps.Projects {
			if p.Swap == nil {
				continue
			}
			if err := a.swaps.Poll(ctx, p.Project.SwapCanisterId); err != nil {
				l.Sugar().Errorw("Failed to start swap polling", zap.String("project", p.Project.Id), zap.Error(err))
			}
		}

		rpc := rpcServer.NewRpcServer(a.stakingRewards, a.accounts, a.swaps, eq, a.sink, l, a.cfg)
		if err := rpc.Start(); err != nil {
			l.Sugar().Fatalw("Failed to start RPC server", zap.Error(err))
		}

		promChan := make(chan bool)
		if pc := metrics.FindPrometheusClient(a.metricsClients); pc != nil {
			pServer := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{
				Port: a.cfg.PrometheusConfig.Port,
			}, pc, l)
			if err := pServer.Start(promChan); err != nil {
				l.Sugar().Fatalw("Failed to start prometheus server", zap.Error(err))
			}
		}

		// Load everything once before the first scheduled run.
		go func() {
			if err := sched.RunNow(refreshJob); err != nil {
				l.Sugar().Errorw("Initial refresh failed", zap.Error(err))
			}
		}()
		sched.Start()

		l.Sugar().Info("Started wallet sidecar")

		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()

		done := make(chan bool)
		shutdown.ListenForShutdown(gracefulShutdown, done, func() {
			l.Sugar().Info("Shutting down...")
			stopWatching()
			sched.Stop()
			a.swaps.StopAll()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer shutdownCancel()
			if err := rpc.Shutdown(shutdownCtx); err != nil {
				l.Sugar().Errorw("Failed to stop RPC server", zap.Error(err))
			}
			eq.Close()
			close(promChan)
			cancel()
			a.eventBus.Unsubscribe(consumer)
		}, time.Second*5, l)
	},
}

// logEvents logs the notable events until the consumer's context ends.
func logEvents(consumer *eventBusTypes.Consumer, l *zap.Logger) {
	for {
		select {
		case <-consumer.Context.Done():
			return
		case event := <-consumer.Channel:
			switch event.Name {
			case eventBusTypes.Event_SwapLifecycleChanged, eventBusTypes.Event_ExportCompleted:
				l.Sugar().Infow("Event", zap.String("name", event.Name.String()), zap.Any("data", event.Data))
			case eventBusTypes.Event_Toast:
				if t, ok := event.Data.(*eventBusTypes.ToastData); ok && t.Level != eventBusTypes.ToastLevel_Error {
					l.Sugar().Infow("Toast", zap.String("level", string(t.Level)), zap.String("message", t.Message))
				}
			}
		}
	}
}
