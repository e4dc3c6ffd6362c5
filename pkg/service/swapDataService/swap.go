package swapDataService

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/poller"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/govwallet/sidecar/pkg/types/numbers"
	"github.com/govwallet/sidecar/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SwapStatus struct {
	ProjectId         string          `json:"projectId"`
	SwapCanisterId    string          `json:"swapCanisterId"`
	Lifecycle         string          `json:"lifecycle"`
	Final             bool            `json:"final"`
	BuyerTotalIcp     decimal.Decimal `json:"buyerTotalIcp"`
	ParticipantCount  *uint64         `json:"participantCount,omitempty"`
	ParticipationIcp  decimal.Decimal `json:"participationIcp"`
	HasParticipated   bool            `json:"hasParticipated"`
	UpdatedAtUnixSecs int64           `json:"updatedAt"`
}

type swapPoller struct {
	cancel context.CancelFunc
}

type SwapDataService struct {
	baseDataService.BaseDataService
	interval     time.Duration
	pollerConfig *poller.Config

	// Statuses holds the latest status keyed by swap canister id.
	Statuses *stores.KeyedStore[*SwapStatus]

	mu      sync.Mutex
	pollers map[string]*swapPoller
	wg      sync.WaitGroup
}

func NewSwapDataService(base baseDataService.BaseDataService, interval time.Duration, pollerConfig *poller.Config) *SwapDataService {
	return &SwapDataService{
		BaseDataService: base,
		interval:        interval,
		pollerConfig:    pollerConfig,
		Statuses:        stores.NewKeyedStore[*SwapStatus](),
		pollers:         make(map[string]*swapPoller),
	}
}

func (s *SwapDataService) findSwap(swapCanisterId string) (*baseDataService.ProjectClients, error) {
	for _, p := range s.Projects {
		if p.Swap != nil && utils.AreIdsEqual(p.Swap.CanisterId(), swapCanisterId) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown swap canister '%s'", swapCanisterId)
}

// canonicalId returns the configured spelling of a swap canister id, or the
// argument itself when no project knows it.
func (s *SwapDataService) canonicalId(swapCanisterId string) string {
	if p, err := s.findSwap(swapCanisterId); err == nil {
		return p.Swap.CanisterId()
	}
	return swapCanisterId
}

// LoadStatus fetches the certified status of a swap once.
func (s *SwapDataService) LoadStatus(ctx context.Context, swapCanisterId string) (*SwapStatus, error) {
	p, err := s.findSwap(swapCanisterId)
	if err != nil {
		return nil, err
	}
	return s.loadStatus(ctx, p)
}

func (s *SwapDataService) loadStatus(ctx context.Context, p *baseDataService.ProjectClients) (*SwapStatus, error) {
	lifecycle, err := p.Swap.GetLifecycle(ctx, true)
	if err != nil {
		return nil, err
	}
	derived, err := p.Swap.GetDerivedState(ctx, true)
	if err != nil {
		return nil, err
	}
	buyer, err := p.Swap.GetBuyerState(ctx, s.GlobalConfig.Principal, true)
	if err != nil {
		return nil, err
	}

	status := &SwapStatus{
		ProjectId:         p.Project.Id,
		SwapCanisterId:    p.Swap.CanisterId(),
		Lifecycle:         lifecycle.Lifecycle.String(),
		Final:             lifecycle.Lifecycle.IsFinal(),
		BuyerTotalIcp:     numbers.E8sToTokens(derived.BuyerTotalIcpE8s),
		ParticipantCount:  derived.DirectParticipantCount,
		ParticipationIcp:  decimal.Zero,
		UpdatedAtUnixSecs: time.Now().Unix(),
	}
	if buyer != nil {
		status.HasParticipated = true
		status.ParticipationIcp = numbers.E8sToTokens(buyer.IcpAmountE8s)
	}

	previous, ok := s.Statuses.GetKey(status.SwapCanisterId)
	s.Statuses.SetKey(status.SwapCanisterId, status, true)
	if !ok || previous.Data.Lifecycle != status.Lifecycle {
		s.Publish(eventBusTypes.Event_SwapLifecycleChanged, &eventBusTypes.SwapLifecycleData{
			SwapCanisterId: status.SwapCanisterId,
			Lifecycle:      status.Lifecycle,
		})
	}
	return status, nil
}

// Poll refreshes the status of a swap every interval until the swap reaches a
// final lifecycle, Stop is called or ctx is done. Each refresh retries with
// backoff; running out of attempts ends the polling silently.
func (s *SwapDataService) Poll(ctx context.Context, swapCanisterId string) error {
	p, err := s.findSwap(swapCanisterId)
	if err != nil {
		return err
	}

	id := p.Swap.CanisterId()

	s.mu.Lock()
	if _, ok := s.pollers[id]; ok {
		s.mu.Unlock()
		return nil
	}
	pollCtx, cancel := context.WithCancel(ctx)
	sp := &swapPoller{cancel: cancel}
	s.pollers[id] = sp
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.remove(id, sp)
		s.poll(pollCtx, p)
	}()
	return nil
}

func (s *SwapDataService) poll(ctx context.Context, p *baseDataService.ProjectClients) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		status, err := poller.PollWithBackoff(ctx, s.pollerConfig, func(ctx context.Context) (*SwapStatus, error) {
			return s.loadStatus(ctx, p)
		}, nil)

		switch {
		case errors.Is(err, poller.ErrPollingLimit):
			s.Logger.Sugar().Infow("Stopped polling swap after repeated failures", zap.String("swapCanisterId", p.Swap.CanisterId()))
			if s.MetricsSink != nil {
				_ = s.MetricsSink.Incr(metricsTypes.Metric_Incr_PollingLimitReached, []metricsTypes.MetricsLabel{
					{Name: "operation", Value: "swapStatus"},
				}, 1)
			}
			return
		case err != nil:
			return
		case status.Final:
			s.Logger.Sugar().Infow("Swap reached a final state",
				zap.String("swapCanisterId", status.SwapCanisterId),
				zap.String("lifecycle", status.Lifecycle),
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// remove cancels the poller of swapCanisterId. When sp is set only that
// poller is removed, so an exiting poller never removes its replacement.
func (s *SwapDataService) remove(swapCanisterId string, sp *swapPoller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.pollers[swapCanisterId]
	if !ok || (sp != nil && current != sp) {
		return
	}
	current.cancel()
	delete(s.pollers, swapCanisterId)
}

func (s *SwapDataService) IsPolling(swapCanisterId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pollers[s.canonicalId(swapCanisterId)]
	return ok
}

func (s *SwapDataService) Stop(swapCanisterId string) {
	s.remove(s.canonicalId(swapCanisterId), nil)
}

// StopAll cancels every poller and waits for them to exit.
func (s *SwapDataService) StopAll() {
	s.mu.Lock()
	for id, sp := range s.pollers {
		sp.cancel()
		delete(s.pollers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// GetStatus returns the last polled status of a swap.
func (s *SwapDataService) GetStatus(swapCanisterId string) (*SwapStatus, bool) {
	entry, ok := s.Statuses.GetKey(s.canonicalId(swapCanisterId))
	if !ok {
		return nil, false
	}
	return entry.Data, true
}
