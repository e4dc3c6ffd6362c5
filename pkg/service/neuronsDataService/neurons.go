package neuronsDataService

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/clients/governance"
	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/govwallet/sidecar/pkg/utils"
	"go.uber.org/zap"
)

type NeuronsDataService struct {
	baseDataService.BaseDataService
	// Neurons holds the caller's neurons keyed by project id.
	Neurons *stores.KeyedStore[[]*governance.Neuron]
}

func NewNeuronsDataService(base baseDataService.BaseDataService) *NeuronsDataService {
	return &NeuronsDataService{
		BaseDataService: base,
		Neurons:         stores.NewKeyedStore[[]*governance.Neuron](),
	}
}

func (s *NeuronsDataService) LoadNeurons(ctx context.Context) {
	for _, p := range s.Projects {
		s.LoadProjectNeurons(ctx, p.Project.Id)
	}
}

func (s *NeuronsDataService) LoadProjectNeurons(ctx context.Context, projectId string) {
	p := s.GetProject(projectId)
	if p == nil {
		s.Logger.Sugar().Warnw("Unknown project", zap.String("projectId", projectId))
		return
	}
	queryAndUpdate.Run(ctx, s.Runner, fmt.Sprintf("neurons:%s", projectId),
		func(ctx context.Context, certified bool) ([]*governance.Neuron, error) {
			return p.Governance.ListNeurons(ctx, certified)
		},
		func(neurons []*governance.Neuron, certified bool) {
			s.Neurons.SetKey(projectId, neurons, certified)
			s.Publish(eventBusTypes.Event_NeuronsLoaded, &eventBusTypes.LoadedData{ProjectId: projectId, Certified: certified})
		},
		func(err error, certified bool) {
			s.ToastError(fmt.Sprintf("Failed to load %s neurons", p.Project.Symbol), err, certified)
		},
	)
}

// StakingNeurons returns the neurons of every project as estimator input,
// or nil while any project has not been loaded.
func (s *NeuronsDataService) StakingNeurons() []*stakingRewards.Neuron {
	loaded := s.Neurons.Get()
	res := make([]*stakingRewards.Neuron, 0)
	for _, p := range s.Projects {
		entry, ok := loaded[p.Project.Id]
		if !ok {
			return nil
		}
		res = append(res, utils.Map(entry.Data, func(n *governance.Neuron, i uint64) *stakingRewards.Neuron {
			return n.ToStakingNeuron(p.Project.Id)
		})...)
	}
	return res
}
