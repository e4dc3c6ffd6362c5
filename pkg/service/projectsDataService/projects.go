package projectsDataService

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/clients/governance"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/stores"
	"go.uber.org/zap"
)

type ProjectsDataService struct {
	baseDataService.BaseDataService
	// Parameters holds the network economics of each project keyed by id.
	Parameters *stores.KeyedStore[*stakingRewards.ProjectParameters]
}

func NewProjectsDataService(base baseDataService.BaseDataService) *ProjectsDataService {
	return &ProjectsDataService{
		BaseDataService: base,
		Parameters:      stores.NewKeyedStore[*stakingRewards.ProjectParameters](),
	}
}

func (s *ProjectsDataService) LoadParameters(ctx context.Context) {
	for _, p := range s.Projects {
		s.LoadProjectParameters(ctx, p.Project.Id)
	}
}

func (s *ProjectsDataService) LoadProjectParameters(ctx context.Context, projectId string) {
	p := s.GetProject(projectId)
	if p == nil {
		s.Logger.Sugar().Warnw("Unknown project", zap.String("projectId", projectId))
		return
	}
	queryAndUpdate.Run(ctx, s.Runner, fmt.Sprintf("parameters:%s", projectId),
		func(ctx context.Context, certified bool) (*stakingRewards.ProjectParameters, error) {
			return fetchParameters(ctx, p, certified)
		},
		func(params *stakingRewards.ProjectParameters, certified bool) {
			s.Parameters.SetKey(projectId, params, certified)
		},
		func(err error, certified bool) {
			s.ToastError(fmt.Sprintf("Failed to load %s parameters", p.Project.Symbol), err, certified)
		},
	)
}

func fetchParameters(ctx context.Context, p *baseDataService.ProjectClients, certified bool) (*stakingRewards.ProjectParameters, error) {
	params, err := p.Governance.GetParameters(ctx, certified)
	if err != nil {
		return nil, err
	}
	metrics, err := p.Governance.GetMetrics(ctx, certified)
	if err != nil {
		return nil, err
	}
	supply, err := p.Ledger.TotalSupply(ctx, certified)
	if err != nil {
		return nil, err
	}
	return governance.ToProjectParameters(p.Project.Id, p.Project.Symbol, params, metrics, supply)
}

// ProjectParameters returns the parameters of every project, or nil while any
// project has not been loaded.
func (s *ProjectsDataService) ProjectParameters() []*stakingRewards.ProjectParameters {
	loaded := s.Parameters.Get()
	res := make([]*stakingRewards.ProjectParameters, 0, len(s.Projects))
	for _, p := range s.Projects {
		entry, ok := loaded[p.Project.Id]
		if !ok {
			return nil
		}
		res = append(res, entry.Data)
	}
	return res
}
