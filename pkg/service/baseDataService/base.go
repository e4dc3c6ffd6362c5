package baseDataService

import (
	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/clients/governance"
	"github.com/govwallet/sidecar/pkg/clients/index"
	"github.com/govwallet/sidecar/pkg/clients/ledger"
	"github.com/govwallet/sidecar/pkg/clients/swap"
	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/metrics"
	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"go.uber.org/zap"
)

// ProjectClients are the canister wrappers of one project. Index and Swap
// are nil when the project has no such canister.
type ProjectClients struct {
	Project    *config.ProjectConfig
	Governance *governance.Client
	Ledger     *ledger.Client
	Index      *index.Client
	Swap       *swap.Client
}

func NewProjectClients(a agent.Agent, projects []*config.ProjectConfig, l *zap.Logger) []*ProjectClients {
	clients := make([]*ProjectClients, 0, len(projects))
	for _, p := range projects {
		pc := &ProjectClients{
			Project:    p,
			Governance: governance.NewClient(a, p.GovernanceCanisterId, l),
			Ledger:     ledger.NewClient(a, p.LedgerCanisterId, l),
		}
		if p.IndexCanisterId != "" {
			pc.Index = index.NewClient(a, p.IndexCanisterId, l)
		}
		if p.SwapCanisterId != "" {
			pc.Swap = swap.NewClient(a, p.SwapCanisterId, l)
		}
		clients = append(clients, pc)
	}
	return clients
}

type BaseDataService struct {
	Logger       *zap.Logger
	EventBus     eventBusTypes.IEventBus
	MetricsSink  *metrics.MetricsSink
	Runner       *queryAndUpdate.Runner
	GlobalConfig *config.Config
	Projects     []*ProjectClients
}

// Account is the default account of the configured principal.
func (b *BaseDataService) Account() *ledger.Account {
	return &ledger.Account{Owner: b.GlobalConfig.Principal}
}

func (b *BaseDataService) GetProject(projectId string) *ProjectClients {
	for _, p := range b.Projects {
		if p.Project.Id == projectId {
			return p
		}
	}
	return nil
}

// ToastError reports a failed load. Errors of the uncertified query are only
// logged since the certified update usually follows.
func (b *BaseDataService) ToastError(message string, err error, certified bool) {
	if !certified && b.Runner != nil && b.Runner.Strategy() == queryAndUpdate.Strategy_QueryAndUpdate {
		b.Logger.Sugar().Debugw(message, zap.Error(err), zap.Bool("certified", certified))
		return
	}
	b.EventBus.Toast(eventBusTypes.ToastLevel_Error, message, err)
	b.incrToast(eventBusTypes.ToastLevel_Error)
}

func (b *BaseDataService) incrToast(level eventBusTypes.ToastLevel) {
	if b.MetricsSink == nil {
		return
	}
	_ = b.MetricsSink.Incr(metricsTypes.Metric_Incr_Toast, []metricsTypes.MetricsLabel{
		{Name: "level", Value: string(level)},
	}, 1)
}

func (b *BaseDataService) Publish(name eventBusTypes.EventName, data any) {
	b.EventBus.Publish(&eventBusTypes.Event{Name: name, Data: data})
}
