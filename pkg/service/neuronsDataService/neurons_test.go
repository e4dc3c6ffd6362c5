package neuronsDataService

import (
	"context"
	"testing"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/clients/governance"
	"github.com/govwallet/sidecar/pkg/eventBus"
	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func setup() (*NeuronsDataService, *agent.MockAgent) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &config.Config{
		Principal: "aaaaa-aa",
		Projects: []*config.ProjectConfig{
			{Id: "nns", Symbol: "ICP", GovernanceCanisterId: "nns-gov", LedgerCanisterId: "nns-ledger"},
			{Id: "sns-1", Symbol: "SNS1", GovernanceCanisterId: "sns-gov", LedgerCanisterId: "sns-ledger"},
		},
	}
	a := agent.NewMockAgent()
	svc := NewNeuronsDataService(baseDataService.BaseDataService{
		Logger:       l,
		EventBus:     eventBus.NewEventBus(l),
		Runner:       queryAndUpdate.NewRunner(queryAndUpdate.Strategy_Update, l),
		GlobalConfig: cfg,
		Projects:     baseDataService.NewProjectClients(a, cfg.Projects, l),
	})
	return svc, a
}

func Test_NeuronsDataService(t *testing.T) {
	t.Run("Should be loading until every project has neurons", func(t *testing.T) {
		svc, a := setup()
		a.Reply("nns-gov", governance.Method_ListNeurons, map[string]any{
			"full_neurons": []*governance.Neuron{{Id: "1", CachedNeuronStakeE8s: 5_000_000_000}},
		})
		a.Reply("sns-gov", governance.Method_ListNeurons, map[string]any{"full_neurons": nil})

		assert.Nil(t, svc.StakingNeurons())

		svc.LoadProjectNeurons(context.Background(), "nns")
		assert.Nil(t, svc.StakingNeurons())

		svc.LoadProjectNeurons(context.Background(), "sns-1")
		neurons := svc.StakingNeurons()
		assert.NotNil(t, neurons)
		assert.Len(t, neurons, 1)
		assert.Equal(t, "nns", neurons[0].ProjectId)
		assert.True(t, neurons[0].CachedStake.Equal(decimal.NewFromInt(50)))
	})
	t.Run("Should keep a project unloaded when listing fails", func(t *testing.T) {
		svc, a := setup()
		a.Reply("nns-gov", governance.Method_ListNeurons, map[string]any{"full_neurons": []*governance.Neuron{}})

		svc.LoadNeurons(context.Background())

		_, ok := svc.Neurons.GetKey("nns")
		assert.True(t, ok)
		_, ok = svc.Neurons.GetKey("sns-1")
		assert.False(t, ok)
		assert.Nil(t, svc.StakingNeurons())
	})
}
