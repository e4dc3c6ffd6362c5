package projectsDataService

import (
	"context"
	"testing"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/clients/governance"
	"github.com/govwallet/sidecar/pkg/clients/ledger"
	"github.com/govwallet/sidecar/pkg/eventBus"
	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/queryAndUpdate"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func setup() (*ProjectsDataService, *agent.MockAgent) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &config.Config{
		Projects: []*config.ProjectConfig{
			{Id: "nns", Symbol: "ICP", GovernanceCanisterId: "gov", LedgerCanisterId: "ledger"},
		},
	}
	a := agent.NewMockAgent()
	svc := NewProjectsDataService(baseDataService.BaseDataService{
		Logger:       l,
		EventBus:     eventBus.NewEventBus(l),
		Runner:       queryAndUpdate.NewRunner(queryAndUpdate.Strategy_Update, l),
		GlobalConfig: cfg,
		Projects:     baseDataService.NewProjectClients(a, cfg.Projects, l),
	})
	return svc, a
}

func Test_ProjectsDataService(t *testing.T) {
	t.Run("Should combine governance and ledger data", func(t *testing.T) {
		svc, a := setup()
		a.Reply("gov", governance.Method_GetParameters, &governance.Parameters{
			NeuronMinimumStakeE8s:                   100_000_000,
			NeuronMinimumDissolveDelayToVoteSeconds: 15_778_800,
			MaxDissolveDelaySeconds:                 252_460_800,
			MaxNeuronAgeForAgeBonus:                 126_230_400,
			MaxDissolveDelayBonusPercentage:         100,
			MaxAgeBonusPercentage:                   25,
			VotingRewardsParameters: &governance.VotingRewardsParameters{
				InitialRewardRateBasisPoints:        1000,
				FinalRewardRateBasisPoints:          500,
				RewardRateTransitionDurationSeconds: 252_460_800,
			},
		})
		a.Reply("gov", governance.Method_GetMetrics, &governance.Metrics{TotalVotingPowerE8s: 4_000_000_000})
		a.Reply("ledger", ledger.Method_TotalSupply, uint64(10_000_000_000))

		assert.Nil(t, svc.ProjectParameters())
		svc.LoadParameters(context.Background())

		params := svc.ProjectParameters()
		assert.Len(t, params, 1)
		assert.Equal(t, "ICP", params[0].Symbol)
		assert.True(t, params[0].TotalSupply.Equal(decimal.NewFromInt(100)))
		assert.True(t, params[0].TotalVotingPower.Equal(decimal.NewFromInt(40)))
		assert.True(t, params[0].RewardCurve.InitialRate.Equal(decimal.RequireFromString("0.1")))
	})
	t.Run("Should stay unloaded when reward parameters are missing", func(t *testing.T) {
		svc, a := setup()
		a.Reply("gov", governance.Method_GetParameters, &governance.Parameters{})
		a.Reply("gov", governance.Method_GetMetrics, &governance.Metrics{})
		a.Reply("ledger", ledger.Method_TotalSupply, uint64(1))

		svc.LoadProjectParameters(context.Background(), "nns")
		assert.Nil(t, svc.ProjectParameters())
	})
}
