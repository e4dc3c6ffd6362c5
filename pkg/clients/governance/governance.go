// Package governance wraps the governance canister of a project (NNS or SNS).
package governance

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/types/numbers"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	Method_ListNeurons   = "list_neurons"
	Method_GetParameters = "get_nervous_system_parameters"
	Method_GetMetrics    = "get_metrics"
)

const basisPointsPerUnit = 10_000

type NeuronState string

const (
	NeuronState_Locked     NeuronState = "locked"
	NeuronState_Dissolving NeuronState = "dissolving"
	NeuronState_Dissolved  NeuronState = "dissolved"
	NeuronState_Spawning   NeuronState = "spawning"
)

type Neuron struct {
	Id                            string      `json:"id"`
	Account                       string      `json:"account"`
	Controller                    string      `json:"controller"`
	State                         NeuronState `json:"state"`
	CachedNeuronStakeE8s          uint64      `json:"cached_neuron_stake_e8s"`
	NeuronFeesE8s                 uint64      `json:"neuron_fees_e8s"`
	MaturityE8sEquivalent         uint64      `json:"maturity_e8s_equivalent"`
	StakedMaturityE8sEquivalent   *uint64     `json:"staked_maturity_e8s_equivalent,omitempty"`
	AutoStakeMaturity             *bool       `json:"auto_stake_maturity,omitempty"`
	DissolveDelaySeconds          uint64      `json:"dissolve_delay_seconds"`
	AgingSinceTimestampSeconds    uint64      `json:"aging_since_timestamp_seconds"`
	CreatedTimestampSeconds       uint64      `json:"created_timestamp_seconds"`
	WhenDissolvedTimestampSeconds *uint64     `json:"when_dissolved_timestamp_seconds,omitempty"`
}

type VotingRewardsParameters struct {
	InitialRewardRateBasisPoints        uint64 `json:"initial_reward_rate_basis_points"`
	FinalRewardRateBasisPoints          uint64 `json:"final_reward_rate_basis_points"`
	RewardRateTransitionDurationSeconds uint64 `json:"reward_rate_transition_duration_seconds"`
	GenesisTimestampSeconds             uint64 `json:"genesis_timestamp_seconds"`
}

type Parameters struct {
	NeuronMinimumStakeE8s                   uint64                   `json:"neuron_minimum_stake_e8s"`
	NeuronMinimumDissolveDelayToVoteSeconds uint64                   `json:"neuron_minimum_dissolve_delay_to_vote_seconds"`
	MaxDissolveDelaySeconds                 uint64                   `json:"max_dissolve_delay_seconds"`
	MaxNeuronAgeForAgeBonus                 uint64                   `json:"max_neuron_age_for_age_bonus"`
	MaxDissolveDelayBonusPercentage         uint64                   `json:"max_dissolve_delay_bonus_percentage"`
	MaxAgeBonusPercentage                   uint64                   `json:"max_age_bonus_percentage"`
	TransactionFeeE8s                       uint64                   `json:"transaction_fee_e8s"`
	VotingRewardsParameters                 *VotingRewardsParameters `json:"voting_rewards_parameters,omitempty"`
}

type Metrics struct {
	TotalVotingPowerE8s uint64 `json:"total_voting_power_e8s"`
	TotalStakedE8s      uint64 `json:"total_staked_e8s"`
}

type listNeuronsArg struct {
	IncludeNeuronsReadableByCaller bool `json:"include_neurons_readable_by_caller"`
}

type listNeuronsReply struct {
	FullNeurons []*Neuron `json:"full_neurons"`
}

type Client struct {
	agent      agent.Agent
	canisterId string
	logger     *zap.Logger
}

func NewClient(a agent.Agent, canisterId string, l *zap.Logger) *Client {
	return &Client{
		agent:      a,
		canisterId: canisterId,
		logger:     l,
	}
}

func (c *Client) CanisterId() string {
	return c.canisterId
}

// ListNeurons returns the neurons controlled by, or readable by, the caller.
func (c *Client) ListNeurons(ctx context.Context, certified bool) ([]*Neuron, error) {
	var reply listNeuronsReply
	err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_ListNeurons, &listNeuronsArg{IncludeNeuronsReadableByCaller: true}, &reply)
	if err != nil {
		return nil, fmt.Errorf("failed to list neurons: %w", err)
	}
	if reply.FullNeurons == nil {
		return []*Neuron{}, nil
	}
	return reply.FullNeurons, nil
}

func (c *Client) GetParameters(ctx context.Context, certified bool) (*Parameters, error) {
	var params Parameters
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_GetParameters, nil, &params); err != nil {
		return nil, fmt.Errorf("failed to get governance parameters: %w", err)
	}
	return &params, nil
}

func (c *Client) GetMetrics(ctx context.Context, certified bool) (*Metrics, error) {
	var metrics Metrics
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_GetMetrics, nil, &metrics); err != nil {
		return nil, fmt.Errorf("failed to get governance metrics: %w", err)
	}
	return &metrics, nil
}

func basisPointsToRate(bp uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(bp)).Div(decimal.NewFromInt(basisPointsPerUnit))
}

// ToStakingNeuron converts a wire neuron into estimator input.
func (n *Neuron) ToStakingNeuron(projectId string) *stakingRewards.Neuron {
	stakedMaturity := uint64(0)
	if n.StakedMaturityE8sEquivalent != nil {
		stakedMaturity = *n.StakedMaturityE8sEquivalent
	}
	return &stakingRewards.Neuron{
		Id:                         n.Id,
		ProjectId:                  projectId,
		CachedStake:                numbers.E8sToTokens(n.CachedNeuronStakeE8s),
		Fees:                       numbers.E8sToTokens(n.NeuronFeesE8s),
		Maturity:                   numbers.E8sToTokens(n.MaturityE8sEquivalent),
		StakedMaturity:             numbers.E8sToTokens(stakedMaturity),
		DissolveDelaySeconds:       n.DissolveDelaySeconds,
		AgingSinceTimestampSeconds: n.AgingSinceTimestampSeconds,
		AutoStakeMaturity:          n.AutoStakeMaturity != nil && *n.AutoStakeMaturity,
	}
}

// ToProjectParameters combines governance parameters and metrics with the
// ledger's total supply into estimator input.
func ToProjectParameters(projectId string, symbol string, params *Parameters, metrics *Metrics, totalSupplyE8s uint64) (*stakingRewards.ProjectParameters, error) {
	if params == nil || metrics == nil {
		return nil, fmt.Errorf("project %s: parameters and metrics are required", projectId)
	}
	if params.VotingRewardsParameters == nil {
		return nil, fmt.Errorf("project %s: voting rewards parameters are missing", projectId)
	}
	vrp := params.VotingRewardsParameters
	return &stakingRewards.ProjectParameters{
		ProjectId:                         projectId,
		Symbol:                            symbol,
		MinimumStake:                      numbers.E8sToTokens(params.NeuronMinimumStakeE8s),
		MinimumDissolveDelayToVoteSeconds: params.NeuronMinimumDissolveDelayToVoteSeconds,
		MaxDissolveDelaySeconds:           params.MaxDissolveDelaySeconds,
		MaxAgeSeconds:                     params.MaxNeuronAgeForAgeBonus,
		MaxDissolveDelayBonusPercentage:   decimal.NewFromInt(int64(params.MaxDissolveDelayBonusPercentage)),
		MaxAgeBonusPercentage:             decimal.NewFromInt(int64(params.MaxAgeBonusPercentage)),
		RewardCurve: stakingRewards.RewardCurve{
			InitialRate:               basisPointsToRate(vrp.InitialRewardRateBasisPoints),
			FinalRate:                 basisPointsToRate(vrp.FinalRewardRateBasisPoints),
			TransitionDurationSeconds: vrp.RewardRateTransitionDurationSeconds,
			GenesisTimestampSeconds:   vrp.GenesisTimestampSeconds,
		},
		TotalSupply:      numbers.E8sToTokens(totalSupplyE8s),
		TotalVotingPower: numbers.E8sToTokens(metrics.TotalVotingPowerE8s),
	}, nil
}
