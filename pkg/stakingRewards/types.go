// Package stakingRewards estimates staking power, weekly rewards and APY for a
// holder's neurons across independently governed projects.
//
// Everything in this package is a pure function of a Snapshot: there is no I/O
// and no dependency on the wall clock, so identical snapshots always produce
// identical results.
package stakingRewards

import (
	"github.com/shopspring/decimal"
)

const (
	SecondsPerDay = 86_400
	// DaysPerYear is used to spread the yearly reward pool over days.
	DaysPerYear = "365.25"
	// CompoundingPeriodsPerYear is the number of daily periods used to annualize rates.
	CompoundingPeriodsPerYear = 365
	// WeekDays is the horizon of the weekly reward estimate.
	WeekDays = 7
)

// Neuron is a staked, lockable token position.
type Neuron struct {
	Id        string `yaml:"id" json:"id"`
	ProjectId string `yaml:"projectId" json:"projectId"`

	CachedStake decimal.Decimal `yaml:"cachedStake" json:"cachedStake"`
	Fees        decimal.Decimal `yaml:"fees" json:"fees"`
	// Maturity is the accumulated reward that is not staked.
	Maturity decimal.Decimal `yaml:"maturity" json:"maturity"`
	// StakedMaturity is the accumulated reward that already counts as stake.
	StakedMaturity decimal.Decimal `yaml:"stakedMaturity" json:"stakedMaturity"`

	// DissolveDelaySeconds is the remaining lock before the stake becomes liquid.
	DissolveDelaySeconds uint64 `yaml:"dissolveDelaySeconds" json:"dissolveDelaySeconds"`
	// AgingSinceTimestampSeconds is 0, or in the future, when the neuron is not aging.
	AgingSinceTimestampSeconds uint64 `yaml:"agingSinceTimestampSeconds" json:"agingSinceTimestampSeconds"`
	AutoStakeMaturity          bool   `yaml:"autoStakeMaturity" json:"autoStakeMaturity"`
}

// RewardCurve describes how the yearly reward rate decays from InitialRate to FinalRate.
type RewardCurve struct {
	InitialRate               decimal.Decimal `yaml:"initialRate" json:"initialRate"`
	FinalRate                 decimal.Decimal `yaml:"finalRate" json:"finalRate"`
	TransitionDurationSeconds uint64          `yaml:"transitionDurationSeconds" json:"transitionDurationSeconds"`
	GenesisTimestampSeconds   uint64          `yaml:"genesisTimestampSeconds" json:"genesisTimestampSeconds"`
}

// ProjectParameters is the economics snapshot of one governed token project.
type ProjectParameters struct {
	ProjectId string `yaml:"projectId" json:"projectId"`
	Symbol    string `yaml:"symbol" json:"symbol"`

	MinimumStake                      decimal.Decimal `yaml:"minimumStake" json:"minimumStake"`
	MinimumDissolveDelayToVoteSeconds uint64          `yaml:"minimumDissolveDelayToVoteSeconds" json:"minimumDissolveDelayToVoteSeconds"`
	MaxDissolveDelaySeconds           uint64          `yaml:"maxDissolveDelaySeconds" json:"maxDissolveDelaySeconds"`
	MaxAgeSeconds                     uint64          `yaml:"maxAgeSeconds" json:"maxAgeSeconds"`
	MaxDissolveDelayBonusPercentage   decimal.Decimal `yaml:"maxDissolveDelayBonusPercentage" json:"maxDissolveDelayBonusPercentage"`
	MaxAgeBonusPercentage             decimal.Decimal `yaml:"maxAgeBonusPercentage" json:"maxAgeBonusPercentage"`

	RewardCurve RewardCurve `yaml:"rewardCurve" json:"rewardCurve"`

	TotalSupply      decimal.Decimal `yaml:"totalSupply" json:"totalSupply"`
	TotalVotingPower decimal.Decimal `yaml:"totalVotingPower" json:"totalVotingPower"`
}

// Balance is a liquid (unstaked) token balance.
type Balance struct {
	ProjectId string          `yaml:"projectId" json:"projectId"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
}

// Snapshot holds everything Calculate needs.
//
// A nil slice or map means the corresponding data has not been loaded yet,
// while an empty one means it was loaded and is empty.
type Snapshot struct {
	ReferenceTimestampSeconds uint64                     `yaml:"referenceTimestampSeconds" json:"referenceTimestampSeconds"`
	Projects                  []*ProjectParameters       `yaml:"projects" json:"projects"`
	Neurons                   []*Neuron                  `yaml:"neurons" json:"neurons"`
	Balances                  []*Balance                 `yaml:"balances" json:"balances"`
	ExchangeRates             map[string]decimal.Decimal `yaml:"exchangeRates" json:"exchangeRates"`
}

type ProjectApy struct {
	Current decimal.Decimal `json:"current"`
	Max     decimal.Decimal `json:"max"`
}

type StakingRewardData struct {
	// StakingPower is qualifying staked value over total (staked + liquid) value.
	StakingPower          decimal.Decimal        `json:"stakingPower"`
	StakingPowerUSD       decimal.Decimal        `json:"stakingPowerUSD"`
	RewardEstimateWeekUSD decimal.Decimal        `json:"rewardEstimateWeekUSD"`
	Apy                   map[string]*ProjectApy `json:"apy"`
	// UnpricedProjects lists projects left out of USD figures for lack of an exchange rate.
	UnpricedProjects []string `json:"unpricedProjects,omitempty"`
}

// Result is either loading, an error, or data. It is returned instead of an
// error so callers can choose between a loading placeholder and an error banner.
type Result struct {
	Loading bool
	Err     error
	Data    *StakingRewardData
}

func loadingResult() *Result {
	return &Result{Loading: true}
}

func errorResult(err error) *Result {
	return &Result{Err: err}
}
