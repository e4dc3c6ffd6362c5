package stakingRewards

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// IsLoaded reports whether every part of the snapshot has been loaded.
func (s *Snapshot) IsLoaded() bool {
	return s != nil && s.Projects != nil && s.Neurons != nil && s.Balances != nil && s.ExchangeRates != nil
}

func validateProject(p *ProjectParameters) error {
	if p == nil {
		return fmt.Errorf("nil project parameters")
	}
	if p.ProjectId == "" {
		return fmt.Errorf("project without id")
	}
	if p.MaxDissolveDelaySeconds == 0 {
		return fmt.Errorf("project '%s' has no max dissolve delay", p.ProjectId)
	}
	if p.MaxAgeSeconds == 0 {
		return fmt.Errorf("project '%s' has no max age", p.ProjectId)
	}
	for name, v := range map[string]decimal.Decimal{
		"minimumStake":     p.MinimumStake,
		"totalSupply":      p.TotalSupply,
		"totalVotingPower": p.TotalVotingPower,
		"initialRate":      p.RewardCurve.InitialRate,
		"finalRate":        p.RewardCurve.FinalRate,
	} {
		if v.IsNegative() {
			return fmt.Errorf("project '%s' has negative %s", p.ProjectId, name)
		}
	}
	return nil
}

func validateNeuron(n *Neuron) error {
	if n == nil {
		return fmt.Errorf("nil neuron")
	}
	for name, v := range map[string]decimal.Decimal{
		"cachedStake":    n.CachedStake,
		"fees":           n.Fees,
		"maturity":       n.Maturity,
		"stakedMaturity": n.StakedMaturity,
	} {
		if v.IsNegative() {
			return fmt.Errorf("neuron '%s' has negative %s", n.Id, name)
		}
	}
	return nil
}

type projectTotals struct {
	principal        decimal.Decimal
	weightedCurrent  decimal.Decimal
	weightedMax      decimal.Decimal
	qualifyingStaked decimal.Decimal
	staked           decimal.Decimal
	liquid           decimal.Decimal
	weeklyReward     decimal.Decimal
}

func newProjectTotals() *projectTotals {
	return &projectTotals{
		principal:        decimal.Zero,
		weightedCurrent:  decimal.Zero,
		weightedMax:      decimal.Zero,
		qualifyingStaked: decimal.Zero,
		staked:           decimal.Zero,
		liquid:           decimal.Zero,
		weeklyReward:     decimal.Zero,
	}
}

// Calculate computes the blended staking power, its USD value, the weekly
// reward estimate in USD and the current and maximum APY per project.
func Calculate(snapshot *Snapshot) *Result {
	if !snapshot.IsLoaded() {
		return loadingResult()
	}
	at := snapshot.ReferenceTimestampSeconds

	projects := make(map[string]*ProjectParameters, len(snapshot.Projects))
	totals := make(map[string]*projectTotals, len(snapshot.Projects))
	for _, p := range snapshot.Projects {
		if err := validateProject(p); err != nil {
			return errorResult(err)
		}
		if _, ok := projects[p.ProjectId]; ok {
			return errorResult(fmt.Errorf("duplicate project '%s'", p.ProjectId))
		}
		projects[p.ProjectId] = p
		totals[p.ProjectId] = newProjectTotals()
	}

	for _, n := range snapshot.Neurons {
		if err := validateNeuron(n); err != nil {
			return errorResult(err)
		}
		params, ok := projects[n.ProjectId]
		if !ok {
			return errorResult(fmt.Errorf("neuron '%s' references unknown project '%s'", n.Id, n.ProjectId))
		}
		t := totals[n.ProjectId]
		principal := n.Principal()

		currentRate := DailyRewardRate(n, params, at, false)
		maxRate := DailyRewardRate(n, params, at, true)

		t.principal = t.principal.Add(principal)
		t.weightedCurrent = t.weightedCurrent.Add(principal.Mul(Annualize(currentRate, n.AutoStakeMaturity)))
		t.weightedMax = t.weightedMax.Add(principal.Mul(Annualize(maxRate, n.AutoStakeMaturity)))
		t.staked = t.staked.Add(principal)
		if IsEligible(n, params) {
			t.qualifyingStaked = t.qualifyingStaked.Add(principal)
		}
		t.weeklyReward = t.weeklyReward.Add(currentRate.Mul(principal).Mul(decimal.NewFromInt(WeekDays)))
	}

	for _, b := range snapshot.Balances {
		if b == nil {
			return errorResult(fmt.Errorf("nil balance"))
		}
		if b.Amount.IsNegative() {
			return errorResult(fmt.Errorf("negative balance for project '%s'", b.ProjectId))
		}
		t, ok := totals[b.ProjectId]
		if !ok {
			return errorResult(fmt.Errorf("balance references unknown project '%s'", b.ProjectId))
		}
		t.liquid = t.liquid.Add(b.Amount)
	}

	data := &StakingRewardData{
		StakingPower:          decimal.Zero,
		StakingPowerUSD:       decimal.Zero,
		RewardEstimateWeekUSD: decimal.Zero,
		Apy:                   make(map[string]*ProjectApy, len(projects)),
	}

	totalUSD := decimal.Zero
	for projectId, t := range totals {
		apy := &ProjectApy{Current: decimal.Zero, Max: decimal.Zero}
		if t.principal.IsPositive() {
			apy.Current = div(t.weightedCurrent, t.principal)
			apy.Max = div(t.weightedMax, t.principal)
		}
		data.Apy[projectId] = apy

		rate, ok := snapshot.ExchangeRates[projectId]
		if !ok || rate.IsNegative() {
			if t.staked.IsPositive() || t.liquid.IsPositive() {
				data.UnpricedProjects = append(data.UnpricedProjects, projectId)
			}
			continue
		}
		data.StakingPowerUSD = data.StakingPowerUSD.Add(t.qualifyingStaked.Mul(rate))
		data.RewardEstimateWeekUSD = data.RewardEstimateWeekUSD.Add(t.weeklyReward.Mul(rate))
		totalUSD = totalUSD.Add(t.staked.Add(t.liquid).Mul(rate))
	}
	sort.Strings(data.UnpricedProjects)

	if totalUSD.IsPositive() {
		data.StakingPower = div(data.StakingPowerUSD, totalUSD)
	}

	return &Result{Data: data}
}
