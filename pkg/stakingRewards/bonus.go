package stakingRewards

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// divisionPlaces is the number of decimal places kept by every division.
const divisionPlaces = 32

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

func div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, divisionPlaces)
}

func seconds(s uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(s), 0)
}

// linearBonus ramps from 0 at value 0 to maxPercentage/100 at maxValue and stays there.
func linearBonus(value, maxValue uint64, maxPercentage decimal.Decimal) decimal.Decimal {
	if maxValue == 0 {
		return decimal.Zero
	}
	if value > maxValue {
		value = maxValue
	}
	return div(seconds(value).Mul(maxPercentage), seconds(maxValue).Mul(hundred))
}

// DissolveDelayBonus returns the duration bonus as a fraction (1.0 == +100%).
func DissolveDelayBonus(dissolveDelaySeconds uint64, params *ProjectParameters) decimal.Decimal {
	return linearBonus(dissolveDelaySeconds, params.MaxDissolveDelaySeconds, params.MaxDissolveDelayBonusPercentage)
}

// AgeBonus returns the age bonus as a fraction (0.25 == +25%).
func AgeBonus(ageSeconds uint64, params *ProjectParameters) decimal.Decimal {
	return linearBonus(ageSeconds, params.MaxAgeSeconds, params.MaxAgeBonusPercentage)
}

// VotingPowerMultiplier is (1 + duration bonus) * (1 + age bonus).
func VotingPowerMultiplier(dissolveDelaySeconds, ageSeconds uint64, params *ProjectParameters) decimal.Decimal {
	return one.Add(DissolveDelayBonus(dissolveDelaySeconds, params)).
		Mul(one.Add(AgeBonus(ageSeconds, params)))
}

// Age returns how long the neuron has been aging at the given timestamp.
func (n *Neuron) Age(atSeconds uint64) uint64 {
	if n.AgingSinceTimestampSeconds == 0 || n.AgingSinceTimestampSeconds > atSeconds {
		return 0
	}
	return atSeconds - n.AgingSinceTimestampSeconds
}

// EffectiveStake is the cached stake minus fees, floored at zero.
func (n *Neuron) EffectiveStake() decimal.Decimal {
	s := n.CachedStake.Sub(n.Fees)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

// Principal is the amount that earns rewards: the effective stake plus staked
// maturity, plus the unstaked maturity when it is auto-staked.
func (n *Neuron) Principal() decimal.Decimal {
	p := n.EffectiveStake().Add(n.StakedMaturity)
	if n.AutoStakeMaturity {
		p = p.Add(n.Maturity)
	}
	return p
}

// IsEligible reports whether the neuron earns rewards at its current dissolve delay.
func IsEligible(n *Neuron, params *ProjectParameters) bool {
	if n.EffectiveStake().LessThan(params.MinimumStake) {
		return false
	}
	return n.DissolveDelaySeconds >= params.MinimumDissolveDelayToVoteSeconds
}

// RewardRate returns the yearly reward rate of the curve at the given timestamp.
//
// Before genesis the initial rate applies. During the transition the rate
// follows final + (initial - final) * ((T - elapsed) / T)^2, and afterwards it
// is the final rate.
func RewardRate(curve RewardCurve, atSeconds uint64) decimal.Decimal {
	if atSeconds < curve.GenesisTimestampSeconds {
		return curve.InitialRate
	}
	elapsed := atSeconds - curve.GenesisTimestampSeconds
	if curve.TransitionDurationSeconds == 0 || elapsed >= curve.TransitionDurationSeconds {
		return curve.FinalRate
	}
	remaining := div(seconds(curve.TransitionDurationSeconds-elapsed), seconds(curve.TransitionDurationSeconds))
	return curve.FinalRate.Add(curve.InitialRate.Sub(curve.FinalRate).Mul(remaining).Mul(remaining))
}

// DailyRewardPerVotingPower is the daily reward pool divided by the total voting power.
func DailyRewardPerVotingPower(params *ProjectParameters, atSeconds uint64) decimal.Decimal {
	if !params.TotalVotingPower.IsPositive() {
		return decimal.Zero
	}
	pool := div(params.TotalSupply.Mul(RewardRate(params.RewardCurve, atSeconds)), decimal.RequireFromString(DaysPerYear))
	return div(pool, params.TotalVotingPower)
}

// DailyRewardRate is the neuron's daily reward relative to its principal. It
// does not depend on the size of the principal.
//
// With maxed set, the neuron is evaluated as if locked for the maximum dissolve
// delay and aged for the maximum age.
func DailyRewardRate(n *Neuron, params *ProjectParameters, atSeconds uint64, maxed bool) decimal.Decimal {
	dissolveDelay := n.DissolveDelaySeconds
	age := n.Age(atSeconds)
	if maxed {
		dissolveDelay = params.MaxDissolveDelaySeconds
		age = params.MaxAgeSeconds
	}
	if n.EffectiveStake().LessThan(params.MinimumStake) || dissolveDelay < params.MinimumDissolveDelayToVoteSeconds {
		return decimal.Zero
	}
	return DailyRewardPerVotingPower(params, atSeconds).Mul(VotingPowerMultiplier(dissolveDelay, age, params))
}

// DailyReward is the absolute daily reward of the neuron in tokens.
func DailyReward(n *Neuron, params *ProjectParameters, atSeconds uint64, maxed bool) decimal.Decimal {
	return DailyRewardRate(n, params, atSeconds, maxed).Mul(n.Principal())
}

// Annualize turns a daily rate into a yearly one, compounding daily when compound is set.
func Annualize(dailyRate decimal.Decimal, compound bool) decimal.Decimal {
	if !compound {
		return dailyRate.Mul(decimal.NewFromInt(CompoundingPeriodsPerYear))
	}
	return pow(one.Add(dailyRate), CompoundingPeriodsPerYear).Sub(one)
}

// pow raises base to a non-negative integer exponent by squaring, rounding each
// step so the number of digits stays bounded.
func pow(base decimal.Decimal, exp int) decimal.Decimal {
	result := one
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(divisionPlaces)
		}
		base = base.Mul(base).Round(divisionPlaces)
		exp >>= 1
	}
	return result
}
