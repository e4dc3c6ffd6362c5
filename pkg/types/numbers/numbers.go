package numbers

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// E8sPerToken is the number of base units in one token for ledgers with 8 decimals.
const E8sPerToken = 100_000_000

var e8sPerToken = decimal.NewFromInt(E8sPerToken)

// E8sToTokens converts a base-unit amount into whole tokens.
func E8sToTokens(e8s uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(e8s), 0).Div(e8sPerToken)
}

// ParseTokens parses a decimal token string such as "12.5".
func ParseTokens(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token amount '%s': %w", amount, err)
	}
	return d, nil
}

// FormatPercentage renders a ratio (0.0685) as a percentage string ("6.85%").
func FormatPercentage(ratio decimal.Decimal, places int32) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(places) + "%"
}

// FormatUSD renders an amount with two decimals and a dollar sign.
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
