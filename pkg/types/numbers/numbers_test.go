package numbers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_Numbers(t *testing.T) {
	t.Run("Should convert e8s to tokens", func(t *testing.T) {
		assert.Equal(t, "50", E8sToTokens(5_000_000_000).String())
		assert.Equal(t, "0.00000001", E8sToTokens(1).String())
		assert.Equal(t, "184467440737.09551615", E8sToTokens(^uint64(0)).String())
	})
	t.Run("Should parse tokens", func(t *testing.T) {
		d, err := ParseTokens("12.5")
		assert.Nil(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

		_, err = ParseTokens("twelve")
		assert.NotNil(t, err)
	})
	t.Run("Should format percentages and usd", func(t *testing.T) {
		assert.Equal(t, "6.85%", FormatPercentage(decimal.RequireFromString("0.0685"), 2))
		assert.Equal(t, "$3.10", FormatUSD(decimal.RequireFromString("3.1")))
	})
}
