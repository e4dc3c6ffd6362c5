package ledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func Test_LedgerClient(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	a := agent.NewMockAgent()
	client := NewClient(a, "ledger-1", l)

	a.Handle("ledger-1", Method_BalanceOf, func(_ context.Context, certified bool, arg json.RawMessage) (any, error) {
		var account Account
		if err := json.Unmarshal(arg, &account); err != nil {
			return nil, err
		}
		if account.Owner == "rich" {
			return uint64(5_000_000_000), nil
		}
		return uint64(0), nil
	})
	a.Reply("ledger-1", Method_TotalSupply, uint64(50_000_000_000_000_000))
	a.Reply("ledger-1", Method_Fee, uint64(10_000))

	t.Run("Should return the balance of an account", func(t *testing.T) {
		balance, err := client.BalanceOf(context.Background(), &Account{Owner: "rich"}, true)
		assert.Nil(t, err)
		assert.Equal(t, uint64(5_000_000_000), balance)

		balance, err = client.BalanceOf(context.Background(), &Account{Owner: "poor"}, false)
		assert.Nil(t, err)
		assert.Equal(t, uint64(0), balance)
	})
	t.Run("Should return the supply and fee", func(t *testing.T) {
		supply, err := client.TotalSupply(context.Background(), false)
		assert.Nil(t, err)
		assert.Equal(t, uint64(50_000_000_000_000_000), supply)

		fee, err := client.TransactionFee(context.Background(), false)
		assert.Nil(t, err)
		assert.Equal(t, uint64(10_000), fee)
	})
	t.Run("Should wrap errors from unknown canisters", func(t *testing.T) {
		other := NewClient(a, "missing", l)
		_, err := other.TotalSupply(context.Background(), false)
		var rejectErr *agent.RejectError
		assert.ErrorAs(t, err, &rejectErr)
	})
}
