// Package ledger wraps an ICRC-1 ledger canister.
package ledger

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/clients/agent"
	"go.uber.org/zap"
)

const (
	Method_BalanceOf   = "icrc1_balance_of"
	Method_TotalSupply = "icrc1_total_supply"
	Method_Fee         = "icrc1_fee"
)

type Account struct {
	Owner      string  `json:"owner"`
	Subaccount *string `json:"subaccount,omitempty"`
}

type Client struct {
	agent      agent.Agent
	canisterId string
	logger     *zap.Logger
}

func NewClient(a agent.Agent, canisterId string, l *zap.Logger) *Client {
	return &Client{agent: a, canisterId: canisterId, logger: l}
}

func (c *Client) CanisterId() string {
	return c.canisterId
}

// BalanceOf returns the balance of an account in e8s.
func (c *Client) BalanceOf(ctx context.Context, account *Account, certified bool) (uint64, error) {
	var balance uint64
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_BalanceOf, account, &balance); err != nil {
		return 0, fmt.Errorf("failed to get balance of %s: %w", account.Owner, err)
	}
	return balance, nil
}

func (c *Client) TotalSupply(ctx context.Context, certified bool) (uint64, error) {
	var supply uint64
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_TotalSupply, nil, &supply); err != nil {
		return 0, fmt.Errorf("failed to get total supply: %w", err)
	}
	return supply, nil
}

func (c *Client) TransactionFee(ctx context.Context, certified bool) (uint64, error) {
	var fee uint64
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_Fee, nil, &fee); err != nil {
		return 0, fmt.Errorf("failed to get transaction fee: %w", err)
	}
	return fee, nil
}
