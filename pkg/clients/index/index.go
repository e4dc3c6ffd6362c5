// Package index wraps the index canister that lists an account's transactions.
package index

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/clients/agent"
	"github.com/govwallet/sidecar/pkg/clients/ledger"
	"go.uber.org/zap"
)

const (
	Method_GetAccountTransactions = "get_account_transactions"

	DefaultPageSize = 100
)

type Transfer struct {
	From      ledger.Account `json:"from"`
	To        ledger.Account `json:"to"`
	AmountE8s uint64         `json:"amount"`
	FeeE8s    *uint64        `json:"fee,omitempty"`
	Memo      *string        `json:"memo,omitempty"`
}

type Transaction struct {
	Id             uint64    `json:"id"`
	Kind           string    `json:"kind"`
	TimestampNanos uint64    `json:"timestamp"`
	Transfer       *Transfer `json:"transfer,omitempty"`
	MintAmountE8s  *uint64   `json:"mint_amount,omitempty"`
	BurnAmountE8s  *uint64   `json:"burn_amount,omitempty"`
	ApproveSpender *string   `json:"approve_spender,omitempty"`
}

type getAccountTransactionsArg struct {
	Account    *ledger.Account `json:"account"`
	Start      *uint64         `json:"start,omitempty"`
	MaxResults uint64          `json:"max_results"`
}

type TransactionsPage struct {
	Balance      uint64         `json:"balance"`
	Transactions []*Transaction `json:"transactions"`
	OldestTxId   *uint64        `json:"oldest_tx_id,omitempty"`
}

type Client struct {
	agent      agent.Agent
	canisterId string
	logger     *zap.Logger
}

func NewClient(a agent.Agent, canisterId string, l *zap.Logger) *Client {
	return &Client{agent: a, canisterId: canisterId, logger: l}
}

// GetAccountTransactions returns up to maxResults transactions, newest first,
// starting below start when it is set.
func (c *Client) GetAccountTransactions(ctx context.Context, account *ledger.Account, start *uint64, maxResults uint64, certified bool) (*TransactionsPage, error) {
	var page TransactionsPage
	arg := &getAccountTransactionsArg{Account: account, Start: start, MaxResults: maxResults}
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_GetAccountTransactions, arg, &page); err != nil {
		return nil, fmt.Errorf("failed to get transactions of %s: %w", account.Owner, err)
	}
	return &page, nil
}

// ListAllTransactions pages through the whole history of an account.
func (c *Client) ListAllTransactions(ctx context.Context, account *ledger.Account, certified bool) ([]*Transaction, error) {
	all := make([]*Transaction, 0)
	var start *uint64
	for {
		page, err := c.GetAccountTransactions(ctx, account, start, DefaultPageSize, certified)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Transactions...)

		if len(page.Transactions) < DefaultPageSize {
			return all, nil
		}
		last := page.Transactions[len(page.Transactions)-1].Id
		if page.OldestTxId != nil && last <= *page.OldestTxId {
			return all, nil
		}
		start = &last
		c.logger.Sugar().Debugw("Fetching next transactions page",
			zap.String("account", account.Owner),
			zap.Uint64("start", last),
		)
	}
}
