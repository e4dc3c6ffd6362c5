// Package swap wraps the decentralization swap canister of a project.
package swap

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/clients/agent"
	"go.uber.org/zap"
)

const (
	Method_GetLifecycle    = "get_lifecycle"
	Method_GetDerivedState = "get_derived_state"
	Method_GetBuyerState   = "get_buyer_state"
)

type Lifecycle int

const (
	Lifecycle_Unspecified Lifecycle = 0
	Lifecycle_Pending     Lifecycle = 1
	Lifecycle_Open        Lifecycle = 2
	Lifecycle_Committed   Lifecycle = 3
	Lifecycle_Aborted     Lifecycle = 4
	Lifecycle_Adopted     Lifecycle = 5
)

func (l Lifecycle) String() string {
	switch l {
	case Lifecycle_Pending:
		return "pending"
	case Lifecycle_Open:
		return "open"
	case Lifecycle_Committed:
		return "committed"
	case Lifecycle_Aborted:
		return "aborted"
	case Lifecycle_Adopted:
		return "adopted"
	default:
		return "unspecified"
	}
}

// IsFinal reports whether the swap can no longer change state.
func (l Lifecycle) IsFinal() bool {
	return l == Lifecycle_Committed || l == Lifecycle_Aborted
}

type LifecycleResponse struct {
	Lifecycle               Lifecycle `json:"lifecycle"`
	OpenTimestampSeconds    *uint64   `json:"decentralization_sale_open_timestamp_seconds,omitempty"`
	SwapDueTimestampSeconds *uint64   `json:"decentralization_swap_termination_timestamp_seconds,omitempty"`
}

type DerivedState struct {
	BuyerTotalIcpE8s       uint64  `json:"buyer_total_icp_e8s"`
	DirectParticipantCount *uint64 `json:"direct_participant_count,omitempty"`
	SnsTokensPerIcp        float64 `json:"sns_tokens_per_icp"`
}

type BuyerState struct {
	IcpAmountE8s uint64 `json:"amount_e8s"`
}

type getBuyerStateArg struct {
	PrincipalId string `json:"principal_id"`
}

type getBuyerStateReply struct {
	BuyerState *BuyerState `json:"buyer_state,omitempty"`
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

func (c *Client) GetLifecycle(ctx context.Context, certified bool) (*LifecycleResponse, error) {
	var res LifecycleResponse
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_GetLifecycle, nil, &res); err != nil {
		return nil, fmt.Errorf("failed to get swap lifecycle: %w", err)
	}
	return &res, nil
}

func (c *Client) GetDerivedState(ctx context.Context, certified bool) (*DerivedState, error) {
	var res DerivedState
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_GetDerivedState, nil, &res); err != nil {
		return nil, fmt.Errorf("failed to get swap derived state: %w", err)
	}
	return &res, nil
}

// GetBuyerState returns nil when the principal has not participated.
func (c *Client) GetBuyerState(ctx context.Context, principal string, certified bool) (*BuyerState, error) {
	var res getBuyerStateReply
	if err := agent.Call(ctx, c.agent, certified, c.canisterId, Method_GetBuyerState, &getBuyerStateArg{PrincipalId: principal}, &res); err != nil {
		return nil, fmt.Errorf("failed to get buyer state: %w", err)
	}
	return res.BuyerState, nil
}
