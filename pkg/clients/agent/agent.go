// Package agent calls methods on remote canisters through an HTTP gateway.
//
// Queries are fast and answered by a single replica without certification.
// Updates go through consensus and their replies are certified.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestType string

const (
	RequestType_Query RequestType = "query"
	RequestType_Call  RequestType = "call"
)

// Agent is the remote procedure interface used by every canister wrapper.
type Agent interface {
	Query(ctx context.Context, canisterId string, method string, arg any, out any) error
	Update(ctx context.Context, canisterId string, method string, arg any, out any) error
}

// Call runs an update when certified is set and a query otherwise.
func Call(ctx context.Context, a Agent, certified bool, canisterId string, method string, arg any, out any) error {
	if certified {
		return a.Update(ctx, canisterId, method, arg, out)
	}
	return a.Query(ctx, canisterId, method, arg, out)
}

// RejectError is returned when the gateway or the canister rejects a call.
type RejectError struct {
	CanisterId string
	Method     string
	StatusCode int
	Code       int
	Message    string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("call to %s.%s rejected (status %d, code %d): %s", e.CanisterId, e.Method, e.StatusCode, e.Code, e.Message)
}

type HttpAgentConfig struct {
	Host      string
	Principal string
	Timeout   time.Duration
}

type HttpAgent struct {
	httpClient *http.Client
	config     *HttpAgentConfig
	logger     *zap.Logger
}

type request struct {
	RequestType RequestType     `json:"request_type"`
	MethodName  string          `json:"method_name"`
	Sender      string          `json:"sender,omitempty"`
	Nonce       string          `json:"nonce"`
	Arg         json.RawMessage `json:"arg"`
}

type response struct {
	Status        string          `json:"status"`
	Reply         json.RawMessage `json:"reply"`
	RejectCode    int             `json:"reject_code"`
	RejectMessage string          `json:"reject_message"`
}

func NewHttpAgent(cfg *HttpAgentConfig, l *zap.Logger) *HttpAgent {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HttpAgent{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     l,
	}
}

func (a *HttpAgent) SetHttpClient(c *http.Client) {
	a.httpClient = c
}

func (a *HttpAgent) Query(ctx context.Context, canisterId string, method string, arg any, out any) error {
	return a.do(ctx, RequestType_Query, canisterId, method, arg, out)
}

func (a *HttpAgent) Update(ctx context.Context, canisterId string, method string, arg any, out any) error {
	return a.do(ctx, RequestType_Call, canisterId, method, arg, out)
}

func (a *HttpAgent) do(ctx context.Context, requestType RequestType, canisterId string, method string, arg any, out any) error {
	if arg == nil {
		arg = struct{}{}
	}
	encodedArg, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("failed to encode argument for %s: %w", method, err)
	}
	body, err := json.Marshal(&request{
		RequestType: requestType,
		MethodName:  method,
		Sender:      a.config.Principal,
		Nonce:       uuid.New().String(),
		Arg:         encodedArg,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/canister/%s/%s", a.config.Host, canisterId, requestType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	a.logger.Sugar().Debugw("Calling canister",
		zap.String("canisterId", canisterId),
		zap.String("method", method),
		zap.String("requestType", string(requestType)),
	)

	res, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s.%s: %w", canisterId, method, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded response
	// rejected calls may still carry a JSON body describing the reason
	_ = json.Unmarshal(resBody, &decoded)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		message := decoded.RejectMessage
		if message == "" {
			message = string(resBody)
		}
		return &RejectError{
			CanisterId: canisterId,
			Method:     method,
			StatusCode: res.StatusCode,
			Code:       decoded.RejectCode,
			Message:    message,
		}
	}
	if decoded.Status != "replied" {
		return &RejectError{
			CanisterId: canisterId,
			Method:     method,
			StatusCode: res.StatusCode,
			Code:       decoded.RejectCode,
			Message:    decoded.RejectMessage,
		}
	}
	if out == nil || len(decoded.Reply) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Reply, out); err != nil {
		return fmt.Errorf("failed to decode reply of %s.%s: %w", canisterId, method, err)
	}
	return nil
}
