package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler answers a single method. certified reports whether the call was an update.
type Handler func(ctx context.Context, certified bool, arg json.RawMessage) (any, error)

type MockCall struct {
	CanisterId string
	Method     string
	Certified  bool
}

// MockAgent serves registered handlers in memory. Replies go through a JSON
// round trip so wrappers decode them exactly like HttpAgent replies.
type MockAgent struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []MockCall
}

func NewMockAgent() *MockAgent {
	return &MockAgent{handlers: make(map[string]Handler)}
}

func handlerKey(canisterId, method string) string {
	return canisterId + "/" + method
}

func (m *MockAgent) Handle(canisterId string, method string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[handlerKey(canisterId, method)] = h
}

// Reply registers a handler that always returns value.
func (m *MockAgent) Reply(canisterId string, method string, value any) {
	m.Handle(canisterId, method, func(context.Context, bool, json.RawMessage) (any, error) {
		return value, nil
	})
}

func (m *MockAgent) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockAgent) Query(ctx context.Context, canisterId string, method string, arg any, out any) error {
	return m.call(ctx, false, canisterId, method, arg, out)
}

func (m *MockAgent) Update(ctx context.Context, canisterId string, method string, arg any, out any) error {
	return m.call(ctx, true, canisterId, method, arg, out)
}

func (m *MockAgent) call(ctx context.Context, certified bool, canisterId string, method string, arg any, out any) error {
	m.mu.Lock()
	h, ok := m.handlers[handlerKey(canisterId, method)]
	m.calls = append(m.calls, MockCall{CanisterId: canisterId, Method: method, Certified: certified})
	m.mu.Unlock()

	if !ok {
		return &RejectError{CanisterId: canisterId, Method: method, StatusCode: 404, Code: 3, Message: "method not found"}
	}
	encodedArg, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("failed to encode argument for %s: %w", method, err)
	}
	reply, err := h(ctx, certified, encodedArg)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}
	return json.Unmarshal(raw, out)
}
