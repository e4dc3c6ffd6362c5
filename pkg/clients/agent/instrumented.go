package agent

import (
	"context"
	"strconv"
	"time"

	"github.com/govwallet/sidecar/pkg/metrics/metricsTypes"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// MetricsRecorder is the subset of the metrics sink used to record calls.
type MetricsRecorder interface {
	Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error
	Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error
}

// InstrumentedAgent records a span, a counter and a duration for every call.
type InstrumentedAgent struct {
	Agent
	metrics MetricsRecorder
}

func NewInstrumentedAgent(a Agent, m MetricsRecorder) *InstrumentedAgent {
	return &InstrumentedAgent{Agent: a, metrics: m}
}

func (i *InstrumentedAgent) Query(ctx context.Context, canisterId string, method string, arg any, out any) error {
	return i.observe(ctx, false, canisterId, method, func(ctx context.Context) error {
		return i.Agent.Query(ctx, canisterId, method, arg, out)
	})
}

func (i *InstrumentedAgent) Update(ctx context.Context, canisterId string, method string, arg any, out any) error {
	return i.observe(ctx, true, canisterId, method, func(ctx context.Context) error {
		return i.Agent.Update(ctx, canisterId, method, arg, out)
	})
}

func (i *InstrumentedAgent) observe(ctx context.Context, certified bool, canisterId string, method string, call func(context.Context) error) error {
	span, ctx := ddTracer.StartSpanFromContext(ctx, "agent.call")
	span.SetTag("canister", canisterId)
	span.SetTag("method", method)
	span.SetTag("certified", certified)

	start := time.Now()
	err := call(ctx)
	elapsed := time.Since(start)
	span.Finish(ddTracer.WithError(err))

	status := "ok"
	if err != nil {
		status = "error"
	}
	labels := []metricsTypes.MetricsLabel{
		{Name: "method", Value: method},
		{Name: "certified", Value: strconv.FormatBool(certified)},
		{Name: "status", Value: status},
	}
	if i.metrics != nil {
		_ = i.metrics.Incr(metricsTypes.Metric_Incr_CanisterCall, labels, 1)
		_ = i.metrics.Timing(metricsTypes.Metric_Timing_CanisterCallDuration, elapsed, labels)
	}
	return err
}
