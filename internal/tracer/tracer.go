package tracer

import (
	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/internal/version"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/mocktracer"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const ServiceName = "wallet-sidecar"

// StartTracer starts the DataDog tracer, or a mock tracer when disabled.
func StartTracer(enabled bool, chain config.Chain) {
	if !enabled {
		mocktracer.Start()
		return
	}
	ddTracer.Start(
		ddTracer.WithEnv(chain.String()),
		ddTracer.WithService(ServiceName),
		ddTracer.WithServiceVersion(version.GetVersion()),
		ddTracer.WithGlobalServiceName(true),
		ddTracer.WithLogStartup(false),
	)
}

// StopTracer flushes and stops the global tracer.
func StopTracer() {
	ddTracer.Stop()
}
