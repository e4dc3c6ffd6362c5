package exportQueue

import (
	"context"
	"errors"
	"sync"

	"github.com/govwallet/sidecar/pkg/service/exportDataService"
	"go.uber.org/zap"
)

// Exporter produces one report.
type Exporter interface {
	Export(ctx context.Context, kind exportDataService.Kind, onProgress exportDataService.ProgressFunc) (*exportDataService.ExportResult, error)
}

// ErrQueueClosed answers requests that reach the queue after Close.
var ErrQueueClosed = errors.New("export queue closed")

type ExportRequest struct {
	Kind exportDataService.Kind
	// OnProgress is optional.
	OnProgress exportDataService.ProgressFunc
}

// ExportMessage is one queued request. ResponseChan may be nil.
type ExportMessage struct {
	Context      context.Context
	Data         ExportRequest
	ResponseChan chan *ExportResponse
}

type ExportResponse struct {
	Data  *exportDataService.ExportResult
	Error error
}

// ExportQueue runs exports one at a time so concurrent requests never write
// the same file or hammer the canisters in parallel.
type ExportQueue struct {
	logger   *zap.Logger
	exporter Exporter

	mu     sync.RWMutex
	closed bool
	queue  chan *ExportMessage
	done   chan struct{}
}
