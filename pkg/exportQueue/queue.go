package exportQueue

import (
	"context"

	"go.uber.org/zap"
)

func NewExportQueue(exporter Exporter, logger *zap.Logger) *ExportQueue {
	return &ExportQueue{
		logger:   logger,
		exporter: exporter,
		// allow the queue to buffer up to 100 messages
		queue: make(chan *ExportMessage, 100),
		done:  make(chan struct{}),
	}
}

// Enqueue adds a message without waiting for the export. Once the queue is
// closed the message is answered with ErrQueueClosed instead.
func (eq *ExportQueue) Enqueue(payload *ExportMessage) {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	if eq.closed {
		eq.respond(payload, &ExportResponse{Error: ErrQueueClosed})
		return
	}
	eq.logger.Sugar().Infow("Enqueueing export message", zap.String("kind", string(payload.Data.Kind)))
	eq.queue <- payload
}

// EnqueueAndWait queues an export and waits for its result or for ctx to be done.
func (eq *ExportQueue) EnqueueAndWait(ctx context.Context, data ExportRequest) (*ExportResponse, error) {
	responseChan := make(chan *ExportResponse, 1)

	eq.Enqueue(&ExportMessage{
		Context:      ctx,
		Data:         data,
		ResponseChan: responseChan,
	})

	select {
	case response := <-responseChan:
		return response, response.Error
	case <-ctx.Done():
		eq.logger.Sugar().Infow("Received context.Done()", zap.String("kind", string(data.Kind)))
		return nil, ctx.Err()
	}
}

// Process handles messages until Close is called.
func (eq *ExportQueue) Process() {
	for {
		select {
		case <-eq.done:
			eq.logger.Sugar().Infow("Export queue closed")
			return
		case msg := <-eq.queue:
			eq.process(msg)
		}
	}
}

func (eq *ExportQueue) process(msg *ExportMessage) {
	ctx := msg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		eq.logger.Sugar().Infow("Skipping export of cancelled request", zap.String("kind", string(msg.Data.Kind)))
		eq.respond(msg, &ExportResponse{Error: ctx.Err()})
		return
	}

	res, err := eq.exporter.Export(ctx, msg.Data.Kind, msg.Data.OnProgress)
	if err != nil {
		eq.logger.Sugar().Errorw("Export failed", zap.String("kind", string(msg.Data.Kind)), zap.Error(err))
	}
	eq.respond(msg, &ExportResponse{Data: res, Error: err})
}

func (eq *ExportQueue) respond(msg *ExportMessage, response *ExportResponse) {
	if msg.ResponseChan == nil {
		return
	}
	select {
	case msg.ResponseChan <- response:
	default:
		eq.logger.Sugar().Warnw("Export response dropped", zap.String("kind", string(msg.Data.Kind)))
	}
}

// Close stops Process and rejects every message still buffered.
func (eq *ExportQueue) Close() {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.closed {
		return
	}
	eq.logger.Sugar().Infow("Closing export queue")
	eq.closed = true
	close(eq.done)

	for {
		select {
		case msg := <-eq.queue:
			eq.respond(msg, &ExportResponse{Error: ErrQueueClosed})
		default:
			return
		}
	}
}
