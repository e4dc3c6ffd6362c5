package exportQueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/govwallet/sidecar/pkg/service/exportDataService"
	"github.com/stretchr/testify/assert"
)

type fakeExporter struct {
	running    atomic.Int32
	maxRunning atomic.Int32
	err        error
	release    chan struct{}
}

func (f *fakeExporter) Export(ctx context.Context, kind exportDataService.Kind, onProgress exportDataService.ProgressFunc) (*exportDataService.ExportResult, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		m := f.maxRunning.Load()
		if n <= m || f.maxRunning.CompareAndSwap(m, n) {
			break
		}
	}
	if f.release != nil {
		<-f.release
	}
	if onProgress != nil {
		onProgress("nns")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &exportDataService.ExportResult{Kind: kind, FilePath: string(kind) + ".csv"}, nil
}

func setup(exporter Exporter) *ExportQueue {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	q := NewExportQueue(exporter, l)
	go q.Process()
	return q
}

func Test_ExportQueue(t *testing.T) {
	t.Run("Should return the export result", func(t *testing.T) {
		q := setup(&fakeExporter{})
		defer q.Close()

		progressed := ""
		res, err := q.EnqueueAndWait(context.Background(), ExportRequest{
			Kind:       exportDataService.Kind_Neurons,
			OnProgress: func(projectId string) { progressed = projectId },
		})
		assert.Nil(t, err)
		assert.Equal(t, "neurons.csv", res.Data.FilePath)
		assert.Equal(t, "nns", progressed)
	})
	t.Run("Should return export errors", func(t *testing.T) {
		q := setup(&fakeExporter{err: errors.New("index unavailable")})
		defer q.Close()

		_, err := q.EnqueueAndWait(context.Background(), ExportRequest{Kind: exportDataService.Kind_Transactions})
		assert.EqualError(t, err, "index unavailable")
	})
	t.Run("Should run exports one at a time", func(t *testing.T) {
		exporter := &fakeExporter{}
		q := setup(exporter)
		defer q.Close()

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := q.EnqueueAndWait(context.Background(), ExportRequest{Kind: exportDataService.Kind_Neurons})
				assert.Nil(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), exporter.maxRunning.Load())
	})
	t.Run("Should stop waiting when the context is done", func(t *testing.T) {
		exporter := &fakeExporter{release: make(chan struct{})}
		q := setup(exporter)
		defer q.Close()
		defer close(exporter.release)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := q.EnqueueAndWait(ctx, ExportRequest{Kind: exportDataService.Kind_Neurons})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
	t.Run("Should reject exports after close", func(t *testing.T) {
		q := setup(&fakeExporter{})
		q.Close()
		q.Close()

		_, err := q.EnqueueAndWait(context.Background(), ExportRequest{Kind: exportDataService.Kind_Neurons})
		assert.ErrorIs(t, err, ErrQueueClosed)
	})
	t.Run("Should answer buffered exports on close", func(t *testing.T) {
		exporter := &fakeExporter{release: make(chan struct{})}
		q := setup(exporter)

		running := make(chan *ExportResponse, 1)
		q.Enqueue(&ExportMessage{Data: ExportRequest{Kind: exportDataService.Kind_Neurons}, ResponseChan: running})
		assert.Eventually(t, func() bool { return exporter.running.Load() == 1 }, time.Second, time.Millisecond)

		buffered := make(chan *ExportResponse, 1)
		q.Enqueue(&ExportMessage{Data: ExportRequest{Kind: exportDataService.Kind_Transactions}, ResponseChan: buffered})
		q.Close()

		res := <-buffered
		assert.ErrorIs(t, res.Error, ErrQueueClosed)

		close(exporter.release)
		res = <-running
		assert.Nil(t, res.Error)
		assert.Equal(t, "neurons.csv", res.Data.FilePath)
	})
}
