package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func setup() *Scheduler {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	return NewScheduler(context.Background(), l)
}

func Test_Scheduler(t *testing.T) {
	t.Run("Should reject invalid schedules", func(t *testing.T) {
		s := setup()
		assert.NotNil(t, s.Register("refresh", "every five minutes", func(context.Context) {}))
	})
	t.Run("Should reject duplicate jobs", func(t *testing.T) {
		s := setup()
		assert.Nil(t, s.Register("refresh", "@every 5m", func(context.Context) {}))
		assert.NotNil(t, s.Register("refresh", "@every 5m", func(context.Context) {}))
	})
	t.Run("Should run a job on demand", func(t *testing.T) {
		s := setup()
		var runs atomic.Int32
		assert.Nil(t, s.Register("refresh", "@every 1h", func(context.Context) { runs.Add(1) }))

		assert.Nil(t, s.RunNow("refresh"))
		assert.Equal(t, int32(1), runs.Load())
		assert.NotNil(t, s.RunNow("missing"))
	})
	t.Run("Should run jobs on schedule and cancel them on stop", func(t *testing.T) {
		s := setup()
		var runs atomic.Int32
		cancelled := make(chan struct{})
		assert.Nil(t, s.Register("refresh", "@every 1s", func(ctx context.Context) {
			if runs.Add(1) == 1 {
				<-ctx.Done()
				close(cancelled)
			}
		}))

		s.Start()
		assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
		s.Stop()

		select {
		case <-cancelled:
		case <-time.After(time.Second):
			t.Fatal("job was not cancelled")
		}
	})
}
