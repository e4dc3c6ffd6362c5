package shutdown

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/govwallet/sidecar/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func Test_ListenForShutdown(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	t.Run("Should run cleanup when a signal arrives", func(t *testing.T) {
		sigs := make(chan os.Signal, 1)
		done := make(chan bool)
		cleaned := false

		sigs <- syscall.SIGTERM
		ListenForShutdown(sigs, done, func() { cleaned = true }, time.Second, l)

		assert.True(t, cleaned)
		_, open := <-done
		assert.False(t, open)
	})
	t.Run("Should give up after the timeout", func(t *testing.T) {
		sigs := make(chan os.Signal, 1)
		done := make(chan bool)
		release := make(chan struct{})
		defer close(release)

		sigs <- syscall.SIGINT
		start := time.Now()
		ListenForShutdown(sigs, done, func() { <-release }, 50*time.Millisecond, l)

		assert.True(t, time.Since(start) >= 50*time.Millisecond)
	})
}
