package shutdown

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// CreateGracefulShutdownChannel returns a channel that receives SIGINT and SIGTERM.
func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	return gracefulShutdown
}

// ListenForShutdown blocks until a signal arrives, then runs cleanup and waits
// up to timeout for it to finish. A second signal aborts the wait.
func ListenForShutdown(gracefulShutdown chan os.Signal, done chan bool, cleanup func(), timeout time.Duration, l *zap.Logger) {
	sig := <-gracefulShutdown
	l.Sugar().Infow("Received shutdown signal", zap.String("signal", sig.String()))

	go func() {
		cleanup()
		close(done)
	}()

	select {
	case <-done:
		l.Sugar().Info("Shutdown complete")
	case <-time.After(timeout):
		l.Sugar().Warnw("Shutdown timed out", zap.Duration("timeout", timeout))
	case sig := <-gracefulShutdown:
		l.Sugar().Warnw("Forced shutdown", zap.String("signal", sig.String()))
	}
}
