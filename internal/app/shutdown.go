package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown cancels all components and waits for them to exit, in the
// teacher's ordered-shutdown shape: signal, then HTTP, then everything else,
// then wait.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")
	a.healthChecker.SetReady(false)

	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.scheduler.Stop()
	a.hub.Stop()

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")
	return nil
}
