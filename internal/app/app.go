// Package app wires the scanner's components — adapters, matcher,
// calculator, cache, queue, alert dispatcher, orchestrator, scheduler, and
// broadcast hub — into a runnable daemon, mirroring the teacher's
// App/setup/run/shutdown split.
package app

import (
	"context"
	"sync"

	"github.com/mselser95/arb-scanner/internal/alerts"
	"github.com/mselser95/arb-scanner/internal/broadcast"
	"github.com/mselser95/arb-scanner/internal/scheduler"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/healthprobe"
	"github.com/mselser95/arb-scanner/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the scanner daemon: it owns every long-running component and
// coordinates their startup and shutdown.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	hub           *broadcast.Hub
	scheduler     *scheduler.Scheduler
	dispatcher    *alerts.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}
