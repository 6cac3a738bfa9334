package driver

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
)

// Scene is a tick handler in the display rotation.
type Scene interface {
	Name() string
	Tick(ctx context.Context, now time.Time)
}

// Driver invokes every scene's tick handler once per second. SingletonMode
// guarantees run-to-completion: a tick that blocks on a fetch delays the next
// tick instead of overlapping it, so per-kind fetch paths never race.
type Driver struct {
	scheduler *gocron.Scheduler
	scenes    []Scene
	clk       clock.Clock
	logger    *zap.Logger
}

// New creates a Driver for the given scenes, ticked in order.
func New(clk clock.Clock, logger *zap.Logger, scenes ...Scene) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		scheduler: gocron.NewScheduler(time.Local),
		scenes:    scenes,
		clk:       clk,
		logger:    logger,
	}
}

// Start schedules the per-second tick job and starts the scheduler.
func (d *Driver) Start() error {
	_, err := d.scheduler.Every(1).Second().SingletonMode().Do(d.tick)
	if err != nil {
		return err
	}
	d.scheduler.StartAsync()
	d.logger.Info("scene driver started", zap.Int("scenes", len(d.scenes)))
	return nil
}

// Stop stops the scheduler. A tick in flight runs to completion.
func (d *Driver) Stop() {
	d.scheduler.Stop()
	d.logger.Info("scene driver stopped")
}

func (d *Driver) tick() {
	now := d.clk.Now()
	for _, s := range d.scenes {
		start := time.Now()
		s.Tick(context.Background(), now)
		observability.TickDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	}
}
