package scheduler

import (
	"context"
	"log/slog"

	"go-standings/pkg/config"
	"go-standings/pkg/database"
	"go-standings/pkg/module"

	"github.com/go-chi/chi/v5"
)

// Default cron schedules, seconds-precision specs
const (
	defaultSyncSchedule     = "0 */30 * * * *" // every 30 minutes
	defaultBackfillSchedule = "0 15 * * * *"   // hourly, offset from the sync cycle
)

// Module represents the scheduler module
type Module struct {
	*module.BaseModule
	engine *Engine
}

// NewModule creates a new scheduler module instance. Executors must be
// registered on the engine before StartBackgroundTasks is called.
func NewModule(mongodb *database.MongoDB, redis *database.Redis, engine *Engine) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("scheduler", mongodb, redis),
		engine:     engine,
	}
}

// Engine returns the task engine
func (m *Module) Engine() *Engine {
	return m.engine
}

// Routes sets up the scheduler module HTTP routes
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// ScheduleRecurring installs the recurring cron entries
func (m *Module) ScheduleRecurring() error {
	syncSchedule := config.GetEnv("STANDINGS_SYNC_SCHEDULE", defaultSyncSchedule)
	if err := m.engine.Schedule(syncSchedule, func() *Task {
		return &Task{Type: TaskRegularSync}
	}); err != nil {
		return err
	}

	if err := m.engine.Schedule(defaultBackfillSchedule, func() *Task {
		return &Task{Type: TaskEntityBackfill}
	}); err != nil {
		return err
	}

	slog.Info("Recurring sync scheduled", "schedule", syncSchedule)
	return nil
}

// StartBackgroundTasks starts the task engine
func (m *Module) StartBackgroundTasks(ctx context.Context) {
	if err := m.engine.Start(ctx); err != nil {
		slog.Error("Failed to start sync engine", "error", err)
		return
	}

	<-m.StopChannel()
	m.engine.Stop()
}

// Stop gracefully stops the module and the engine
func (m *Module) Stop() {
	m.BaseModule.Stop()
}
