package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	warservices "go-standings/internal/evewars/services"
	notifmodels "go-standings/internal/notifications/models"
	standingsmodels "go-standings/internal/standings/models"
	"go-standings/pkg/evegateway/status"
)

// StandingsService is the sync surface the executors need
type StandingsService interface {
	ListManagers(ctx context.Context) ([]*standingsmodels.SyncManager, error)
	GetManager(ctx context.Context, organizationID int64) (*standingsmodels.SyncManager, error)
	UpdateManager(ctx context.Context, organizationID int64, force bool) (string, error)
	UpdateCharacter(ctx context.Context, characterID int64, force bool) (bool, error)
	StaleCharacters(ctx context.Context, organizationID int64) ([]*standingsmodels.SyncedCharacter, error)
	ContactCount(ctx context.Context, organizationID int64) (int64, error)
}

// WarService is the war directory surface the executors need
type WarService interface {
	UpdateWar(ctx context.Context, warID int64) error
	UpdateAllWars(ctx context.Context, dispatcher warservices.Dispatcher) (int, error)
}

// EntityService backfills entity names
type EntityService interface {
	BackfillNames(ctx context.Context)
}

// StatusClient reports ESI server availability
type StatusClient interface {
	GetServerStatus(ctx context.Context) (*status.ServerStatus, error)
}

// Notifier delivers user notifications
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, level string) error
}

// Executors binds the task types to the domain services
type Executors struct {
	engine         *Engine
	standings      StandingsService
	wars           WarService
	entities       EntityService
	esiStatus      StatusClient
	notifier       Notifier
	syncWarTargets bool
}

// NewExecutors creates the task executors and registers them on the engine
func NewExecutors(
	engine *Engine,
	standings StandingsService,
	wars WarService,
	entities EntityService,
	esiStatus StatusClient,
	notifier Notifier,
	syncWarTargets bool,
) *Executors {
	x := &Executors{
		engine:         engine,
		standings:      standings,
		wars:           wars,
		entities:       entities,
		esiStatus:      esiStatus,
		notifier:       notifier,
		syncWarTargets: syncWarTargets,
	}

	engine.RegisterHandler(TaskRegularSync, x.runRegularSync)
	engine.RegisterHandler(TaskManagerSync, x.runManagerSync)
	engine.RegisterHandler(TaskCharacterSync, x.runCharacterSync)
	engine.RegisterHandler(TaskWarsRefresh, x.runWarsRefresh)
	engine.RegisterHandler(TaskWarUpdate, x.runWarUpdate)
	engine.RegisterHandler(TaskEntityBackfill, x.runEntityBackfill)

	return x
}

// runRegularSync triggers the full recurring cycle. The whole cycle is
// skipped when ESI is unavailable.
func (x *Executors) runRegularSync(ctx context.Context, task *Task) error {
	serverStatus, err := x.esiStatus.GetServerStatus(ctx)
	if err != nil {
		slog.WarnContext(ctx, "ESI unavailable, skipping sync cycle", "error", err)
		return nil
	}
	if serverStatus.VIP {
		slog.WarnContext(ctx, "ESI in VIP mode, skipping sync cycle")
		return nil
	}

	if x.syncWarTargets {
		if err := x.engine.Enqueue(&Task{Type: TaskWarsRefresh}); err != nil {
			return fmt.Errorf("failed to enqueue war refresh: %w", err)
		}
	}

	managers, err := x.standings.ListManagers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list managers: %w", err)
	}

	for _, manager := range managers {
		if err := x.engine.EnqueueManagerSync(manager.OrganizationID, false, ""); err != nil {
			return fmt.Errorf("failed to enqueue manager sync %d: %w", manager.OrganizationID, err)
		}
	}

	slog.InfoContext(ctx, "Dispatched regular sync cycle",
		"managers", len(managers),
		"players_online", serverStatus.Players)
	return nil
}

// runManagerSync reconciles one organization and fans out character
// syncs for every subscription the new version left stale
func (x *Executors) runManagerSync(ctx context.Context, task *Task) error {
	version, err := x.standings.UpdateManager(ctx, task.OrganizationID, task.Force)
	if err != nil {
		// Final attempt, the failure report must go out before the
		// engine gives up on the task
		if task.Attempt >= maxAttempts-1 {
			x.reportCompletion(ctx, task, false)
		}
		return err
	}

	if version == "" {
		// Authorization failure, recorded on the manager. Nothing to fan out.
		x.reportCompletion(ctx, task, false)
		return nil
	}

	stale, err := x.standings.StaleCharacters(ctx, task.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to list stale characters: %w", err)
	}

	for _, character := range stale {
		if err := x.engine.EnqueueCharacterSync(character.CharacterID, task.Force); err != nil {
			return fmt.Errorf("failed to enqueue character sync %d: %w", character.CharacterID, err)
		}
	}

	slog.InfoContext(ctx, "Manager sync dispatched character updates",
		"organization_id", task.OrganizationID,
		"stale_characters", len(stale))

	x.reportCompletion(ctx, task, true)
	return nil
}

// reportCompletion sends a completion report for manually triggered
// syncs. Best-effort, a failed notification never masks the sync result.
func (x *Executors) reportCompletion(ctx context.Context, task *Task, success bool) {
	if task.NotifyUserID == "" {
		return
	}

	var title, message, level string
	if success {
		count, err := x.standings.ContactCount(ctx, task.OrganizationID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to count contacts for report", "error", err)
		}
		title = "Standings sync completed"
		message = fmt.Sprintf("Successfully synchronized %d contacts for organization %d.", count, task.OrganizationID)
		level = notifmodels.LevelSuccess
	} else {
		reason := standingsmodels.SyncErrorUnknown.String()
		if manager, err := x.standings.GetManager(ctx, task.OrganizationID); err == nil {
			reason = manager.LastError.String()
		}
		title = "Standings sync failed"
		message = fmt.Sprintf("Synchronization for organization %d failed: %s.", task.OrganizationID, reason)
		level = notifmodels.LevelDanger
	}

	if err := x.notifier.Notify(ctx, task.NotifyUserID, title, message, level); err != nil {
		slog.ErrorContext(ctx, "Failed to send completion report",
			"user_id", task.NotifyUserID,
			"error", err)
	}
}

// runCharacterSync replaces one character's remote contacts
func (x *Executors) runCharacterSync(ctx context.Context, task *Task) error {
	_, err := x.standings.UpdateCharacter(ctx, task.CharacterID, task.Force)
	return err
}

// runWarsRefresh prunes the war directory and dispatches war updates
func (x *Executors) runWarsRefresh(ctx context.Context, task *Task) error {
	_, err := x.wars.UpdateAllWars(ctx, x.engine)
	return err
}

// runWarUpdate fetches and stores one war
func (x *Executors) runWarUpdate(ctx context.Context, task *Task) error {
	return x.wars.UpdateWar(ctx, task.WarID)
}

// runEntityBackfill resolves missing entity names, best-effort
func (x *Executors) runEntityBackfill(ctx context.Context, task *Task) error {
	x.entities.BackfillNames(ctx)
	return nil
}
