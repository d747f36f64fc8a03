package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	entitymodels "go-standings/internal/eveentity/models"
	"go-standings/internal/evewars/models"
	"go-standings/pkg/evegateway/wars"
)

// MaxWarsStored bounds local war storage, only the newest wars by id are kept
const MaxWarsStored = 2000

// Storage is the persistence surface the war service needs
type Storage interface {
	GetWar(ctx context.Context, warID int64) (*models.EveWar, error)
	ReplaceWar(ctx context.Context, war *models.EveWar) error
	ActiveWars(ctx context.Context, now time.Time) ([]*models.EveWar, error)
	FinishedWarIDs(ctx context.Context, now time.Time) (map[int64]bool, error)
	Prune(ctx context.Context, keep int64) (int64, error)
}

// ESIClient is the war surface of the ESI gateway
type ESIClient interface {
	GetWarIDs(ctx context.Context) ([]int64, error)
	GetWar(ctx context.Context, warID int64) (*wars.War, error)
}

// EntityResolver registers war participants in the entity directory
type EntityResolver interface {
	GetOrCreate(ctx context.Context, entityID int64, category entitymodels.Category) (*entitymodels.EveEntity, error)
}

// Dispatcher enqueues asynchronous war update tasks
type Dispatcher interface {
	EnqueueWarUpdate(warID int64) error
}

// Service maintains the local war directory and derives war targets
type Service struct {
	storage  Storage
	esi      ESIClient
	entities EntityResolver
}

// NewService creates a new war service
func NewService(storage Storage, esi ESIClient, entities EntityResolver) *Service {
	return &Service{
		storage:  storage,
		esi:      esi,
		entities: entities,
	}
}

// UpdateWar fetches one war from ESI and replaces the local record
// wholesale. Remote errors propagate so the task layer can retry.
func (s *Service) UpdateWar(ctx context.Context, warID int64) error {
	esiWar, err := s.esi.GetWar(ctx, warID)
	if err != nil {
		return fmt.Errorf("failed to fetch war %d: %w", warID, err)
	}

	war := &models.EveWar{
		ID:              esiWar.ID,
		Aggressor:       participantFromBelligerent(esiWar.Aggressor.CorporationID, esiWar.Aggressor.AllianceID),
		Defender:        participantFromBelligerent(esiWar.Defender.CorporationID, esiWar.Defender.AllianceID),
		Declared:        esiWar.Declared,
		Started:         esiWar.Started,
		Finished:        esiWar.Finished,
		Retracted:       esiWar.Retracted,
		IsMutual:        esiWar.Mutual,
		IsOpenForAllies: esiWar.OpenForAllies,
	}
	for _, ally := range esiWar.Allies {
		war.Allies = append(war.Allies, participantFromBelligerent(ally.CorporationID, ally.AllianceID))
	}

	for _, participant := range append([]models.WarParticipant{war.Aggressor, war.Defender}, war.Allies...) {
		if _, err := s.entities.GetOrCreate(ctx, participant.EntityID, participant.Category); err != nil {
			return fmt.Errorf("failed to register war participant %d: %w", participant.EntityID, err)
		}
	}

	if err := s.storage.ReplaceWar(ctx, war); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Updated war", "war_id", warID, "active", war.IsActive(time.Now().UTC()))
	return nil
}

// UpdateAllWars prunes outdated records and dispatches one update task
// per war that is not already known to be finished
func (s *Service) UpdateAllWars(ctx context.Context, dispatcher Dispatcher) (int, error) {
	pruned, err := s.storage.Prune(ctx, MaxWarsStored)
	if err != nil {
		return 0, fmt.Errorf("failed to prune wars: %w", err)
	}
	if pruned > 0 {
		slog.InfoContext(ctx, "Pruned outdated wars", "deleted", pruned)
	}

	warIDs, err := s.esi.GetWarIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch war ids: %w", err)
	}

	finished, err := s.storage.FinishedWarIDs(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list finished wars: %w", err)
	}

	dispatched := 0
	for _, warID := range warIDs {
		if finished[warID] {
			continue
		}
		if err := dispatcher.EnqueueWarUpdate(warID); err != nil {
			return dispatched, fmt.Errorf("failed to enqueue war update %d: %w", warID, err)
		}
		dispatched++
	}

	slog.InfoContext(ctx, "Dispatched war updates", "dispatched", dispatched, "total", len(warIDs))
	return dispatched, nil
}

// ActiveWarTargets returns the de-duplicated hostile counterparts of the
// organization across all currently active wars
func (s *Service) ActiveWarTargets(ctx context.Context, organizationID int64) ([]models.WarParticipant, error) {
	activeWars, err := s.storage.ActiveWars(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list active wars: %w", err)
	}

	targets := WarTargets(activeWars, organizationID)

	slog.DebugContext(ctx, "Derived war targets",
		"organization_id", organizationID,
		"active_wars", len(activeWars),
		"targets", len(targets))

	return targets, nil
}

// WarTargets computes the union of hostile counterparts of the
// organization over the given wars, with set semantics
func WarTargets(activeWars []*models.EveWar, organizationID int64) []models.WarParticipant {
	byID := make(map[int64]models.WarParticipant)
	for _, war := range activeWars {
		for _, target := range war.TargetsFor(organizationID) {
			if target.EntityID == organizationID {
				continue
			}
			byID[target.EntityID] = target
		}
	}

	targets := make([]models.WarParticipant, 0, len(byID))
	for _, target := range byID {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].EntityID < targets[j].EntityID })

	return targets
}

// participantFromBelligerent maps an ESI war party to a participant.
// A party in an alliance wars as the alliance.
func participantFromBelligerent(corporationID, allianceID *int64) models.WarParticipant {
	if allianceID != nil {
		return models.WarParticipant{EntityID: *allianceID, Category: entitymodels.CategoryAlliance}
	}
	if corporationID != nil {
		return models.WarParticipant{EntityID: *corporationID, Category: entitymodels.CategoryCorporation}
	}
	return models.WarParticipant{}
}
