package services

import (
	"context"
	"fmt"
	"log/slog"

	"go-standings/internal/eveentity/models"
	"go-standings/pkg/evegateway/universe"
)

// Storage is the persistence surface the entity service needs
type Storage interface {
	GetByID(ctx context.Context, entityID int64) (*models.EveEntity, error)
	Upsert(ctx context.Context, entity *models.EveEntity) error
	ListWithoutName(ctx context.Context, limit int64) ([]int64, error)
	SetName(ctx context.Context, entityID int64, name string, category models.Category) error
}

// NamesResolver resolves entity ids to names via ESI
type NamesResolver interface {
	ResolveNames(ctx context.Context, ids []int64) ([]universe.Name, error)
}

// Service resolves opaque numeric ids into typed EVE entities
type Service struct {
	storage  Storage
	universe NamesResolver
}

// NewService creates a new entity service
func NewService(storage Storage, universe NamesResolver) *Service {
	return &Service{
		storage:  storage,
		universe: universe,
	}
}

// GetOrCreate returns the entity for the id, creating it when unknown
func (s *Service) GetOrCreate(ctx context.Context, entityID int64, category models.Category) (*models.EveEntity, error) {
	entity := &models.EveEntity{
		ID:       entityID,
		Category: category,
	}
	if err := s.storage.Upsert(ctx, entity); err != nil {
		return nil, fmt.Errorf("failed to upsert entity %d: %w", entityID, err)
	}

	stored, err := s.storage.GetByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entity %d: %w", entityID, err)
	}
	return stored, nil
}

// GetOrCreateFromContact resolves an ESI contact entry into an entity
func (s *Service) GetOrCreateFromContact(ctx context.Context, contactID int64, contactType string) (*models.EveEntity, error) {
	category, err := models.CategoryFromContactType(contactType)
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, contactID, category)
}

// GetOrCreateFromFragment resolves an API payload fragment into an entity
func (s *Service) GetOrCreateFromFragment(ctx context.Context, fragment models.Fragment) (*models.EveEntity, error) {
	entityID, category, err := models.EntityFromFragment(fragment)
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, entityID, category)
}

// BackfillNames resolves names for entities created from bare ids.
// Best-effort: resolution failures are logged, not propagated.
func (s *Service) BackfillNames(ctx context.Context) {
	ids, err := s.storage.ListWithoutName(ctx, universe.MaxIDsPerNamesRequest)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list entities without name", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	names, err := s.universe.ResolveNames(ctx, ids)
	if err != nil {
		slog.WarnContext(ctx, "Failed to resolve entity names from ESI", "count", len(ids), "error", err)
		return
	}

	for _, name := range names {
		category, err := models.CategoryFromContactType(name.Category)
		if err != nil {
			// ids can resolve to categories we do not track (e.g. faction)
			continue
		}
		if err := s.storage.SetName(ctx, name.ID, name.Name, category); err != nil {
			slog.ErrorContext(ctx, "Failed to store entity name", "entity_id", name.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Backfilled entity names", "resolved", len(names), "requested", len(ids))
}
