package services

import (
	"context"
	"errors"
	"testing"
	"time"

	entitymodels "go-standings/internal/eveentity/models"
	"go-standings/internal/evewars/models"
	"go-standings/pkg/evegateway/wars"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarTargets_UnionAcrossWars(t *testing.T) {
	org := int64(99000001)
	wars := []*models.EveWar{
		{
			ID:        1,
			Aggressor: models.WarParticipant{EntityID: org, Category: entitymodels.CategoryAlliance},
			Defender:  models.WarParticipant{EntityID: 200, Category: entitymodels.CategoryCorporation},
			Allies: []models.WarParticipant{
				{EntityID: 300, Category: entitymodels.CategoryAlliance},
			},
		},
		{
			ID:        2,
			Aggressor: models.WarParticipant{EntityID: 400, Category: entitymodels.CategoryAlliance},
			Defender:  models.WarParticipant{EntityID: org, Category: entitymodels.CategoryAlliance},
		},
		{
			// Same aggressor again, must not produce a duplicate
			ID:        3,
			Aggressor: models.WarParticipant{EntityID: 400, Category: entitymodels.CategoryAlliance},
			Defender:  models.WarParticipant{EntityID: org, Category: entitymodels.CategoryAlliance},
		},
		{
			// Unrelated war contributes nothing
			ID:        4,
			Aggressor: models.WarParticipant{EntityID: 500, Category: entitymodels.CategoryCorporation},
			Defender:  models.WarParticipant{EntityID: 600, Category: entitymodels.CategoryCorporation},
		},
	}

	targets := WarTargets(wars, org)

	var ids []int64
	for _, target := range targets {
		ids = append(ids, target.EntityID)
	}
	assert.Equal(t, []int64{200, 300, 400}, ids, "deduplicated and sorted by entity id")
}

func TestWarTargets_NeverContainsTheOrganization(t *testing.T) {
	org := int64(99000001)
	// A mutual war where the organization shows up on both sides of the
	// record must not make it its own target
	wars := []*models.EveWar{
		{
			ID:        1,
			Aggressor: models.WarParticipant{EntityID: 100, Category: entitymodels.CategoryAlliance},
			Defender:  models.WarParticipant{EntityID: 200, Category: entitymodels.CategoryCorporation},
			Allies: []models.WarParticipant{
				{EntityID: org, Category: entitymodels.CategoryAlliance},
			},
		},
	}

	for _, target := range WarTargets(wars, org) {
		assert.NotEqual(t, org, target.EntityID)
	}
}

func TestWarTargets_Empty(t *testing.T) {
	assert.Empty(t, WarTargets(nil, 99000001))
}

type fakeWarStorage struct {
	wars       map[int64]*models.EveWar
	finished   map[int64]bool
	prunedKeep int64
}

func (f *fakeWarStorage) GetWar(ctx context.Context, warID int64) (*models.EveWar, error) {
	return f.wars[warID], nil
}

func (f *fakeWarStorage) ReplaceWar(ctx context.Context, war *models.EveWar) error {
	f.wars[war.ID] = war
	return nil
}

func (f *fakeWarStorage) ActiveWars(ctx context.Context, now time.Time) ([]*models.EveWar, error) {
	var active []*models.EveWar
	for _, war := range f.wars {
		if war.IsActive(now) {
			active = append(active, war)
		}
	}
	return active, nil
}

func (f *fakeWarStorage) FinishedWarIDs(ctx context.Context, now time.Time) (map[int64]bool, error) {
	return f.finished, nil
}

func (f *fakeWarStorage) Prune(ctx context.Context, keep int64) (int64, error) {
	f.prunedKeep = keep
	return 0, nil
}

type fakeWarESI struct {
	warIDs []int64
}

func (f *fakeWarESI) GetWarIDs(ctx context.Context) ([]int64, error) {
	return f.warIDs, nil
}

func (f *fakeWarESI) GetWar(ctx context.Context, warID int64) (*wars.War, error) {
	return nil, errors.New("not implemented")
}

type fakeDispatcher struct {
	enqueued []int64
}

func (f *fakeDispatcher) EnqueueWarUpdate(warID int64) error {
	f.enqueued = append(f.enqueued, warID)
	return nil
}

func TestUpdateAllWars_SkipsKnownFinishedWars(t *testing.T) {
	storage := &fakeWarStorage{
		wars:     make(map[int64]*models.EveWar),
		finished: map[int64]bool{2: true},
	}
	esi := &fakeWarESI{warIDs: []int64{1, 2, 3}}
	service := NewService(storage, esi, nil)
	dispatcher := &fakeDispatcher{}

	dispatched, err := service.UpdateAllWars(context.Background(), dispatcher)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)
	assert.Equal(t, []int64{1, 3}, dispatcher.enqueued)
	assert.Equal(t, int64(MaxWarsStored), storage.prunedKeep)
}
