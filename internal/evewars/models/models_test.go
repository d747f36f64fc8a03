package models

import (
	"testing"
	"time"

	entitymodels "go-standings/internal/eveentity/models"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEveWar_IsActive(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		war  EveWar
		want bool
	}{
		{
			name: "running war",
			war:  EveWar{Started: timePtr(now.Add(-24 * time.Hour))},
			want: true,
		},
		{
			name: "declared but not yet started",
			war:  EveWar{Started: timePtr(now.Add(24 * time.Hour))},
			want: false,
		},
		{
			name: "never started",
			war:  EveWar{},
			want: false,
		},
		{
			name: "finished in the past",
			war: EveWar{
				Started:  timePtr(now.Add(-48 * time.Hour)),
				Finished: timePtr(now.Add(-time.Hour)),
			},
			want: false,
		},
		{
			name: "finish date in the future",
			war: EveWar{
				Started:  timePtr(now.Add(-48 * time.Hour)),
				Finished: timePtr(now.Add(time.Hour)),
			},
			want: true,
		},
		{
			name: "retracted but not finished",
			war: EveWar{
				Started:   timePtr(now.Add(-48 * time.Hour)),
				Retracted: timePtr(now.Add(-time.Hour)),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.war.IsActive(now))
		})
	}
}

func TestEveWar_IsFinished(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	running := EveWar{Started: timePtr(now.Add(-time.Hour))}
	assert.False(t, running.IsFinished(now))

	ended := EveWar{
		Started:  timePtr(now.Add(-48 * time.Hour)),
		Finished: timePtr(now.Add(-time.Hour)),
	}
	assert.True(t, ended.IsFinished(now))

	endingLater := EveWar{
		Started:  timePtr(now.Add(-48 * time.Hour)),
		Finished: timePtr(now.Add(time.Hour)),
	}
	assert.False(t, endingLater.IsFinished(now))
}

func TestEveWar_TargetsFor(t *testing.T) {
	war := EveWar{
		ID:        1,
		Aggressor: WarParticipant{EntityID: 100, Category: entitymodels.CategoryAlliance},
		Defender:  WarParticipant{EntityID: 200, Category: entitymodels.CategoryCorporation},
		Allies: []WarParticipant{
			{EntityID: 300, Category: entitymodels.CategoryAlliance},
			{EntityID: 400, Category: entitymodels.CategoryCorporation},
		},
	}

	t.Run("aggressor faces defender and allies", func(t *testing.T) {
		targets := war.TargetsFor(100)
		var ids []int64
		for _, target := range targets {
			ids = append(ids, target.EntityID)
		}
		assert.ElementsMatch(t, []int64{200, 300, 400}, ids)
	})

	t.Run("defender faces the aggressor", func(t *testing.T) {
		targets := war.TargetsFor(200)
		assert.Equal(t, []WarParticipant{war.Aggressor}, targets)
	})

	t.Run("ally faces the aggressor", func(t *testing.T) {
		targets := war.TargetsFor(400)
		assert.Equal(t, []WarParticipant{war.Aggressor}, targets)
	})

	t.Run("uninvolved organization has no targets", func(t *testing.T) {
		assert.Empty(t, war.TargetsFor(999))
	})
}
