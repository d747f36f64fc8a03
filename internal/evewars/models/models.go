package models

import (
	"time"

	entitymodels "go-standings/internal/eveentity/models"
)

// EveWarCollection is the MongoDB collection name for wars
const EveWarCollection = "eve_wars"

// WarParticipant is one party of a war, either a corporation or an alliance
type WarParticipant struct {
	EntityID int64                 `bson:"entity_id" json:"entity_id"`
	Category entitymodels.Category `bson:"category" json:"category"`
}

// EveWar represents one war between organizations. Records are replaced
// wholesale from ESI, never merged.
type EveWar struct {
	ID              int64            `bson:"war_id" json:"war_id"`
	Aggressor       WarParticipant   `bson:"aggressor" json:"aggressor"`
	Defender        WarParticipant   `bson:"defender" json:"defender"`
	Allies          []WarParticipant `bson:"allies,omitempty" json:"allies,omitempty"`
	Declared        time.Time        `bson:"declared" json:"declared"`
	Started         *time.Time       `bson:"started,omitempty" json:"started,omitempty"`
	Finished        *time.Time       `bson:"finished,omitempty" json:"finished,omitempty"`
	Retracted       *time.Time       `bson:"retracted,omitempty" json:"retracted,omitempty"`
	IsMutual        bool             `bson:"is_mutual" json:"is_mutual"`
	IsOpenForAllies bool             `bson:"is_open_for_allies" json:"is_open_for_allies"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the war is running at the given time.
// A retraction is informational only, it does not end the war before
// its finished timestamp.
func (w *EveWar) IsActive(now time.Time) bool {
	if w.Started == nil || w.Started.After(now) {
		return false
	}
	return w.Finished == nil || w.Finished.After(now)
}

// IsFinished reports whether the war has ended at the given time
func (w *EveWar) IsFinished(now time.Time) bool {
	return w.Finished != nil && !w.Finished.After(now)
}

// TargetsFor returns the hostile counterparts of the organization in this
// war: defender and allies when the organization is the aggressor, the
// aggressor when it is the defender or one of the allies. Empty when the
// organization is not involved.
func (w *EveWar) TargetsFor(organizationID int64) []WarParticipant {
	if w.Aggressor.EntityID == organizationID {
		targets := []WarParticipant{w.Defender}
		targets = append(targets, w.Allies...)
		return targets
	}

	if w.Defender.EntityID == organizationID {
		return []WarParticipant{w.Aggressor}
	}

	for _, ally := range w.Allies {
		if ally.EntityID == organizationID {
			return []WarParticipant{w.Aggressor}
		}
	}

	return nil
}
