package models

import (
	"fmt"
	"time"
)

// EveEntityCollection is the MongoDB collection name for entities
const EveEntityCollection = "eve_entities"

// Category classifies an EVE entity
type Category string

const (
	CategoryCharacter   Category = "character"
	CategoryCorporation Category = "corporation"
	CategoryAlliance    Category = "alliance"
)

// EveEntity represents one EVE Online entity resolved from an opaque id.
// Entities are immutable once created except for name backfill.
type EveEntity struct {
	ID        int64     `bson:"entity_id" json:"entity_id"`
	Name      string    `bson:"name" json:"name,omitempty"`
	Category  Category  `bson:"category" json:"category"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Fragment is an API payload fragment that carries exactly one entity id field
type Fragment struct {
	CharacterID   *int64 `json:"character_id,omitempty"`
	CorporationID *int64 `json:"corporation_id,omitempty"`
	AllianceID    *int64 `json:"alliance_id,omitempty"`
}

// EntityFromFragment derives the entity id and category from a fragment.
// When more than one id field is set, character wins over corporation,
// corporation over alliance.
func EntityFromFragment(fragment Fragment) (int64, Category, error) {
	switch {
	case fragment.CharacterID != nil:
		return *fragment.CharacterID, CategoryCharacter, nil
	case fragment.CorporationID != nil:
		return *fragment.CorporationID, CategoryCorporation, nil
	case fragment.AllianceID != nil:
		return *fragment.AllianceID, CategoryAlliance, nil
	default:
		return 0, "", fmt.Errorf("fragment carries no entity id field")
	}
}

// CategoryFromContactType maps an ESI contact_type value to a Category
func CategoryFromContactType(contactType string) (Category, error) {
	switch contactType {
	case "character":
		return CategoryCharacter, nil
	case "corporation":
		return CategoryCorporation, nil
	case "alliance":
		return CategoryAlliance, nil
	default:
		return "", fmt.Errorf("unsupported contact type: %s", contactType)
	}
}
