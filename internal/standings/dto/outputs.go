package dto

import (
	"time"

	"go-standings/internal/standings/models"
)

// ModuleStatus reports the health of the standings module
type ModuleStatus struct {
	Module   string `json:"module" description:"Module name" example:"standings"`
	Status   string `json:"status" description:"Module health" example:"healthy"`
	Managers int    `json:"managers" description:"Number of registered sync managers"`
}

// StatusOutput wraps the module status response
type StatusOutput struct {
	Body ModuleStatus `json:"body"`
}

// ManagerStatus is one sync manager's externally visible state
type ManagerStatus struct {
	OrganizationID   int64      `json:"organization_id"`
	OrganizationName string     `json:"organization_name,omitempty"`
	Category         string     `json:"category" example:"alliance"`
	HasCredential    bool       `json:"has_credential"`
	ContactVersion   string     `json:"contact_version,omitempty"`
	ContactCount     int64      `json:"contact_count"`
	CharacterCount   int        `json:"character_count"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	LastError        string     `json:"last_error" example:"none"`
}

// ManagerOutput wraps one manager response
type ManagerOutput struct {
	Body ManagerStatus `json:"body"`
}

// ManagerListOutput wraps the manager list response
type ManagerListOutput struct {
	Body []ManagerStatus `json:"body"`
}

// CharacterStatus is one subscription's externally visible state
type CharacterStatus struct {
	CharacterID    int64      `json:"character_id"`
	OrganizationID int64      `json:"organization_id"`
	ContactVersion string     `json:"contact_version,omitempty"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastError      string     `json:"last_error" example:"none"`
}

// CharacterOutput wraps one subscription response
type CharacterOutput struct {
	Body CharacterStatus `json:"body"`
}

// SyncTriggeredOutput acknowledges an enqueued sync task
type SyncTriggeredOutput struct {
	Body struct {
		Enqueued bool   `json:"enqueued"`
		Task     string `json:"task" example:"manager_sync"`
	} `json:"body"`
}

// CharacterStatusFrom maps a synced character to its response shape
func CharacterStatusFrom(character *models.SyncedCharacter) CharacterStatus {
	return CharacterStatus{
		CharacterID:    character.CharacterID,
		OrganizationID: character.OrganizationID,
		ContactVersion: character.ContactVersion,
		LastSyncAt:     character.LastSyncAt,
		LastError:      character.LastError.String(),
	}
}
