package dto

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// GetManagerInput identifies one sync manager
type GetManagerInput struct {
	OrganizationID int64 `path:"organization_id" minimum:"1" description:"Organization (alliance or corporation) ID" example:"99000001"`
}

// CreateManagerRequest is the body for registering a sync manager
type CreateManagerRequest struct {
	UserID         string `json:"user_id" validate:"required" description:"User owning the credential character"`
	CharacterID    int64  `json:"character_id" validate:"required,gt=0" description:"Credential character ID" example:"93813310"`
	OrganizationID int64  `json:"organization_id" validate:"required,gt=0" description:"Organization to sync, must match the character's alliance or corporation" example:"99000001"`
}

// Validate checks the request body constraints
func (r *CreateManagerRequest) Validate() error {
	return validate.Struct(r)
}

// CreateManagerInput wraps the manager registration body
type CreateManagerInput struct {
	Body CreateManagerRequest `json:"body"`
}

// TriggerManagerSyncRequest is the body for a manual manager sync
type TriggerManagerSyncRequest struct {
	Force        bool   `json:"force,omitempty" description:"Replace the contact store even when the version hash is unchanged"`
	NotifyUserID string `json:"notify_user_id,omitempty" description:"User to notify with a completion report"`
}

// TriggerManagerSyncInput wraps a manual manager sync trigger
type TriggerManagerSyncInput struct {
	OrganizationID int64                     `path:"organization_id" minimum:"1" description:"Organization ID" example:"99000001"`
	Body           TriggerManagerSyncRequest `json:"body"`
}

// TriggerCharacterSyncRequest is the body for a manual character sync
type TriggerCharacterSyncRequest struct {
	Force bool `json:"force,omitempty" description:"Replace the remote contacts even when already current"`
}

// TriggerCharacterSyncInput wraps a manual character sync trigger
type TriggerCharacterSyncInput struct {
	CharacterID int64                       `path:"character_id" minimum:"1" description:"Character ID" example:"93813310"`
	Body        TriggerCharacterSyncRequest `json:"body"`
}

// EnableCharacterSyncRequest is the body for a member opt-in
type EnableCharacterSyncRequest struct {
	UserID         string `json:"user_id" validate:"required" description:"User owning the character"`
	OrganizationID int64  `json:"organization_id" validate:"required,gt=0" description:"Organization to subscribe to" example:"99000001"`
}

// Validate checks the request body constraints
func (r *EnableCharacterSyncRequest) Validate() error {
	return validate.Struct(r)
}

// EnableCharacterSyncInput wraps a member opt-in
type EnableCharacterSyncInput struct {
	CharacterID int64                      `path:"character_id" minimum:"1" description:"Character ID" example:"93813310"`
	Body        EnableCharacterSyncRequest `json:"body"`
}

// DisableCharacterSyncInput wraps a member opt-out
type DisableCharacterSyncInput struct {
	CharacterID int64  `path:"character_id" minimum:"1" description:"Character ID" example:"93813310"`
	UserID      string `query:"user_id" required:"true" description:"User owning the character"`
}
