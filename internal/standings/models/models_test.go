package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactsVersion_OrderIndependent(t *testing.T) {
	a := []*Contact{
		{EntityID: 1001, Standing: 10},
		{EntityID: 2002, Standing: -10},
		{EntityID: 3003, Standing: 5},
	}
	b := []*Contact{
		{EntityID: 3003, Standing: 5},
		{EntityID: 1001, Standing: 10},
		{EntityID: 2002, Standing: -10},
	}

	assert.Equal(t, ContactsVersion(a), ContactsVersion(b))
}

func TestContactsVersion_Sensitivity(t *testing.T) {
	base := []*Contact{
		{EntityID: 1001, Standing: 10},
		{EntityID: 2002, Standing: -10},
	}

	tests := []struct {
		name     string
		contacts []*Contact
	}{
		{
			name: "changed standing",
			contacts: []*Contact{
				{EntityID: 1001, Standing: 5},
				{EntityID: 2002, Standing: -10},
			},
		},
		{
			name: "war target flag",
			contacts: []*Contact{
				{EntityID: 1001, Standing: 10},
				{EntityID: 2002, Standing: -10, IsWarTarget: true},
			},
		},
		{
			name: "added contact",
			contacts: []*Contact{
				{EntityID: 1001, Standing: 10},
				{EntityID: 2002, Standing: -10},
				{EntityID: 3003, Standing: 0},
			},
		},
		{
			name: "removed contact",
			contacts: []*Contact{
				{EntityID: 1001, Standing: 10},
			},
		},
	}

	baseVersion := ContactsVersion(base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, baseVersion, ContactsVersion(tt.contacts))
		})
	}
}

func TestContactsVersion_Empty(t *testing.T) {
	assert.Equal(t, ContactsVersion(nil), ContactsVersion([]*Contact{}))
	assert.NotEmpty(t, ContactsVersion(nil))
}

func TestSyncError_String(t *testing.T) {
	tests := []struct {
		err  SyncError
		want string
	}{
		{SyncErrorNone, "none"},
		{SyncErrorTokenInvalid, "token_invalid"},
		{SyncErrorTokenExpired, "token_expired"},
		{SyncErrorInsufficientPermissions, "insufficient_permissions"},
		{SyncErrorNoCharacter, "no_character"},
		{SyncErrorRemoteAPIUnavailable, "remote_api_unavailable"},
		{SyncErrorUnknown, "unknown"},
		{SyncError(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.String())
	}
}

func TestSyncManager_ReadScope(t *testing.T) {
	alliance := &SyncManager{
		OrganizationID: 99000001,
	}
	alliance.Organization.Category = "alliance"
	scope, err := alliance.ReadScope()
	assert.NoError(t, err)
	assert.Equal(t, ScopeReadAllianceContacts, scope)

	corporation := &SyncManager{
		OrganizationID: 98000001,
	}
	corporation.Organization.Category = "corporation"
	scope, err = corporation.ReadScope()
	assert.NoError(t, err)
	assert.Equal(t, ScopeReadCorporationContacts, scope)

	character := &SyncManager{}
	character.Organization.Category = "character"
	_, err = character.ReadScope()
	assert.Error(t, err)
}
