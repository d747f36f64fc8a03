package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	authmodels "go-standings/internal/auth/models"
	entitymodels "go-standings/internal/eveentity/models"
)

// MongoDB collection names
const (
	SyncManagerCollection     = "sync_managers"
	ContactCollection         = "sync_contacts"
	SyncedCharacterCollection = "synced_characters"
)

// Standing bounds of the EVE contact system
const (
	StandingMaxFriendly = 10.0
	StandingMaxHostile  = -10.0
)

// ESI scopes required by the sync operations
const (
	ScopeReadAllianceContacts    = "esi-alliances.read_contacts.v1"
	ScopeReadCorporationContacts = "esi-corporations.read_contacts.v1"
	ScopeReadCharacterContacts   = "esi-characters.read_contacts.v1"
	ScopeWriteCharacterContacts  = "esi-characters.write_contacts.v1"
)

// SyncError classifies the outcome of the last sync attempt
type SyncError int

const (
	SyncErrorNone SyncError = iota
	SyncErrorTokenInvalid
	SyncErrorTokenExpired
	SyncErrorInsufficientPermissions
	SyncErrorNoCharacter
	SyncErrorRemoteAPIUnavailable
	SyncErrorUnknown
)

// String returns the stable name of the error code
func (e SyncError) String() string {
	switch e {
	case SyncErrorNone:
		return "none"
	case SyncErrorTokenInvalid:
		return "token_invalid"
	case SyncErrorTokenExpired:
		return "token_expired"
	case SyncErrorInsufficientPermissions:
		return "insufficient_permissions"
	case SyncErrorNoCharacter:
		return "no_character"
	case SyncErrorRemoteAPIUnavailable:
		return "remote_api_unavailable"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the error code by name
func (e SyncError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// SyncManager owns one organization's contact synchronization link
type SyncManager struct {
	OrganizationID int64                            `bson:"organization_id" json:"organization_id"`
	Organization   entitymodels.EveEntity           `bson:"organization" json:"organization"`
	Credential     *authmodels.CharacterOwnership   `bson:"credential,omitempty" json:"credential,omitempty"`
	ContactVersion string                           `bson:"contact_version" json:"contact_version"`
	LastSyncAt     *time.Time                       `bson:"last_sync_at,omitempty" json:"last_sync_at,omitempty"`
	LastError      SyncError                        `bson:"last_error" json:"last_error"`
	CreatedAt      time.Time                        `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time                        `bson:"updated_at" json:"updated_at"`
}

// ReadScope returns the ESI scope required to read the organization's contacts
func (m *SyncManager) ReadScope() (string, error) {
	switch m.Organization.Category {
	case entitymodels.CategoryAlliance:
		return ScopeReadAllianceContacts, nil
	case entitymodels.CategoryCorporation:
		return ScopeReadCorporationContacts, nil
	default:
		return "", fmt.Errorf("organization %d has unsupported category %s",
			m.OrganizationID, m.Organization.Category)
	}
}

// Contact is one entry of an organization's reconciled contact list
type Contact struct {
	OrganizationID int64                 `bson:"organization_id" json:"organization_id"`
	EntityID       int64                 `bson:"entity_id" json:"entity_id"`
	Category       entitymodels.Category `bson:"category" json:"category"`
	Standing       float64               `bson:"standing" json:"standing"`
	IsWarTarget    bool                  `bson:"is_war_target" json:"is_war_target"`
}

// SyncedCharacter is one member character's subscription to a manager
type SyncedCharacter struct {
	CharacterID    int64      `bson:"character_id" json:"character_id"`
	UserID         string     `bson:"user_id" json:"user_id"`
	OrganizationID int64      `bson:"organization_id" json:"organization_id"`
	ContactVersion string     `bson:"contact_version" json:"contact_version"`
	LastSyncAt     *time.Time `bson:"last_sync_at,omitempty" json:"last_sync_at,omitempty"`
	LastError      SyncError  `bson:"last_error" json:"last_error"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

// ContactsVersion computes the content hash of a contact set. Contacts
// are canonicalized by sorting on entity id first so the hash is a pure
// function of content, independent of API response order.
func ContactsVersion(contacts []*Contact) string {
	sorted := make([]*Contact, len(contacts))
	copy(sorted, contacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntityID < sorted[j].EntityID })

	hasher := sha256.New()
	for _, contact := range sorted {
		line := strconv.FormatInt(contact.EntityID, 10) + ":" +
			strconv.FormatFloat(contact.Standing, 'f', -1, 64) + ":" +
			strconv.FormatBool(contact.IsWarTarget) + "\n"
		hasher.Write([]byte(line))
	}

	return hex.EncodeToString(hasher.Sum(nil))
}
