package models

import "time"

// MongoDB collection names
const (
	CharacterOwnershipCollection = "character_ownerships"
	TokenCollection              = "esi_tokens"
)

// EveCharacter is the identity of one owned EVE character
type EveCharacter struct {
	CharacterID   int64  `bson:"character_id" json:"character_id"`
	Name          string `bson:"name" json:"name"`
	CorporationID int64  `bson:"corporation_id" json:"corporation_id"`
	AllianceID    int64  `bson:"alliance_id,omitempty" json:"alliance_id,omitempty"` // 0 when not in an alliance
}

// CharacterOwnership links an authenticated user to one of their characters
type CharacterOwnership struct {
	UserID    string       `bson:"user_id" json:"user_id"`
	Character EveCharacter `bson:"character" json:"character"`
	CreatedAt time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updated_at"`
}

// Token holds the ESI OAuth tokens of one character
type Token struct {
	UserID       string    `bson:"user_id" json:"user_id"`
	CharacterID  int64     `bson:"character_id" json:"character_id"`
	AccessToken  string    `bson:"access_token" json:"-"`
	RefreshToken string    `bson:"refresh_token" json:"-"`
	Scopes       []string  `bson:"scopes" json:"scopes"`
	ExpiresAt    time.Time `bson:"expires_at" json:"expires_at"`
	Valid        bool      `bson:"valid" json:"valid"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// HasScopes reports whether the token covers all requested scopes
func (t *Token) HasScopes(scopes ...string) bool {
	granted := make(map[string]bool, len(t.Scopes))
	for _, scope := range t.Scopes {
		granted[scope] = true
	}
	for _, scope := range scopes {
		if !granted[scope] {
			return false
		}
	}
	return true
}

// SSOTokenResponse is the response of the EVE SSO token endpoint
type SSOTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
