package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	authmodels "go-standings/internal/auth/models"
	authservices "go-standings/internal/auth/services"
	entitymodels "go-standings/internal/eveentity/models"
	warmodels "go-standings/internal/evewars/models"
	notifmodels "go-standings/internal/notifications/models"
	"go-standings/internal/standings/models"
	"go-standings/pkg/config"
	"go-standings/pkg/evegateway/contacts"
	"go-standings/pkg/permissions"
)

// Errors returned by the subscription operations
var (
	ErrNotAuthorized  = errors.New("user is not authorized for this operation")
	ErrTokenRequired  = errors.New("no valid token with the required scopes")
	ErrStandingTooLow = errors.New("effective standing is below the configured minimum")
)

// Settings are the runtime toggles of the sync engine
type Settings struct {
	// MinStanding is the minimum effective standing a member character
	// needs to stay subscribed
	MinStanding float64

	// AddWarTargets overlays active war targets onto the organization's
	// contacts at maximum hostile standing
	AddWarTargets bool

	// ReplaceContacts wipes a character's remote contacts before writing.
	// When disabled existing remote contacts are kept and only the
	// organization's contacts are written over them.
	ReplaceContacts bool
}

// SettingsFromEnv loads the sync settings from the environment
func SettingsFromEnv() Settings {
	return Settings{
		MinStanding:     config.GetFloatEnv("STANDINGS_CHAR_MIN_STANDING", 0.1),
		AddWarTargets:   config.GetBoolEnv("STANDINGS_ADD_WAR_TARGETS", false),
		ReplaceContacts: config.GetBoolEnv("STANDINGS_REPLACE_CONTACTS", true),
	}
}

// Storage is the persistence surface the sync service needs
type Storage interface {
	GetManager(ctx context.Context, organizationID int64) (*models.SyncManager, error)
	ListManagers(ctx context.Context) ([]*models.SyncManager, error)
	SaveManager(ctx context.Context, manager *models.SyncManager) error
	SetManagerError(ctx context.Context, organizationID int64, syncError models.SyncError) error
	TouchManager(ctx context.Context, organizationID int64, now time.Time) error
	Contacts(ctx context.Context, organizationID int64) ([]*models.Contact, error)
	CountContacts(ctx context.Context, organizationID int64) (int64, error)
	ReplaceContacts(ctx context.Context, organizationID int64, contacts []*models.Contact, version string) error
	GetCharacter(ctx context.Context, characterID int64) (*models.SyncedCharacter, error)
	ListCharacters(ctx context.Context, organizationID int64) ([]*models.SyncedCharacter, error)
	StaleCharacters(ctx context.Context, organizationID int64, version string) ([]*models.SyncedCharacter, error)
	SaveCharacter(ctx context.Context, character *models.SyncedCharacter) error
	SetCharacterError(ctx context.Context, characterID int64, syncError models.SyncError) error
	CompleteCharacterSync(ctx context.Context, characterID int64, version string, now time.Time) error
	DeleteCharacter(ctx context.Context, characterID int64) error
}

// ESIClient is the contact surface of the ESI gateway
type ESIClient interface {
	AllianceContacts(ctx context.Context, allianceID int64, token string) ([]contacts.Contact, error)
	CorporationContacts(ctx context.Context, corporationID int64, token string) ([]contacts.Contact, error)
	CharacterContacts(ctx context.Context, characterID int64, token string) ([]contacts.Contact, error)
	DeleteCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, token string) error
	PostCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, standing float64, token string) error
}

// WarDirectory derives active war targets for an organization
type WarDirectory interface {
	ActiveWarTargets(ctx context.Context, organizationID int64) ([]warmodels.WarParticipant, error)
}

// EntityResolver registers contact entities in the entity directory
type EntityResolver interface {
	GetOrCreate(ctx context.Context, entityID int64, category entitymodels.Category) (*entitymodels.EveEntity, error)
	GetOrCreateFromContact(ctx context.Context, contactID int64, contactType string) (*entitymodels.EveEntity, error)
}

// TokenStore hands out valid ESI access tokens
type TokenStore interface {
	ValidToken(ctx context.Context, userID string, characterID int64, scopes ...string) (string, error)
}

// PermissionChecker performs capability checks
type PermissionChecker interface {
	HasCapability(userID string, capability permissions.Capability) (bool, error)
}

// Notifier delivers user notifications
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, level string) error
}

// OwnershipStore resolves character ownership records
type OwnershipStore interface {
	GetOwnership(ctx context.Context, characterID int64) (*authmodels.CharacterOwnership, error)
}

// Service implements the organization and member contact reconciliation
type Service struct {
	storage     Storage
	esi         ESIClient
	wars        WarDirectory
	entities    EntityResolver
	tokens      TokenStore
	permissions PermissionChecker
	notifier    Notifier
	ownerships  OwnershipStore
	settings    Settings
}

// NewService creates a new sync service
func NewService(
	storage Storage,
	esi ESIClient,
	wars WarDirectory,
	entities EntityResolver,
	tokens TokenStore,
	permissionChecker PermissionChecker,
	notifier Notifier,
	ownerships OwnershipStore,
	settings Settings,
) *Service {
	return &Service{
		storage:     storage,
		esi:         esi,
		wars:        wars,
		entities:    entities,
		tokens:      tokens,
		permissions: permissionChecker,
		notifier:    notifier,
		ownerships:  ownerships,
		settings:    settings,
	}
}

// CreateManager registers a sync manager for the organization using one
// of the user's characters as its credential. The character must belong
// to the organization.
func (s *Service) CreateManager(ctx context.Context, userID string, characterID, organizationID int64) (*models.SyncManager, error) {
	allowed, err := s.permissions.HasCapability(userID, permissions.CapabilityOperateManager)
	if err != nil {
		return nil, fmt.Errorf("failed to check capability: %w", err)
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	ownership, err := s.ownerships.GetOwnership(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ownership of character %d: %w", characterID, err)
	}
	if ownership.UserID != userID {
		return nil, ErrNotAuthorized
	}

	var category entitymodels.Category
	switch organizationID {
	case ownership.Character.AllianceID:
		category = entitymodels.CategoryAlliance
	case ownership.Character.CorporationID:
		category = entitymodels.CategoryCorporation
	default:
		return nil, ErrNotAuthorized
	}

	readScope := models.ScopeReadCorporationContacts
	if category == entitymodels.CategoryAlliance {
		readScope = models.ScopeReadAllianceContacts
	}
	if _, err := s.tokens.ValidToken(ctx, userID, characterID, readScope); err != nil {
		if errors.Is(err, authservices.ErrTokenInvalid) || errors.Is(err, authservices.ErrTokenExpired) {
			return nil, ErrTokenRequired
		}
		return nil, fmt.Errorf("failed to obtain token for character %d: %w", characterID, err)
	}

	entity, err := s.entities.GetOrCreate(ctx, organizationID, category)
	if err != nil {
		return nil, err
	}

	manager := &models.SyncManager{
		OrganizationID: organizationID,
		Organization:   *entity,
		Credential:     ownership,
		LastError:      models.SyncErrorNone,
	}
	if err := s.storage.SaveManager(ctx, manager); err != nil {
		return nil, fmt.Errorf("failed to store manager: %w", err)
	}

	slog.InfoContext(ctx, "Created sync manager",
		"organization_id", organizationID,
		"category", category,
		"credential_character_id", characterID)

	return manager, nil
}

// ListManagers returns all sync managers
func (s *Service) ListManagers(ctx context.Context) ([]*models.SyncManager, error) {
	return s.storage.ListManagers(ctx)
}

// GetManager returns the sync manager of an organization
func (s *Service) GetManager(ctx context.Context, organizationID int64) (*models.SyncManager, error) {
	return s.storage.GetManager(ctx, organizationID)
}

// ContactCount returns the size of the organization's contact store
func (s *Service) ContactCount(ctx context.Context, organizationID int64) (int64, error) {
	return s.storage.CountContacts(ctx, organizationID)
}

// Settings returns the service's runtime toggles
func (s *Service) Settings() Settings {
	return s.settings
}

// StaleCharacters returns the subscriptions whose remote contacts do not
// yet reflect the manager's current contact version
func (s *Service) StaleCharacters(ctx context.Context, organizationID int64) ([]*models.SyncedCharacter, error) {
	manager, err := s.storage.GetManager(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return s.storage.StaleCharacters(ctx, organizationID, manager.ContactVersion)
}

// UpdateManager fetches the organization's remote contact list, reconciles
// it with war targets and the synthetic self contact, and replaces the
// stored contact set when its content hash changed (or force is set).
// Returns the resulting contact version. Authorization failures are
// recorded on the manager and return an empty version without error;
// remote failures propagate so the task layer can retry.
func (s *Service) UpdateManager(ctx context.Context, organizationID int64, force bool) (string, error) {
	manager, err := s.storage.GetManager(ctx, organizationID)
	if err != nil {
		return "", fmt.Errorf("failed to load manager %d: %w", organizationID, err)
	}

	if manager.Credential == nil {
		if err := s.storage.SetManagerError(ctx, organizationID, models.SyncErrorNoCharacter); err != nil {
			return "", err
		}
		slog.WarnContext(ctx, "Manager has no credential character", "organization_id", organizationID)
		return "", nil
	}

	userID := manager.Credential.UserID
	credentialID := manager.Credential.Character.CharacterID

	allowed, err := s.permissions.HasCapability(userID, permissions.CapabilityOperateManager)
	if err != nil {
		return "", s.failManager(ctx, organizationID, fmt.Errorf("failed to check capability: %w", err))
	}
	if !allowed {
		if err := s.storage.SetManagerError(ctx, organizationID, models.SyncErrorInsufficientPermissions); err != nil {
			return "", err
		}
		slog.WarnContext(ctx, "Credential user lacks manager capability",
			"organization_id", organizationID,
			"user_id", userID)
		return "", nil
	}

	readScope, err := manager.ReadScope()
	if err != nil {
		return "", s.failManager(ctx, organizationID, err)
	}

	token, err := s.tokens.ValidToken(ctx, userID, credentialID, readScope)
	if err != nil {
		switch {
		case errors.Is(err, authservices.ErrTokenInvalid):
			if err := s.storage.SetManagerError(ctx, organizationID, models.SyncErrorTokenInvalid); err != nil {
				return "", err
			}
			slog.WarnContext(ctx, "Manager token invalid", "organization_id", organizationID)
			return "", nil
		case errors.Is(err, authservices.ErrTokenExpired):
			if err := s.storage.SetManagerError(ctx, organizationID, models.SyncErrorTokenExpired); err != nil {
				return "", err
			}
			slog.WarnContext(ctx, "Manager token expired", "organization_id", organizationID)
			return "", nil
		default:
			return "", s.failManager(ctx, organizationID, fmt.Errorf("failed to obtain token: %w", err))
		}
	}

	remote, err := s.fetchOrganizationContacts(ctx, manager, token)
	if err != nil {
		return "", s.failManager(ctx, organizationID, err)
	}

	byID := make(map[int64]*models.Contact, len(remote)+1)
	for _, rc := range remote {
		entity, err := s.entities.GetOrCreateFromContact(ctx, rc.ContactID, rc.ContactType)
		if err != nil {
			// ESI lists can include categories outside the directory (faction)
			slog.DebugContext(ctx, "Skipping untracked contact",
				"contact_id", rc.ContactID,
				"contact_type", rc.ContactType)
			continue
		}
		byID[entity.ID] = &models.Contact{
			OrganizationID: organizationID,
			EntityID:       entity.ID,
			Category:       entity.Category,
			Standing:       rc.Standing,
		}
	}

	if s.settings.AddWarTargets {
		targets, err := s.wars.ActiveWarTargets(ctx, organizationID)
		if err != nil {
			return "", s.failManager(ctx, organizationID, fmt.Errorf("failed to derive war targets: %w", err))
		}
		// Overlay wins over any remote-supplied standing for the same entity
		for _, target := range targets {
			byID[target.EntityID] = &models.Contact{
				OrganizationID: organizationID,
				EntityID:       target.EntityID,
				Category:       target.Category,
				Standing:       models.StandingMaxHostile,
				IsWarTarget:    true,
			}
		}
	}

	// Members always treat their own organization as maximally trusted
	byID[organizationID] = &models.Contact{
		OrganizationID: organizationID,
		EntityID:       organizationID,
		Category:       manager.Organization.Category,
		Standing:       models.StandingMaxFriendly,
	}

	reconciled := make([]*models.Contact, 0, len(byID))
	for _, contact := range byID {
		reconciled = append(reconciled, contact)
	}

	version := models.ContactsVersion(reconciled)

	if force || version != manager.ContactVersion {
		if err := s.storage.ReplaceContacts(ctx, organizationID, reconciled, version); err != nil {
			return "", s.failManager(ctx, organizationID, err)
		}
		slog.InfoContext(ctx, "Replaced organization contacts",
			"organization_id", organizationID,
			"contacts", len(reconciled),
			"version", version,
			"forced", force)
	} else {
		if err := s.storage.TouchManager(ctx, organizationID, time.Now().UTC()); err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "Organization contacts unchanged",
			"organization_id", organizationID,
			"version", version)
	}

	return version, nil
}

// failManager records an unexpected manager failure and returns the
// error so the task layer can retry
func (s *Service) failManager(ctx context.Context, organizationID int64, cause error) error {
	if err := s.storage.SetManagerError(ctx, organizationID, models.SyncErrorUnknown); err != nil {
		slog.ErrorContext(ctx, "Failed to record manager error", "organization_id", organizationID, "error", err)
	}
	return cause
}

func (s *Service) fetchOrganizationContacts(ctx context.Context, manager *models.SyncManager, token string) ([]contacts.Contact, error) {
	switch manager.Organization.Category {
	case entitymodels.CategoryAlliance:
		return s.esi.AllianceContacts(ctx, manager.OrganizationID, token)
	case entitymodels.CategoryCorporation:
		return s.esi.CorporationContacts(ctx, manager.OrganizationID, token)
	default:
		return nil, fmt.Errorf("organization %d has unsupported category %s",
			manager.OrganizationID, manager.Organization.Category)
	}
}

// UpdateCharacter brings one subscribed character's remote contacts in
// line with the manager's contact store. Returns whether the subscription
// still exists afterwards. Authorization failures and a standing below
// the threshold terminate the subscription and notify the user; remote
// failures propagate so the task layer can retry.
func (s *Service) UpdateCharacter(ctx context.Context, characterID int64, force bool) (bool, error) {
	character, err := s.storage.GetCharacter(ctx, characterID)
	if err != nil {
		return false, fmt.Errorf("failed to load synced character %d: %w", characterID, err)
	}

	manager, err := s.storage.GetManager(ctx, character.OrganizationID)
	if err != nil {
		return false, fmt.Errorf("failed to load manager %d: %w", character.OrganizationID, err)
	}

	allowed, err := s.permissions.HasCapability(character.UserID, permissions.CapabilitySyncCharacter)
	if err != nil {
		return false, s.failCharacter(ctx, characterID, fmt.Errorf("failed to check capability: %w", err))
	}
	if !allowed {
		s.deactivateCharacter(ctx, character,
			"Contact sync deactivated",
			"Your character is no longer synced because your permission to sync contacts was revoked.")
		return false, nil
	}

	// Idempotence fast path, no remote calls when already in sync
	if !force && character.ContactVersion == manager.ContactVersion {
		slog.DebugContext(ctx, "Character contacts already current",
			"character_id", characterID,
			"version", character.ContactVersion)
		return true, nil
	}

	token, err := s.tokens.ValidToken(ctx, character.UserID, characterID,
		models.ScopeReadCharacterContacts, models.ScopeWriteCharacterContacts)
	if err != nil {
		switch {
		case errors.Is(err, authservices.ErrTokenInvalid):
			s.deactivateCharacter(ctx, character,
				"Contact sync deactivated",
				"Your character is no longer synced because its token is invalid. Please re-register the character to restore syncing.")
			return false, nil
		case errors.Is(err, authservices.ErrTokenExpired):
			s.deactivateCharacter(ctx, character,
				"Contact sync deactivated",
				"Your character is no longer synced because its token has expired. Please re-register the character to restore syncing.")
			return false, nil
		default:
			return false, s.failCharacter(ctx, characterID, fmt.Errorf("failed to obtain token: %w", err))
		}
	}

	ownership, err := s.ownerships.GetOwnership(ctx, characterID)
	if err != nil {
		return false, s.failCharacter(ctx, characterID, fmt.Errorf("failed to load ownership: %w", err))
	}

	stored, err := s.storage.Contacts(ctx, character.OrganizationID)
	if err != nil {
		return false, s.failCharacter(ctx, characterID, fmt.Errorf("failed to load contact store: %w", err))
	}

	standing := EffectiveStanding(stored, ownership.Character)
	if standing < s.settings.MinStanding {
		s.deactivateCharacter(ctx, character,
			"Contact sync deactivated",
			fmt.Sprintf("Your character is no longer synced because its standing with the organization dropped to %.1f, below the required minimum of %.1f.",
				standing, s.settings.MinStanding))
		return false, nil
	}

	if err := s.replaceCharacterContacts(ctx, characterID, token, stored); err != nil {
		return false, s.failCharacter(ctx, characterID, err)
	}

	if err := s.storage.CompleteCharacterSync(ctx, characterID, manager.ContactVersion, time.Now().UTC()); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Synced character contacts",
		"character_id", characterID,
		"organization_id", character.OrganizationID,
		"version", manager.ContactVersion)

	return true, nil
}

// failCharacter records an unexpected character failure and returns the
// error so the task layer can retry. The subscription is kept.
func (s *Service) failCharacter(ctx context.Context, characterID int64, cause error) error {
	if err := s.storage.SetCharacterError(ctx, characterID, models.SyncErrorUnknown); err != nil {
		slog.ErrorContext(ctx, "Failed to record character error", "character_id", characterID, "error", err)
	}
	return cause
}

// deactivateCharacter terminates a subscription and tells the user why.
// The notification is best-effort, the deletion is not.
func (s *Service) deactivateCharacter(ctx context.Context, character *models.SyncedCharacter, title, message string) {
	if err := s.notifier.Notify(ctx, character.UserID, title, message, notifmodels.LevelWarning); err != nil {
		slog.ErrorContext(ctx, "Failed to notify user about deactivation",
			"character_id", character.CharacterID,
			"user_id", character.UserID,
			"error", err)
	}

	if err := s.storage.DeleteCharacter(ctx, character.CharacterID); err != nil {
		slog.ErrorContext(ctx, "Failed to delete synced character",
			"character_id", character.CharacterID,
			"error", err)
		return
	}

	slog.InfoContext(ctx, "Deactivated character sync",
		"character_id", character.CharacterID,
		"organization_id", character.OrganizationID,
		"reason", message)
}

// replaceCharacterContacts performs the remote replacement protocol: read
// the current remote list, delete it in batches, then write the stored
// contacts back grouped by standing. No verification re-read afterwards.
func (s *Service) replaceCharacterContacts(ctx context.Context, characterID int64, token string, stored []*models.Contact) error {
	current, err := s.esi.CharacterContacts(ctx, characterID, token)
	if err != nil {
		return fmt.Errorf("failed to fetch character contacts: %w", err)
	}

	if s.settings.ReplaceContacts {
		currentIDs := make([]int64, 0, len(current))
		for _, contact := range current {
			currentIDs = append(currentIDs, contact.ContactID)
		}
		for _, batch := range chunkIDs(currentIDs, contacts.MaxIDsPerDelete) {
			if err := s.esi.DeleteCharacterContacts(ctx, characterID, batch, token); err != nil {
				return fmt.Errorf("failed to delete character contacts: %w", err)
			}
		}
	}

	grouped := GroupByStanding(stored, characterID)

	standings := make([]float64, 0, len(grouped))
	for standing := range grouped {
		standings = append(standings, standing)
	}
	sort.Float64s(standings)

	for _, standing := range standings {
		for _, batch := range chunkIDs(grouped[standing], contacts.MaxIDsPerPost) {
			if err := s.esi.PostCharacterContacts(ctx, characterID, batch, standing, token); err != nil {
				return fmt.Errorf("failed to post character contacts: %w", err)
			}
		}
	}

	return nil
}

// EnableCharacterSync subscribes one of the user's characters to the
// organization's contact sync after checking capability, token and
// standing eligibility
func (s *Service) EnableCharacterSync(ctx context.Context, userID string, characterID, organizationID int64) (*models.SyncedCharacter, error) {
	ownership, err := s.ownerships.GetOwnership(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ownership of character %d: %w", characterID, err)
	}
	if ownership.UserID != userID {
		return nil, ErrNotAuthorized
	}

	allowed, err := s.permissions.HasCapability(userID, permissions.CapabilitySyncCharacter)
	if err != nil {
		return nil, fmt.Errorf("failed to check capability: %w", err)
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	manager, err := s.storage.GetManager(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load manager %d: %w", organizationID, err)
	}

	if _, err := s.tokens.ValidToken(ctx, userID, characterID,
		models.ScopeReadCharacterContacts, models.ScopeWriteCharacterContacts); err != nil {
		if errors.Is(err, authservices.ErrTokenInvalid) || errors.Is(err, authservices.ErrTokenExpired) {
			return nil, ErrTokenRequired
		}
		return nil, fmt.Errorf("failed to obtain token for character %d: %w", characterID, err)
	}

	stored, err := s.storage.Contacts(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact store: %w", err)
	}
	if standing := EffectiveStanding(stored, ownership.Character); standing < s.settings.MinStanding {
		return nil, ErrStandingTooLow
	}

	character := &models.SyncedCharacter{
		CharacterID:    characterID,
		UserID:         userID,
		OrganizationID: manager.OrganizationID,
		LastError:      models.SyncErrorNone,
	}
	if err := s.storage.SaveCharacter(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to store synced character: %w", err)
	}

	slog.InfoContext(ctx, "Enabled character sync",
		"character_id", characterID,
		"organization_id", organizationID,
		"user_id", userID)

	return character, nil
}

// DisableCharacterSync removes the user's subscription for the character
func (s *Service) DisableCharacterSync(ctx context.Context, userID string, characterID int64) error {
	character, err := s.storage.GetCharacter(ctx, characterID)
	if err != nil {
		return fmt.Errorf("failed to load synced character %d: %w", characterID, err)
	}
	if character.UserID != userID {
		return ErrNotAuthorized
	}

	if err := s.storage.DeleteCharacter(ctx, characterID); err != nil {
		return fmt.Errorf("failed to delete synced character %d: %w", characterID, err)
	}

	slog.InfoContext(ctx, "Disabled character sync",
		"character_id", characterID,
		"user_id", userID)
	return nil
}

// EffectiveStanding resolves a character's standing with the organization
// by longest match: an exact contact for the character itself, else the
// character's corporation, else its alliance, else neutral 0.0
func EffectiveStanding(stored []*models.Contact, character authmodels.EveCharacter) float64 {
	byID := make(map[int64]float64, len(stored))
	for _, contact := range stored {
		byID[contact.EntityID] = contact.Standing
	}

	if standing, ok := byID[character.CharacterID]; ok {
		return standing
	}
	if standing, ok := byID[character.CorporationID]; ok {
		return standing
	}
	if character.AllianceID != 0 {
		if standing, ok := byID[character.AllianceID]; ok {
			return standing
		}
	}
	return 0.0
}

// GroupByStanding partitions the contact ids by standing value so each
// bucket can be pushed with one standing per write call. The synced
// character's own id is excluded, ESI rejects a character as its own
// contact.
func GroupByStanding(stored []*models.Contact, characterID int64) map[float64][]int64 {
	grouped := make(map[float64][]int64)
	for _, contact := range stored {
		if contact.EntityID == characterID {
			continue
		}
		grouped[contact.Standing] = append(grouped[contact.Standing], contact.EntityID)
	}

	for _, ids := range grouped {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	return grouped
}

// chunkIDs splits ids into batches of at most size elements
func chunkIDs(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}

	var batches [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
