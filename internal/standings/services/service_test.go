package services

import (
	"context"
	"errors"
	"testing"
	"time"

	authmodels "go-standings/internal/auth/models"
	authservices "go-standings/internal/auth/services"
	entitymodels "go-standings/internal/eveentity/models"
	warmodels "go-standings/internal/evewars/models"
	"go-standings/internal/standings/models"
	"go-standings/pkg/evegateway/contacts"
	"go-standings/pkg/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testOrgID     = int64(99000001)
	testManagerID = int64(1001)
	testMemberID  = int64(1002)
	testUserID    = "member-user"
	managerUserID = "manager-user"
)

type fakeStorage struct {
	managers     map[int64]*models.SyncManager
	contacts     map[int64][]*models.Contact
	characters   map[int64]*models.SyncedCharacter
	replaceCalls int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		managers:   make(map[int64]*models.SyncManager),
		contacts:   make(map[int64][]*models.Contact),
		characters: make(map[int64]*models.SyncedCharacter),
	}
}

func (f *fakeStorage) GetManager(ctx context.Context, organizationID int64) (*models.SyncManager, error) {
	manager, ok := f.managers[organizationID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return manager, nil
}

func (f *fakeStorage) ListManagers(ctx context.Context) ([]*models.SyncManager, error) {
	var managers []*models.SyncManager
	for _, manager := range f.managers {
		managers = append(managers, manager)
	}
	return managers, nil
}

func (f *fakeStorage) SaveManager(ctx context.Context, manager *models.SyncManager) error {
	f.managers[manager.OrganizationID] = manager
	return nil
}

func (f *fakeStorage) SetManagerError(ctx context.Context, organizationID int64, syncError models.SyncError) error {
	f.managers[organizationID].LastError = syncError
	return nil
}

func (f *fakeStorage) TouchManager(ctx context.Context, organizationID int64, now time.Time) error {
	manager := f.managers[organizationID]
	manager.LastError = models.SyncErrorNone
	manager.LastSyncAt = &now
	return nil
}

func (f *fakeStorage) Contacts(ctx context.Context, organizationID int64) ([]*models.Contact, error) {
	return f.contacts[organizationID], nil
}

func (f *fakeStorage) CountContacts(ctx context.Context, organizationID int64) (int64, error) {
	return int64(len(f.contacts[organizationID])), nil
}

func (f *fakeStorage) ReplaceContacts(ctx context.Context, organizationID int64, replacement []*models.Contact, version string) error {
	f.replaceCalls++
	f.contacts[organizationID] = replacement

	now := time.Now().UTC()
	manager := f.managers[organizationID]
	manager.ContactVersion = version
	manager.LastError = models.SyncErrorNone
	manager.LastSyncAt = &now
	return nil
}

func (f *fakeStorage) GetCharacter(ctx context.Context, characterID int64) (*models.SyncedCharacter, error) {
	character, ok := f.characters[characterID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return character, nil
}

func (f *fakeStorage) ListCharacters(ctx context.Context, organizationID int64) ([]*models.SyncedCharacter, error) {
	var result []*models.SyncedCharacter
	for _, character := range f.characters {
		if character.OrganizationID == organizationID {
			result = append(result, character)
		}
	}
	return result, nil
}

func (f *fakeStorage) StaleCharacters(ctx context.Context, organizationID int64, version string) ([]*models.SyncedCharacter, error) {
	var result []*models.SyncedCharacter
	for _, character := range f.characters {
		if character.OrganizationID == organizationID && character.ContactVersion != version {
			result = append(result, character)
		}
	}
	return result, nil
}

func (f *fakeStorage) SaveCharacter(ctx context.Context, character *models.SyncedCharacter) error {
	f.characters[character.CharacterID] = character
	return nil
}

func (f *fakeStorage) SetCharacterError(ctx context.Context, characterID int64, syncError models.SyncError) error {
	f.characters[characterID].LastError = syncError
	return nil
}

func (f *fakeStorage) CompleteCharacterSync(ctx context.Context, characterID int64, version string, now time.Time) error {
	character := f.characters[characterID]
	character.ContactVersion = version
	character.LastError = models.SyncErrorNone
	character.LastSyncAt = &now
	return nil
}

func (f *fakeStorage) DeleteCharacter(ctx context.Context, characterID int64) error {
	delete(f.characters, characterID)
	return nil
}

type postCall struct {
	ids      []int64
	standing float64
}

type fakeESI struct {
	orgContacts   []contacts.Contact
	remote        map[int64]map[int64]float64
	fetchCalls    int
	deleteBatches [][]int64
	postBatches   []postCall
	fetchErr      error
	postErr       error
}

func newFakeESI() *fakeESI {
	return &fakeESI{remote: make(map[int64]map[int64]float64)}
}

func (f *fakeESI) AllianceContacts(ctx context.Context, allianceID int64, token string) ([]contacts.Contact, error) {
	f.fetchCalls++
	return f.orgContacts, f.fetchErr
}

func (f *fakeESI) CorporationContacts(ctx context.Context, corporationID int64, token string) ([]contacts.Contact, error) {
	f.fetchCalls++
	return f.orgContacts, f.fetchErr
}

func (f *fakeESI) CharacterContacts(ctx context.Context, characterID int64, token string) ([]contacts.Contact, error) {
	f.fetchCalls++
	var result []contacts.Contact
	for contactID, standing := range f.remote[characterID] {
		result = append(result, contacts.Contact{ContactID: contactID, ContactType: "character", Standing: standing})
	}
	return result, nil
}

func (f *fakeESI) DeleteCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, token string) error {
	if len(contactIDs) > contacts.MaxIDsPerDelete {
		return errors.New("delete batch too large")
	}
	f.deleteBatches = append(f.deleteBatches, contactIDs)
	for _, id := range contactIDs {
		delete(f.remote[characterID], id)
	}
	return nil
}

func (f *fakeESI) PostCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, standing float64, token string) error {
	if f.postErr != nil {
		return f.postErr
	}
	if len(contactIDs) > contacts.MaxIDsPerPost {
		return errors.New("post batch too large")
	}
	f.postBatches = append(f.postBatches, postCall{ids: contactIDs, standing: standing})
	if f.remote[characterID] == nil {
		f.remote[characterID] = make(map[int64]float64)
	}
	for _, id := range contactIDs {
		f.remote[characterID][id] = standing
	}
	return nil
}

type fakeWars struct {
	targets []warmodels.WarParticipant
	err     error
}

func (f *fakeWars) ActiveWarTargets(ctx context.Context, organizationID int64) ([]warmodels.WarParticipant, error) {
	return f.targets, f.err
}

type fakeEntities struct{}

func (f *fakeEntities) GetOrCreate(ctx context.Context, entityID int64, category entitymodels.Category) (*entitymodels.EveEntity, error) {
	return &entitymodels.EveEntity{ID: entityID, Category: category}, nil
}

func (f *fakeEntities) GetOrCreateFromContact(ctx context.Context, contactID int64, contactType string) (*entitymodels.EveEntity, error) {
	category, err := entitymodels.CategoryFromContactType(contactType)
	if err != nil {
		return nil, err
	}
	return &entitymodels.EveEntity{ID: contactID, Category: category}, nil
}

type fakeTokens struct {
	token string
	err   error
	calls int
}

func (f *fakeTokens) ValidToken(ctx context.Context, userID string, characterID int64, scopes ...string) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakePermissions struct {
	operate bool
	sync    bool
}

func (f *fakePermissions) HasCapability(userID string, capability permissions.Capability) (bool, error) {
	switch capability {
	case permissions.CapabilityOperateManager:
		return f.operate, nil
	case permissions.CapabilitySyncCharacter:
		return f.sync, nil
	}
	return false, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID, title, message, level string) error {
	f.messages = append(f.messages, message)
	return nil
}

type fakeOwnerships struct {
	records map[int64]*authmodels.CharacterOwnership
}

func (f *fakeOwnerships) GetOwnership(ctx context.Context, characterID int64) (*authmodels.CharacterOwnership, error) {
	ownership, ok := f.records[characterID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return ownership, nil
}

type testEnv struct {
	storage    *fakeStorage
	esi        *fakeESI
	wars       *fakeWars
	tokens     *fakeTokens
	perms      *fakePermissions
	notifier   *fakeNotifier
	ownerships *fakeOwnerships
	service    *Service
}

func newTestEnv(settings Settings) *testEnv {
	env := &testEnv{
		storage:    newFakeStorage(),
		esi:        newFakeESI(),
		wars:       &fakeWars{},
		tokens:     &fakeTokens{token: "test-token"},
		perms:      &fakePermissions{operate: true, sync: true},
		notifier:   &fakeNotifier{},
		ownerships: &fakeOwnerships{records: make(map[int64]*authmodels.CharacterOwnership)},
	}
	env.service = NewService(
		env.storage,
		env.esi,
		env.wars,
		&fakeEntities{},
		env.tokens,
		env.perms,
		env.notifier,
		env.ownerships,
		settings,
	)
	return env
}

func defaultSettings() Settings {
	return Settings{MinStanding: 0.1, AddWarTargets: false, ReplaceContacts: true}
}

// seedManager registers an alliance sync manager with a valid credential
func (env *testEnv) seedManager() *models.SyncManager {
	manager := &models.SyncManager{
		OrganizationID: testOrgID,
		Organization:   entitymodels.EveEntity{ID: testOrgID, Category: entitymodels.CategoryAlliance},
		Credential: &authmodels.CharacterOwnership{
			UserID: managerUserID,
			Character: authmodels.EveCharacter{
				CharacterID:   testManagerID,
				CorporationID: 3001,
				AllianceID:    testOrgID,
			},
		},
	}
	env.storage.managers[testOrgID] = manager
	return manager
}

// seedMember subscribes a character in corporation 3002 of the alliance
func (env *testEnv) seedMember(allianceID int64) *models.SyncedCharacter {
	env.ownerships.records[testMemberID] = &authmodels.CharacterOwnership{
		UserID: testUserID,
		Character: authmodels.EveCharacter{
			CharacterID:   testMemberID,
			CorporationID: 3002,
			AllianceID:    allianceID,
		},
	}
	character := &models.SyncedCharacter{
		CharacterID:    testMemberID,
		UserID:         testUserID,
		OrganizationID: testOrgID,
	}
	env.storage.characters[testMemberID] = character
	return character
}

func TestUpdateManager_Idempotence(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	env.esi.orgContacts = []contacts.Contact{
		{ContactID: 2001, ContactType: "character", Standing: 5},
	}

	ctx := context.Background()

	first, err := env.service.UpdateManager(ctx, testOrgID, false)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, env.storage.replaceCalls)

	second, err := env.service.UpdateManager(ctx, testOrgID, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.storage.replaceCalls, "unchanged contacts must not be replaced again")
	assert.Equal(t, models.SyncErrorNone, env.storage.managers[testOrgID].LastError)
	assert.NotNil(t, env.storage.managers[testOrgID].LastSyncAt)
}

func TestUpdateManager_HashSensitivity(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	env.esi.orgContacts = []contacts.Contact{
		{ContactID: 2001, ContactType: "character", Standing: 5},
	}

	ctx := context.Background()

	first, err := env.service.UpdateManager(ctx, testOrgID, false)
	require.NoError(t, err)

	env.esi.orgContacts[0].Standing = -5
	second, err := env.service.UpdateManager(ctx, testOrgID, false)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, env.storage.replaceCalls)
}

func TestUpdateManager_Force(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()

	ctx := context.Background()

	_, err := env.service.UpdateManager(ctx, testOrgID, false)
	require.NoError(t, err)
	_, err = env.service.UpdateManager(ctx, testOrgID, true)
	require.NoError(t, err)

	assert.Equal(t, 2, env.storage.replaceCalls)
}

func TestUpdateManager_SelfStandingInvariant(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	// The remote list claims the organization dislikes itself
	env.esi.orgContacts = []contacts.Contact{
		{ContactID: testOrgID, ContactType: "alliance", Standing: -5},
		{ContactID: 2001, ContactType: "character", Standing: 5},
	}

	_, err := env.service.UpdateManager(context.Background(), testOrgID, false)
	require.NoError(t, err)

	var selfContacts []*models.Contact
	for _, contact := range env.storage.contacts[testOrgID] {
		if contact.EntityID == testOrgID {
			selfContacts = append(selfContacts, contact)
		}
	}
	require.Len(t, selfContacts, 1)
	assert.Equal(t, models.StandingMaxFriendly, selfContacts[0].Standing)
	assert.False(t, selfContacts[0].IsWarTarget)
}

func TestUpdateManager_WarTargetOverlay(t *testing.T) {
	settings := defaultSettings()
	settings.AddWarTargets = true
	env := newTestEnv(settings)
	env.seedManager()

	// The aggressor also appears in the remote list with a friendly standing
	env.esi.orgContacts = []contacts.Contact{
		{ContactID: 88000001, ContactType: "alliance", Standing: 5},
	}
	env.wars.targets = []warmodels.WarParticipant{
		{EntityID: 88000001, Category: entitymodels.CategoryAlliance},
	}

	_, err := env.service.UpdateManager(context.Background(), testOrgID, false)
	require.NoError(t, err)

	var target *models.Contact
	for _, contact := range env.storage.contacts[testOrgID] {
		if contact.EntityID == 88000001 {
			target = contact
		}
	}
	require.NotNil(t, target)
	assert.Equal(t, models.StandingMaxHostile, target.Standing, "overlay wins over the remote standing")
	assert.True(t, target.IsWarTarget)
}

func TestUpdateManager_SkipsUntrackedContactTypes(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	env.esi.orgContacts = []contacts.Contact{
		{ContactID: 500001, ContactType: "faction", Standing: 5},
		{ContactID: 2001, ContactType: "character", Standing: 5},
	}

	_, err := env.service.UpdateManager(context.Background(), testOrgID, false)
	require.NoError(t, err)

	for _, contact := range env.storage.contacts[testOrgID] {
		assert.NotEqual(t, int64(500001), contact.EntityID)
	}
}

func TestUpdateManager_AuthFailures(t *testing.T) {
	tests := []struct {
		name      string
		configure func(env *testEnv)
		wantError models.SyncError
	}{
		{
			name: "no credential character",
			configure: func(env *testEnv) {
				env.storage.managers[testOrgID].Credential = nil
			},
			wantError: models.SyncErrorNoCharacter,
		},
		{
			name: "capability revoked",
			configure: func(env *testEnv) {
				env.perms.operate = false
			},
			wantError: models.SyncErrorInsufficientPermissions,
		},
		{
			name: "token invalid",
			configure: func(env *testEnv) {
				env.tokens.err = authservices.ErrTokenInvalid
			},
			wantError: models.SyncErrorTokenInvalid,
		},
		{
			name: "token expired",
			configure: func(env *testEnv) {
				env.tokens.err = authservices.ErrTokenExpired
			},
			wantError: models.SyncErrorTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(defaultSettings())
			env.seedManager()
			tt.configure(env)

			version, err := env.service.UpdateManager(context.Background(), testOrgID, false)
			require.NoError(t, err, "auth failures are recorded, not raised")
			assert.Empty(t, version)
			assert.Equal(t, tt.wantError, env.storage.managers[testOrgID].LastError)
			assert.Equal(t, 0, env.storage.replaceCalls)
		})
	}
}

func TestUpdateManager_RemoteFailurePropagates(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	env.esi.fetchErr = errors.New("esi is down")

	_, err := env.service.UpdateManager(context.Background(), testOrgID, false)
	require.Error(t, err)
	assert.Equal(t, models.SyncErrorUnknown, env.storage.managers[testOrgID].LastError)
}

func TestUpdateCharacter_CorporationMatchScenario(t *testing.T) {
	env := newTestEnv(defaultSettings())
	manager := env.seedManager()
	manager.ContactVersion = "v1"
	env.seedMember(testOrgID)

	// Contact store {A:10 (the member's corporation), B:-10, C:5} plus
	// the synthetic self contact
	env.storage.contacts[testOrgID] = []*models.Contact{
		{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: 10},
		{EntityID: 2002, Category: entitymodels.CategoryCharacter, Standing: -10},
		{EntityID: 2003, Category: entitymodels.CategoryCharacter, Standing: 5},
		{EntityID: testOrgID, Category: entitymodels.CategoryAlliance, Standing: 10},
	}

	// Stale remote contact that must be wiped
	env.esi.remote[testMemberID] = map[int64]float64{5005: 2}

	active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
	require.NoError(t, err)
	assert.True(t, active)

	want := map[int64]float64{3002: 10, 2002: -10, 2003: 5, testOrgID: 10}
	assert.Equal(t, want, env.esi.remote[testMemberID])
	assert.Equal(t, "v1", env.storage.characters[testMemberID].ContactVersion)
	assert.Equal(t, models.SyncErrorNone, env.storage.characters[testMemberID].LastError)
}

func TestUpdateCharacter_AllianceStandingBelowThreshold(t *testing.T) {
	env := newTestEnv(defaultSettings())
	manager := env.seedManager()
	manager.ContactVersion = "v1"
	// Member belongs to a different alliance held at -10
	env.seedMember(88000001)

	env.storage.contacts[testOrgID] = []*models.Contact{
		{EntityID: 88000001, Category: entitymodels.CategoryAlliance, Standing: -10},
		{EntityID: testOrgID, Category: entitymodels.CategoryAlliance, Standing: 10},
	}

	active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
	require.NoError(t, err)
	assert.False(t, active)

	_, exists := env.storage.characters[testMemberID]
	assert.False(t, exists, "subscription must be deleted")
	assert.NotEmpty(t, env.notifier.messages, "user must be told why")
	assert.Empty(t, env.esi.postBatches, "no remote writes for an ineligible member")
}

func TestUpdateCharacter_EligibilityBoundary(t *testing.T) {
	tests := []struct {
		name     string
		standing float64
		active   bool
	}{
		{"at threshold counts as eligible", 0.1, true},
		{"below threshold is removed", 0.05, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(defaultSettings())
			manager := env.seedManager()
			manager.ContactVersion = "v1"
			env.seedMember(testOrgID)

			env.storage.contacts[testOrgID] = []*models.Contact{
				{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: tt.standing},
			}

			active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
			require.NoError(t, err)
			assert.Equal(t, tt.active, active)

			_, exists := env.storage.characters[testMemberID]
			assert.Equal(t, tt.active, exists)
		})
	}
}

func TestUpdateCharacter_FastPath(t *testing.T) {
	env := newTestEnv(defaultSettings())
	manager := env.seedManager()
	manager.ContactVersion = "v1"
	member := env.seedMember(testOrgID)
	member.ContactVersion = "v1"

	active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 0, env.tokens.calls, "no token lookup on the fast path")
	assert.Equal(t, 0, env.esi.fetchCalls, "no remote calls on the fast path")
}

func TestUpdateCharacter_TokenFailuresTerminate(t *testing.T) {
	for _, tokenErr := range []error{authservices.ErrTokenInvalid, authservices.ErrTokenExpired} {
		env := newTestEnv(defaultSettings())
		manager := env.seedManager()
		manager.ContactVersion = "v1"
		env.seedMember(testOrgID)
		env.tokens.err = tokenErr

		active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
		require.NoError(t, err)
		assert.False(t, active)

		_, exists := env.storage.characters[testMemberID]
		assert.False(t, exists)
		assert.NotEmpty(t, env.notifier.messages)
	}
}

func TestUpdateCharacter_CapabilityRevokedTerminates(t *testing.T) {
	env := newTestEnv(defaultSettings())
	manager := env.seedManager()
	manager.ContactVersion = "v1"
	member := env.seedMember(testOrgID)
	member.ContactVersion = "v1" // even an in-sync member is removed
	env.perms.sync = false

	active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
	require.NoError(t, err)
	assert.False(t, active)

	_, exists := env.storage.characters[testMemberID]
	assert.False(t, exists)
}

func TestUpdateCharacter_RemoteFailureKeepsSubscription(t *testing.T) {
	env := newTestEnv(defaultSettings())
	manager := env.seedManager()
	manager.ContactVersion = "v1"
	env.seedMember(testOrgID)

	env.storage.contacts[testOrgID] = []*models.Contact{
		{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: 10},
	}
	env.esi.postErr = errors.New("esi write failed")

	_, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
	require.Error(t, err, "remote failures must propagate for task retry")

	character, exists := env.storage.characters[testMemberID]
	require.True(t, exists, "subscription survives transient failures")
	assert.Equal(t, models.SyncErrorUnknown, character.LastError)
}

func TestUpdateCharacter_ChunkingCompleteness(t *testing.T) {
	env := newTestEnv(defaultSettings())
	manager := env.seedManager()
	manager.ContactVersion = "v1"
	env.seedMember(testOrgID)

	// 45 existing remote contacts force three delete batches
	remote := make(map[int64]float64, 45)
	for i := int64(0); i < 45; i++ {
		remote[10000+i] = 0
	}
	env.esi.remote[testMemberID] = remote

	// 130 target contacts at one standing force two write batches
	var stored []*models.Contact
	for i := int64(0); i < 130; i++ {
		stored = append(stored, &models.Contact{EntityID: 20000 + i, Category: entitymodels.CategoryCharacter, Standing: 5})
	}
	stored = append(stored, &models.Contact{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: 10})
	env.storage.contacts[testOrgID] = stored

	active, err := env.service.UpdateCharacter(context.Background(), testMemberID, false)
	require.NoError(t, err)
	assert.True(t, active)

	deleted := make(map[int64]int)
	for _, batch := range env.esi.deleteBatches {
		assert.LessOrEqual(t, len(batch), contacts.MaxIDsPerDelete)
		for _, id := range batch {
			deleted[id]++
		}
	}
	assert.Len(t, deleted, 45, "every existing contact covered by a delete batch")
	for id, count := range deleted {
		assert.Equal(t, 1, count, "contact %d deleted more than once", id)
	}

	written := make(map[int64]int)
	for _, batch := range env.esi.postBatches {
		assert.LessOrEqual(t, len(batch.ids), contacts.MaxIDsPerPost)
		for _, id := range batch.ids {
			written[id]++
		}
	}
	assert.Len(t, written, 131, "every target contact covered by a write batch")
}

func TestEffectiveStanding_FallbackOrder(t *testing.T) {
	stored := []*models.Contact{
		{EntityID: 1002, Standing: 3},     // character
		{EntityID: 3002, Standing: 7},     // corporation
		{EntityID: 88000001, Standing: 9}, // alliance
	}

	tests := []struct {
		name      string
		character authmodels.EveCharacter
		want      float64
	}{
		{
			name:      "character entry wins",
			character: authmodels.EveCharacter{CharacterID: 1002, CorporationID: 3002, AllianceID: 88000001},
			want:      3,
		},
		{
			name:      "corporation fallback",
			character: authmodels.EveCharacter{CharacterID: 1099, CorporationID: 3002, AllianceID: 88000001},
			want:      7,
		},
		{
			name:      "alliance fallback",
			character: authmodels.EveCharacter{CharacterID: 1099, CorporationID: 3099, AllianceID: 88000001},
			want:      9,
		},
		{
			name:      "neutral default",
			character: authmodels.EveCharacter{CharacterID: 1099, CorporationID: 3099, AllianceID: 0},
			want:      0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStanding(stored, tt.character))
		})
	}
}

func TestGroupByStanding(t *testing.T) {
	stored := []*models.Contact{
		{EntityID: 2001, Standing: 5},
		{EntityID: 2002, Standing: 5},
		{EntityID: 2003, Standing: -10},
		{EntityID: 1002, Standing: 5}, // the synced character itself
	}

	grouped := GroupByStanding(stored, 1002)

	assert.Equal(t, []int64{2001, 2002}, grouped[5])
	assert.Equal(t, []int64{2003}, grouped[-10])
	for _, ids := range grouped {
		assert.NotContains(t, ids, int64(1002))
	}
}

func TestChunkIDs(t *testing.T) {
	var ids []int64
	for i := int64(0); i < 45; i++ {
		ids = append(ids, i)
	}

	batches := chunkIDs(ids, 20)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 20)
	assert.Len(t, batches[1], 20)
	assert.Len(t, batches[2], 5)

	assert.Nil(t, chunkIDs(nil, 20))
}

func TestEnableCharacterSync(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	env.ownerships.records[testMemberID] = &authmodels.CharacterOwnership{
		UserID: testUserID,
		Character: authmodels.EveCharacter{
			CharacterID:   testMemberID,
			CorporationID: 3002,
			AllianceID:    testOrgID,
		},
	}
	env.storage.contacts[testOrgID] = []*models.Contact{
		{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: 10},
	}

	character, err := env.service.EnableCharacterSync(context.Background(), testUserID, testMemberID, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, testMemberID, character.CharacterID)
	assert.Empty(t, character.ContactVersion, "a fresh subscription starts stale")

	t.Run("wrong user", func(t *testing.T) {
		_, err := env.service.EnableCharacterSync(context.Background(), "someone-else", testMemberID, testOrgID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("standing too low", func(t *testing.T) {
		env.storage.contacts[testOrgID] = []*models.Contact{
			{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: -10},
		}
		_, err := env.service.EnableCharacterSync(context.Background(), testUserID, testMemberID, testOrgID)
		assert.ErrorIs(t, err, ErrStandingTooLow)
	})

	t.Run("no token", func(t *testing.T) {
		env.storage.contacts[testOrgID] = []*models.Contact{
			{EntityID: 3002, Category: entitymodels.CategoryCorporation, Standing: 10},
		}
		env.tokens.err = authservices.ErrTokenInvalid
		_, err := env.service.EnableCharacterSync(context.Background(), testUserID, testMemberID, testOrgID)
		assert.ErrorIs(t, err, ErrTokenRequired)
	})
}

func TestDisableCharacterSync(t *testing.T) {
	env := newTestEnv(defaultSettings())
	env.seedManager()
	env.seedMember(testOrgID)

	err := env.service.DisableCharacterSync(context.Background(), "someone-else", testMemberID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = env.service.DisableCharacterSync(context.Background(), testUserID, testMemberID)
	require.NoError(t, err)

	_, exists := env.storage.characters[testMemberID]
	assert.False(t, exists)
}
