package routes

import (
	"context"
	"errors"

	"go-standings/internal/standings/dto"
	"go-standings/internal/standings/models"
	"go-standings/internal/standings/services"

	"github.com/danielgtaylor/huma/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dispatcher enqueues asynchronous sync tasks
type Dispatcher interface {
	EnqueueManagerSync(organizationID int64, force bool, notifyUserID string) error
	EnqueueCharacterSync(characterID int64, force bool) error
}

// Module represents the standings routes module
type Module struct {
	service    *services.Service
	repository *services.Repository
	dispatcher Dispatcher
}

// NewModule creates a new standings routes module
func NewModule(service *services.Service, repository *services.Repository, dispatcher Dispatcher) *Module {
	return &Module{
		service:    service,
		repository: repository,
		dispatcher: dispatcher,
	}
}

// RegisterUnifiedRoutes registers all standings routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "standings-get-status",
		Method:      "GET",
		Path:        basePath + "/status",
		Summary:     "Get standings module status",
		Tags:        []string{"Module Status"},
	}, func(ctx context.Context, input *struct{}) (*dto.StatusOutput, error) {
		return m.getStatus(ctx)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-list-managers",
		Method:      "GET",
		Path:        basePath + "/managers",
		Summary:     "List sync managers",
		Description: "Returns all registered organization sync managers with their sync state.",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *struct{}) (*dto.ManagerListOutput, error) {
		return m.listManagers(ctx)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-create-manager",
		Method:      "POST",
		Path:        basePath + "/managers",
		Summary:     "Register a sync manager",
		Description: "Registers contact syncing for an organization using one of the user's characters as its ESI credential.",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *dto.CreateManagerInput) (*dto.ManagerOutput, error) {
		return m.createManager(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-get-manager",
		Method:      "GET",
		Path:        basePath + "/managers/{organization_id}",
		Summary:     "Get one sync manager",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *dto.GetManagerInput) (*dto.ManagerOutput, error) {
		return m.getManager(ctx, input.OrganizationID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-trigger-manager-sync",
		Method:      "POST",
		Path:        basePath + "/managers/{organization_id}/sync",
		Summary:     "Trigger an organization sync",
		Description: "Enqueues an asynchronous organization sync, which fans out character syncs for stale subscriptions.",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *dto.TriggerManagerSyncInput) (*dto.SyncTriggeredOutput, error) {
		return m.triggerManagerSync(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-trigger-character-sync",
		Method:      "POST",
		Path:        basePath + "/characters/{character_id}/sync",
		Summary:     "Trigger a character sync",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *dto.TriggerCharacterSyncInput) (*dto.SyncTriggeredOutput, error) {
		return m.triggerCharacterSync(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-enable-character-sync",
		Method:      "PUT",
		Path:        basePath + "/characters/{character_id}",
		Summary:     "Subscribe a character to contact sync",
		Description: "Opts one of the user's characters into contact syncing with the organization, subject to permission, token and standing checks.",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *dto.EnableCharacterSyncInput) (*dto.CharacterOutput, error) {
		return m.enableCharacterSync(ctx, input)
	})

	huma.Register(api, huma.Operation{
		OperationID: "standings-disable-character-sync",
		Method:      "DELETE",
		Path:        basePath + "/characters/{character_id}",
		Summary:     "Unsubscribe a character from contact sync",
		Tags:        []string{"Standings"},
	}, func(ctx context.Context, input *dto.DisableCharacterSyncInput) (*struct{}, error) {
		return m.disableCharacterSync(ctx, input)
	})
}

func (m *Module) getStatus(ctx context.Context) (*dto.StatusOutput, error) {
	managers, err := m.service.ListManagers(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to retrieve module status", err)
	}

	return &dto.StatusOutput{Body: dto.ModuleStatus{
		Module:   "standings",
		Status:   "healthy",
		Managers: len(managers),
	}}, nil
}

func (m *Module) listManagers(ctx context.Context) (*dto.ManagerListOutput, error) {
	managers, err := m.service.ListManagers(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to retrieve sync managers", err)
	}

	statuses := make([]dto.ManagerStatus, 0, len(managers))
	for _, manager := range managers {
		status, err := m.managerStatus(ctx, manager)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to retrieve manager state", err)
		}
		statuses = append(statuses, status)
	}

	return &dto.ManagerListOutput{Body: statuses}, nil
}

func (m *Module) createManager(ctx context.Context, input *dto.CreateManagerInput) (*dto.ManagerOutput, error) {
	if err := input.Body.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity("Invalid request body", err)
	}

	manager, err := m.service.CreateManager(ctx, input.Body.UserID, input.Body.CharacterID, input.Body.OrganizationID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return nil, huma.Error403Forbidden("Not authorized to operate a sync manager for this organization")
		case errors.Is(err, services.ErrTokenRequired):
			return nil, huma.Error403Forbidden("No valid ESI token with the required scopes")
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, huma.Error404NotFound("Character is not registered")
		default:
			return nil, huma.Error500InternalServerError("Failed to register sync manager", err)
		}
	}

	status, err := m.managerStatus(ctx, manager)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to retrieve manager state", err)
	}
	return &dto.ManagerOutput{Body: status}, nil
}

func (m *Module) getManager(ctx context.Context, organizationID int64) (*dto.ManagerOutput, error) {
	manager, err := m.service.GetManager(ctx, organizationID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, huma.Error404NotFound("No sync manager for this organization")
		}
		return nil, huma.Error500InternalServerError("Failed to retrieve sync manager", err)
	}

	status, err := m.managerStatus(ctx, manager)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to retrieve manager state", err)
	}
	return &dto.ManagerOutput{Body: status}, nil
}

func (m *Module) triggerManagerSync(ctx context.Context, input *dto.TriggerManagerSyncInput) (*dto.SyncTriggeredOutput, error) {
	if _, err := m.service.GetManager(ctx, input.OrganizationID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, huma.Error404NotFound("No sync manager for this organization")
		}
		return nil, huma.Error500InternalServerError("Failed to retrieve sync manager", err)
	}

	if err := m.dispatcher.EnqueueManagerSync(input.OrganizationID, input.Body.Force, input.Body.NotifyUserID); err != nil {
		return nil, huma.Error500InternalServerError("Failed to enqueue sync task", err)
	}

	out := &dto.SyncTriggeredOutput{}
	out.Body.Enqueued = true
	out.Body.Task = "manager_sync"
	return out, nil
}

func (m *Module) triggerCharacterSync(ctx context.Context, input *dto.TriggerCharacterSyncInput) (*dto.SyncTriggeredOutput, error) {
	if _, err := m.repository.GetCharacter(ctx, input.CharacterID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, huma.Error404NotFound("Character is not subscribed to contact sync")
		}
		return nil, huma.Error500InternalServerError("Failed to retrieve synced character", err)
	}

	if err := m.dispatcher.EnqueueCharacterSync(input.CharacterID, input.Body.Force); err != nil {
		return nil, huma.Error500InternalServerError("Failed to enqueue sync task", err)
	}

	out := &dto.SyncTriggeredOutput{}
	out.Body.Enqueued = true
	out.Body.Task = "character_sync"
	return out, nil
}

func (m *Module) enableCharacterSync(ctx context.Context, input *dto.EnableCharacterSyncInput) (*dto.CharacterOutput, error) {
	if err := input.Body.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity("Invalid request body", err)
	}

	character, err := m.service.EnableCharacterSync(ctx, input.Body.UserID, input.CharacterID, input.Body.OrganizationID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return nil, huma.Error403Forbidden("Not authorized to sync this character")
		case errors.Is(err, services.ErrTokenRequired):
			return nil, huma.Error403Forbidden("No valid ESI token with the required scopes")
		case errors.Is(err, services.ErrStandingTooLow):
			return nil, huma.Error403Forbidden("Character standing is below the required minimum")
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, huma.Error404NotFound("Character or sync manager not found")
		default:
			return nil, huma.Error500InternalServerError("Failed to enable character sync", err)
		}
	}

	// First sync runs asynchronously right after opt-in
	if err := m.dispatcher.EnqueueCharacterSync(character.CharacterID, true); err != nil {
		return nil, huma.Error500InternalServerError("Failed to enqueue initial sync", err)
	}

	return &dto.CharacterOutput{Body: dto.CharacterStatusFrom(character)}, nil
}

func (m *Module) disableCharacterSync(ctx context.Context, input *dto.DisableCharacterSyncInput) (*struct{}, error) {
	err := m.service.DisableCharacterSync(ctx, input.UserID, input.CharacterID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return nil, huma.Error403Forbidden("Not authorized to unsubscribe this character")
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, huma.Error404NotFound("Character is not subscribed to contact sync")
		default:
			return nil, huma.Error500InternalServerError("Failed to disable character sync", err)
		}
	}
	return &struct{}{}, nil
}

func (m *Module) managerStatus(ctx context.Context, manager *models.SyncManager) (dto.ManagerStatus, error) {
	contactCount, err := m.repository.CountContacts(ctx, manager.OrganizationID)
	if err != nil {
		return dto.ManagerStatus{}, err
	}

	characters, err := m.repository.ListCharacters(ctx, manager.OrganizationID)
	if err != nil {
		return dto.ManagerStatus{}, err
	}

	return dto.ManagerStatus{
		OrganizationID:   manager.OrganizationID,
		OrganizationName: manager.Organization.Name,
		Category:         string(manager.Organization.Category),
		HasCredential:    manager.Credential != nil,
		ContactVersion:   manager.ContactVersion,
		ContactCount:     contactCount,
		CharacterCount:   len(characters),
		LastSyncAt:       manager.LastSyncAt,
		LastError:        manager.LastError.String(),
	}, nil
}
