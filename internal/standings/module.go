package standings

import (
	"context"
	"log/slog"

	authservices "go-standings/internal/auth/services"
	entityservices "go-standings/internal/eveentity/services"
	warservices "go-standings/internal/evewars/services"
	notifservices "go-standings/internal/notifications/services"
	"go-standings/internal/standings/routes"
	"go-standings/internal/standings/services"
	"go-standings/pkg/database"
	"go-standings/pkg/evegateway"
	"go-standings/pkg/module"
	"go-standings/pkg/permissions"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module represents the standings module
type Module struct {
	*module.BaseModule
	service    *services.Service
	repository *services.Repository
	routes     *routes.Module
}

// NewModule creates a new standings module instance
func NewModule(
	mongodb *database.MongoDB,
	redis *database.Redis,
	eveClient *evegateway.Client,
	warService *warservices.Service,
	entityService *entityservices.Service,
	authRepository *authservices.Repository,
	tokenService *authservices.TokenService,
	permissionService *permissions.Service,
	notificationService *notifservices.Service,
	dispatcher routes.Dispatcher,
) *Module {
	repository := services.NewRepository(mongodb)
	service := services.NewService(
		repository,
		eveClient.Contacts,
		warService,
		entityService,
		tokenService,
		permissionService,
		notificationService,
		authRepository,
		services.SettingsFromEnv(),
	)

	m := &Module{
		BaseModule: module.NewBaseModule("standings", mongodb, redis),
		service:    service,
		repository: repository,
		routes:     routes.NewModule(service, repository, dispatcher),
	}

	slog.Info("Standings module initialized", "name", m.Name())
	return m
}

// Service exposes the sync service to the scheduler
func (m *Module) Service() *services.Service {
	return m.service
}

// Routes sets up the standings module HTTP routes
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// RegisterUnifiedRoutes registers all standings routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Standings unified routes registered", "basePath", basePath)
}

// CreateIndexes creates the module's database indexes
func (m *Module) CreateIndexes(ctx context.Context) error {
	return m.repository.CreateIndexes(ctx)
}
