package permissions

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

// Capability identifies one guarded action in the service
type Capability struct {
	Resource string
	Action   string
}

var (
	// CapabilityOperateManager allows a user's character to be used as the
	// credential for fetching an organization's contacts
	CapabilityOperateManager = Capability{Resource: "standings.manager", Action: "operate"}

	// CapabilitySyncCharacter allows a user to subscribe own characters
	// to contact syncing
	CapabilitySyncCharacter = Capability{Resource: "standings.character", Action: "sync"}
)

// Model is a basic ACL model with role grouping, policies persist in MongoDB
const casbinModelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Service performs capability checks backed by a Casbin enforcer
type Service struct {
	enforcer *casbin.Enforcer
}

// NewService creates the permission service with a MongoDB policy adapter
func NewService(mongoClient *mongo.Client, dbName string) (*Service, error) {
	adapterConfig := &mongodbadapter.AdapterConfig{
		DatabaseName:   dbName,
		CollectionName: "casbin_policies",
	}

	adapter, err := mongodbadapter.NewAdapterByDB(mongoClient, adapterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin MongoDB adapter: %w", err)
	}

	model, err := casbinmodel.NewModelFromString(casbinModelText)
	if err != nil {
		return nil, fmt.Errorf("failed to build Casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(model, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}

	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load Casbin policies: %w", err)
	}

	slog.Info("Permission service initialized",
		"adapter", "mongodb",
		"collection", "casbin_policies")

	return &Service{enforcer: enforcer}, nil
}

// HasCapability reports whether the user may perform the capability
func (s *Service) HasCapability(userID string, capability Capability) (bool, error) {
	allowed, err := s.enforcer.Enforce(userID, capability.Resource, capability.Action)
	if err != nil {
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}

// Grant allows the user to perform the capability
func (s *Service) Grant(userID string, capability Capability) error {
	if _, err := s.enforcer.AddPolicy(userID, capability.Resource, capability.Action); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return nil
}

// Revoke removes the user's capability
func (s *Service) Revoke(userID string, capability Capability) error {
	if _, err := s.enforcer.RemovePolicy(userID, capability.Resource, capability.Action); err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return nil
}

// AddUserToGroup assigns the user to a policy group
func (s *Service) AddUserToGroup(userID, group string) error {
	if _, err := s.enforcer.AddGroupingPolicy(userID, group); err != nil {
		return fmt.Errorf("failed to add grouping policy: %w", err)
	}
	return nil
}
