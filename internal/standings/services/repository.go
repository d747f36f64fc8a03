package services

import (
	"context"
	"fmt"
	"time"

	"go-standings/internal/standings/models"
	"go-standings/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for managers, contacts and
// synced characters
type Repository struct {
	mongodb    *database.MongoDB
	managers   *mongo.Collection
	contacts   *mongo.Collection
	characters *mongo.Collection
}

// NewRepository creates a new standings repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		managers:   mongodb.Database.Collection(models.SyncManagerCollection),
		contacts:   mongodb.Database.Collection(models.ContactCollection),
		characters: mongodb.Database.Collection(models.SyncedCharacterCollection),
	}
}

// GetManager retrieves the sync manager of an organization
func (r *Repository) GetManager(ctx context.Context, organizationID int64) (*models.SyncManager, error) {
	var manager models.SyncManager
	err := r.managers.FindOne(ctx, bson.M{"organization_id": organizationID}).Decode(&manager)
	if err != nil {
		return nil, err
	}
	return &manager, nil
}

// ListManagers returns all sync managers
func (r *Repository) ListManagers(ctx context.Context) ([]*models.SyncManager, error) {
	cursor, err := r.managers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var managers []*models.SyncManager
	for cursor.Next(ctx) {
		var manager models.SyncManager
		if err := cursor.Decode(&manager); err != nil {
			return nil, err
		}
		managers = append(managers, &manager)
	}

	return managers, cursor.Err()
}

// SaveManager creates or updates a sync manager keyed by organization
func (r *Repository) SaveManager(ctx context.Context, manager *models.SyncManager) error {
	manager.UpdatedAt = time.Now().UTC()
	if manager.CreatedAt.IsZero() {
		manager.CreatedAt = manager.UpdatedAt
	}

	filter := bson.M{"organization_id": manager.OrganizationID}
	update := bson.M{"$set": manager}

	_, err := r.managers.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// DeleteManager removes a manager together with its contacts and
// subscriptions in one transaction
func (r *Repository) DeleteManager(ctx context.Context, organizationID int64) error {
	session, err := r.mongodb.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"organization_id": organizationID}
		if _, err := r.contacts.DeleteMany(sc, filter); err != nil {
			return nil, err
		}
		if _, err := r.characters.DeleteMany(sc, filter); err != nil {
			return nil, err
		}
		if _, err := r.managers.DeleteOne(sc, filter); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete manager %d: %w", organizationID, err)
	}

	return nil
}

// SetManagerError records the outcome of a manager sync attempt
func (r *Repository) SetManagerError(ctx context.Context, organizationID int64, syncError models.SyncError) error {
	update := bson.M{"$set": bson.M{
		"last_error": syncError,
		"updated_at": time.Now().UTC(),
	}}
	_, err := r.managers.UpdateOne(ctx, bson.M{"organization_id": organizationID}, update)
	return err
}

// TouchManager stamps a successful sync that detected no contact change
func (r *Repository) TouchManager(ctx context.Context, organizationID int64, now time.Time) error {
	update := bson.M{"$set": bson.M{
		"last_error":   models.SyncErrorNone,
		"last_sync_at": now,
		"updated_at":   now,
	}}
	_, err := r.managers.UpdateOne(ctx, bson.M{"organization_id": organizationID}, update)
	return err
}

// Contacts returns the full reconciled contact list of an organization
func (r *Repository) Contacts(ctx context.Context, organizationID int64) ([]*models.Contact, error) {
	cursor, err := r.contacts.Find(ctx, bson.M{"organization_id": organizationID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var contacts []*models.Contact
	for cursor.Next(ctx) {
		var contact models.Contact
		if err := cursor.Decode(&contact); err != nil {
			return nil, err
		}
		contacts = append(contacts, &contact)
	}

	return contacts, cursor.Err()
}

// CountContacts returns the size of an organization's contact list
func (r *Repository) CountContacts(ctx context.Context, organizationID int64) (int64, error) {
	return r.contacts.CountDocuments(ctx, bson.M{"organization_id": organizationID})
}

// ReplaceContacts replaces an organization's full contact list and
// stores the new version hash in one transaction, so readers observe
// either the old set or the new set, never a mix
func (r *Repository) ReplaceContacts(ctx context.Context, organizationID int64, contacts []*models.Contact, version string) error {
	now := time.Now().UTC()

	session, err := r.mongodb.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.contacts.DeleteMany(sc, bson.M{"organization_id": organizationID}); err != nil {
			return nil, err
		}

		if len(contacts) > 0 {
			docs := make([]interface{}, len(contacts))
			for i, contact := range contacts {
				contact.OrganizationID = organizationID
				docs[i] = contact
			}
			if _, err := r.contacts.InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}

		update := bson.M{"$set": bson.M{
			"contact_version": version,
			"last_error":      models.SyncErrorNone,
			"last_sync_at":    now,
			"updated_at":      now,
		}}
		if _, err := r.managers.UpdateOne(sc, bson.M{"organization_id": organizationID}, update); err != nil {
			return nil, err
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace contacts of organization %d: %w", organizationID, err)
	}

	return nil
}

// GetCharacter retrieves one synced character by character id
func (r *Repository) GetCharacter(ctx context.Context, characterID int64) (*models.SyncedCharacter, error) {
	var character models.SyncedCharacter
	err := r.characters.FindOne(ctx, bson.M{"character_id": characterID}).Decode(&character)
	if err != nil {
		return nil, err
	}
	return &character, nil
}

// ListCharacters returns all synced characters of an organization
func (r *Repository) ListCharacters(ctx context.Context, organizationID int64) ([]*models.SyncedCharacter, error) {
	return r.findCharacters(ctx, bson.M{"organization_id": organizationID})
}

// StaleCharacters returns the organization's synced characters whose
// contact version differs from the manager's current version
func (r *Repository) StaleCharacters(ctx context.Context, organizationID int64, version string) ([]*models.SyncedCharacter, error) {
	filter := bson.M{
		"organization_id": organizationID,
		"contact_version": bson.M{"$ne": version},
	}
	return r.findCharacters(ctx, filter)
}

func (r *Repository) findCharacters(ctx context.Context, filter bson.M) ([]*models.SyncedCharacter, error) {
	cursor, err := r.characters.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var characters []*models.SyncedCharacter
	for cursor.Next(ctx) {
		var character models.SyncedCharacter
		if err := cursor.Decode(&character); err != nil {
			return nil, err
		}
		characters = append(characters, &character)
	}

	return characters, cursor.Err()
}

// SaveCharacter creates or updates a synced character
func (r *Repository) SaveCharacter(ctx context.Context, character *models.SyncedCharacter) error {
	character.UpdatedAt = time.Now().UTC()
	if character.CreatedAt.IsZero() {
		character.CreatedAt = character.UpdatedAt
	}

	filter := bson.M{"character_id": character.CharacterID}
	update := bson.M{"$set": character}

	_, err := r.characters.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// SetCharacterError records the outcome of a character sync attempt
func (r *Repository) SetCharacterError(ctx context.Context, characterID int64, syncError models.SyncError) error {
	update := bson.M{"$set": bson.M{
		"last_error": syncError,
		"updated_at": time.Now().UTC(),
	}}
	_, err := r.characters.UpdateOne(ctx, bson.M{"character_id": characterID}, update)
	return err
}

// CompleteCharacterSync stamps a successful character sync with the
// contact version it brought the remote list up to
func (r *Repository) CompleteCharacterSync(ctx context.Context, characterID int64, version string, now time.Time) error {
	update := bson.M{"$set": bson.M{
		"contact_version": version,
		"last_error":      models.SyncErrorNone,
		"last_sync_at":    now,
		"updated_at":      now,
	}}
	_, err := r.characters.UpdateOne(ctx, bson.M{"character_id": characterID}, update)
	return err
}

// DeleteCharacter removes a synced character subscription
func (r *Repository) DeleteCharacter(ctx context.Context, characterID int64) error {
	_, err := r.characters.DeleteOne(ctx, bson.M{"character_id": characterID})
	return err
}

// CreateIndexes creates necessary database indexes for all standings collections
func (r *Repository) CreateIndexes(ctx context.Context) error {
	_, err := r.managers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "organization_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = r.contacts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "standing", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = r.characters.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "character_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "contact_version", Value: 1}},
		},
	})
	return err
}
