package services

import (
	"context"
	"time"

	"go-standings/internal/eveentity/models"
	"go-standings/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for EVE entities
type Repository struct {
	mongodb    *database.MongoDB
	collection *mongo.Collection
}

// NewRepository creates a new entity repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		collection: mongodb.Database.Collection(models.EveEntityCollection),
	}
}

// GetByID retrieves an entity by its id
func (r *Repository) GetByID(ctx context.Context, entityID int64) (*models.EveEntity, error) {
	var entity models.EveEntity
	err := r.collection.FindOne(ctx, bson.M{"entity_id": entityID}).Decode(&entity)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Upsert creates the entity if it does not exist yet. The category is only
// written on insert, existing records keep theirs.
func (r *Repository) Upsert(ctx context.Context, entity *models.EveEntity) error {
	now := time.Now().UTC()

	filter := bson.M{"entity_id": entity.ID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"entity_id":  entity.ID,
			"category":   entity.Category,
			"name":       entity.Name,
			"created_at": now,
		},
		"$set": bson.M{"updated_at": now},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// ListWithoutName returns ids of entities that still need a name backfill
func (r *Repository) ListWithoutName(ctx context.Context, limit int64) ([]int64, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"name": ""},
		bson.M{"name": bson.M{"$exists": false}},
	}}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var entity models.EveEntity
		if err := cursor.Decode(&entity); err != nil {
			return nil, err
		}
		ids = append(ids, entity.ID)
	}

	return ids, cursor.Err()
}

// SetName stores the resolved name and category of an entity
func (r *Repository) SetName(ctx context.Context, entityID int64, name string, category models.Category) error {
	update := bson.M{"$set": bson.M{
		"name":       name,
		"category":   category,
		"updated_at": time.Now().UTC(),
	}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"entity_id": entityID}, update)
	return err
}

// CreateIndexes creates necessary database indexes for the entities collection
func (r *Repository) CreateIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "entity_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := r.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
