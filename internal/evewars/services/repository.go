package services

import (
	"context"
	"fmt"
	"time"

	"go-standings/internal/evewars/models"
	"go-standings/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for wars
type Repository struct {
	mongodb    *database.MongoDB
	collection *mongo.Collection
}

// NewRepository creates a new war repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		collection: mongodb.Database.Collection(models.EveWarCollection),
	}
}

// GetWar retrieves one war by id
func (r *Repository) GetWar(ctx context.Context, warID int64) (*models.EveWar, error) {
	var war models.EveWar
	err := r.collection.FindOne(ctx, bson.M{"war_id": warID}).Decode(&war)
	if err != nil {
		return nil, err
	}
	return &war, nil
}

// ReplaceWar deletes any existing record with the war's id and recreates
// it inside one transaction (wholesale replace, allies included)
func (r *Repository) ReplaceWar(ctx context.Context, war *models.EveWar) error {
	war.UpdatedAt = time.Now().UTC()

	session, err := r.mongodb.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.DeleteOne(sc, bson.M{"war_id": war.ID}); err != nil {
			return nil, err
		}
		if _, err := r.collection.InsertOne(sc, war); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace war %d: %w", war.ID, err)
	}

	return nil
}

// ActiveWars returns all wars that are running at the given time
func (r *Repository) ActiveWars(ctx context.Context, now time.Time) ([]*models.EveWar, error) {
	filter := bson.M{
		"started": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"finished": nil},
			bson.M{"finished": bson.M{"$exists": false}},
			bson.M{"finished": bson.M{"$gt": now}},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var wars []*models.EveWar
	for cursor.Next(ctx) {
		var war models.EveWar
		if err := cursor.Decode(&war); err != nil {
			return nil, err
		}
		wars = append(wars, &war)
	}

	return wars, cursor.Err()
}

// FinishedWarIDs returns the ids of locally known wars that have ended
func (r *Repository) FinishedWarIDs(ctx context.Context, now time.Time) (map[int64]bool, error) {
	filter := bson.M{"finished": bson.M{"$ne": nil, "$lte": now}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	finished := make(map[int64]bool)
	for cursor.Next(ctx) {
		var war models.EveWar
		if err := cursor.Decode(&war); err != nil {
			return nil, err
		}
		finished[war.ID] = true
	}

	return finished, cursor.Err()
}

// Prune keeps only the newest keep wars by id and deletes the rest.
// The remote war list contains tens of thousands of historical entries
// irrelevant to active-target computation.
func (r *Repository) Prune(ctx context.Context, keep int64) (int64, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "war_id", Value: -1}}).
		SetSkip(keep - 1)

	var boundary models.EveWar
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&boundary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil // Fewer than keep wars stored
		}
		return 0, err
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"war_id": bson.M{"$lt": boundary.ID}})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

// CreateIndexes creates necessary database indexes for the wars collection
func (r *Repository) CreateIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "war_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "started", Value: 1}, {Key: "finished", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexModels)
	return err
}
