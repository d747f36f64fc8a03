package services

import (
	"context"
	"time"

	"go-standings/internal/auth/models"
	"go-standings/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for ownerships and tokens
type Repository struct {
	mongodb    *database.MongoDB
	ownerships *mongo.Collection
	tokens     *mongo.Collection
}

// NewRepository creates a new auth repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		ownerships: mongodb.Database.Collection(models.CharacterOwnershipCollection),
		tokens:     mongodb.Database.Collection(models.TokenCollection),
	}
}

// GetOwnership retrieves the ownership record of a character
func (r *Repository) GetOwnership(ctx context.Context, characterID int64) (*models.CharacterOwnership, error) {
	var ownership models.CharacterOwnership
	err := r.ownerships.FindOne(ctx, bson.M{"character.character_id": characterID}).Decode(&ownership)
	if err != nil {
		return nil, err
	}
	return &ownership, nil
}

// SaveOwnership creates or updates an ownership record
func (r *Repository) SaveOwnership(ctx context.Context, ownership *models.CharacterOwnership) error {
	ownership.UpdatedAt = time.Now().UTC()
	if ownership.CreatedAt.IsZero() {
		ownership.CreatedAt = ownership.UpdatedAt
	}

	filter := bson.M{"character.character_id": ownership.Character.CharacterID}
	update := bson.M{"$set": ownership}

	_, err := r.ownerships.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetToken retrieves the stored token of a character owned by the user
func (r *Repository) GetToken(ctx context.Context, userID string, characterID int64) (*models.Token, error) {
	var token models.Token
	filter := bson.M{"user_id": userID, "character_id": characterID}
	err := r.tokens.FindOne(ctx, filter).Decode(&token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// SaveToken creates or updates a token record
func (r *Repository) SaveToken(ctx context.Context, token *models.Token) error {
	token.UpdatedAt = time.Now().UTC()

	filter := bson.M{"user_id": token.UserID, "character_id": token.CharacterID}
	update := bson.M{"$set": token}

	_, err := r.tokens.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// CreateIndexes creates necessary database indexes
func (r *Repository) CreateIndexes(ctx context.Context) error {
	_, err := r.ownerships.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "character.character_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = r.tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "character_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
