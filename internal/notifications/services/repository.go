package services

import (
	"context"

	"go-standings/internal/notifications/models"
	"go-standings/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for notifications
type Repository struct {
	mongodb    *database.MongoDB
	collection *mongo.Collection
}

// NewRepository creates a new notification repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		collection: mongodb.Database.Collection(models.NotificationCollection),
	}
}

// Insert stores a new notification
func (r *Repository) Insert(ctx context.Context, notification *models.Notification) error {
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// ListByUser returns the newest notifications of a user
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	for cursor.Next(ctx) {
		var notification models.Notification
		if err := cursor.Decode(&notification); err != nil {
			return nil, err
		}
		notifications = append(notifications, &notification)
	}

	return notifications, cursor.Err()
}

// MarkRead flags one notification of the user as read
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID string) error {
	filter := bson.M{"user_id": userID, "notification_id": notificationID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	return err
}

// CreateIndexes creates necessary database indexes
func (r *Repository) CreateIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "notification_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexModels)
	return err
}
