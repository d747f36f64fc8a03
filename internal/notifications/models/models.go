package models

import "time"

// NotificationCollection is the MongoDB collection name
const NotificationCollection = "notifications"

// Notification levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// Notification is one message delivered to a user
type Notification struct {
	ID        string    `bson:"notification_id" json:"notification_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Level     string    `bson:"level" json:"level"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
