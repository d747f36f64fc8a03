package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-standings/internal/notifications/models"

	"github.com/google/uuid"
)

// Storage is the persistence surface the notification service needs
type Storage interface {
	Insert(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// Service delivers user notifications
type Service struct {
	storage Storage
}

// NewService creates a new notification service
func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// Notify stores a new notification for the user
func (s *Service) Notify(ctx context.Context, userID, title, message, level string) error {
	notification := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Level:     level,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.Insert(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification created",
		"user_id", userID,
		"title", title,
		"level", level)
	return nil
}

// ListByUser returns the newest notifications of a user
func (s *Service) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Notification, error) {
	return s.storage.ListByUser(ctx, userID, limit)
}

// MarkRead flags one notification of the user as read
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.storage.MarkRead(ctx, userID, notificationID)
}
