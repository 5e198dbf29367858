package services

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const (
	EventNotificationCreated = "notification.created"
)

// NotificationService lets users read their notifications.
type NotificationService struct {
	deps Deps
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(deps Deps) *NotificationService {
	return &NotificationService{deps: deps}
}

// List returns the notifications of the actor, newest first.
func (s *NotificationService) List(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	list, err := s.deps.Store.Repositories().Notifications.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, id string) error {
	err := s.deps.Store.Repositories().Notifications.MarkRead(ctx, id, actor.UserID)
	if err != nil {
		return notFound(err, ErrNotificationNotFound, id)
	}
	return nil
}

func notify(ctx context.Context, repos repositories.Repositories, userID string, kind models.NotificationType, title, message string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := repos.Notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to notify user %s: %w", userID, err)
	}
	return n, nil
}

func (d Deps) publishNotification(n *models.Notification) {
	if n == nil {
		return
	}
	d.publish(EventNotificationCreated, n)
}
