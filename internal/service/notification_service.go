package service

import (
	"context"
	"log"
	"time"

	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/socket"
)

type NotificationService interface {
	// Notify persists a notification and pushes it to the user's live
	// connections. Persistence failures are logged, never propagated; a
	// notification must not fail the operation that triggered it.
	Notify(ctx context.Context, userID, notifType, title, message string)
	List(ctx context.Context, userID string, limit int) ([]*repository.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	// Cleanup deletes notifications older than the given age.
	Cleanup(ctx context.Context, age time.Duration) (int, error)
}

type notificationService struct {
	notifRepo   repository.NotificationRepository
	broadcaster *socket.Broadcaster
}

func NewNotificationService(notifRepo repository.NotificationRepository, broadcaster *socket.Broadcaster) NotificationService {
	return &notificationService{notifRepo: notifRepo, broadcaster: broadcaster}
}

func (s *notificationService) Notify(ctx context.Context, userID, notifType, title, message string) {
	notif := &repository.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}
	if err := s.notifRepo.Create(ctx, notif); err != nil {
		log.Printf("[Notification] Failed to persist %s for user %s: %v", notifType, userID, err)
		return
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastNotification(userID, notif.ID, notif.Type, notif.Title, notif.Message)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	return s.notifRepo.FindByUser(ctx, userID, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	updated, err := s.notifRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Cleanup(ctx context.Context, age time.Duration) (int, error) {
	return s.notifRepo.DeleteOlderThan(ctx, age)
}
