package service

import (
	"context"
	"fmt"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/rs/zerolog"
)

type NotificationService interface {
	List(ctx context.Context, ac auth.AuthContext, unreadOnly bool, page, limit int) (*models.NotificationsResponse, error)
	UnreadCount(ctx context.Context, ac auth.AuthContext) (int, error)
	MarkRead(ctx context.Context, ac auth.AuthContext, id string) error
	MarkAllRead(ctx context.Context, ac auth.AuthContext) (int64, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	logger           zerolog.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *notificationService) List(ctx context.Context, ac auth.AuthContext, unreadOnly bool, page, limit int) (*models.NotificationsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	recipients, err := inboxRecipients(ctx, ac)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	notifications, total, err := s.notificationRepo.ListByRecipients(ctx, ac.CurrentActor().ID, recipients, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	unread, err := s.notificationRepo.CountUnread(ctx, ac.CurrentActor().ID, recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &models.NotificationsResponse{
		Notifications: notifications,
		Total:         total,
		Unread:        unread,
		Page:          page,
		Limit:         limit,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, ac auth.AuthContext) (int, error) {
	recipients, err := inboxRecipients(ctx, ac)
	if err != nil {
		return 0, err
	}

	count, err := s.notificationRepo.CountUnread(ctx, ac.CurrentActor().ID, recipients)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, ac auth.AuthContext, id string) error {
	recipients, err := inboxRecipients(ctx, ac)
	if err != nil {
		return err
	}

	ok, err := s.notificationRepo.MarkRead(ctx, id, ac.CurrentActor().ID, recipients)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return workflow.NotFoundError(fmt.Sprintf("notification %s not found", id))
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, ac auth.AuthContext) (int64, error) {
	recipients, err := inboxRecipients(ctx, ac)
	if err != nil {
		return 0, err
	}

	n, err := s.notificationRepo.MarkAllRead(ctx, ac.CurrentActor().ID, recipients)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.logger.Debug().
		Str("actor_id", ac.CurrentActor().ID).
		Int64("count", n).
		Msg("Notifications marked read")

	return n, nil
}

// inboxRecipients is the caller's own id plus the reviewer group of every
// family the caller reviews.
func inboxRecipients(ctx context.Context, ac auth.AuthContext) ([]string, error) {
	recipients := []string{ac.CurrentActor().ID}
	for _, family := range workflow.Families {
		ok, err := auth.HasAnyRole(ctx, ac, family.ReviewerRoles(), family.String())
		if err != nil {
			return nil, fmt.Errorf("failed to check roles: %w", err)
		}
		if ok {
			recipients = append(recipients, family.ReviewerGroup())
		}
	}
	return recipients, nil
}
