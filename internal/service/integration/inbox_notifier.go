package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/google/uuid"
)

type inboxNotifier struct {
	repo repository.NotificationRepository
}

// NewInboxNotifier stores each notification as an unread in-app message.
func NewInboxNotifier(repo repository.NotificationRepository) Notifier {
	return &inboxNotifier{repo: repo}
}

func (n *inboxNotifier) Notify(ctx context.Context, recipientID string, kind workflow.EventKind, summary workflow.Summary) error {
	notification := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		EventKind:   kind,
		EntityID:    summary.EntityID,
		Family:      summary.Family,
		Status:      summary.Status,
		Message:     Message(kind, summary),
		CreatedAt:   time.Now().UTC(),
	}

	if err := n.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}
