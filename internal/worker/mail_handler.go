package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service/integration"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/rs/zerolog"
)

const reviewerGroupPrefix = "reviewers:"

// ActorDirectory is the subset of the actor repository the worker reads.
type ActorDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	ListByRoles(ctx context.Context, roles []workflow.Role, scope string) ([]models.Actor, error)
}

// MailHandler turns one workflow event into e-mails.
type MailHandler interface {
	HandleEvent(ctx context.Context, event models.WorkflowEvent) error
}

type mailHandler struct {
	actors ActorDirectory
	mailer integration.Mailer
	logger zerolog.Logger
}

func NewMailHandler(actors ActorDirectory, mailer integration.Mailer, logger zerolog.Logger) MailHandler {
	return &mailHandler{
		actors: actors,
		mailer: mailer,
		logger: logger,
	}
}

func (h *mailHandler) HandleEvent(ctx context.Context, event models.WorkflowEvent) error {
	recipients, err := h.resolve(ctx, event.RecipientID)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		h.logger.Warn().
			Str("recipient_id", event.RecipientID).
			Str("entity_id", event.Entity.EntityID).
			Msg("No mail recipients for workflow event")
		return nil
	}

	subject := mailSubject(event)
	message := integration.Message(event.EventKind, event.Entity)

	var errs []error
	for _, actor := range recipients {
		if strings.TrimSpace(actor.Email) == "" {
			continue
		}
		body := integration.RenderMail(actor.Name, message)
		if err := h.mailer.Send(ctx, []string{actor.Email}, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("mail to %s: %w", actor.ID, err))
			continue
		}
		h.logger.Info().
			Str("actor_id", actor.ID).
			Str("entity_id", event.Entity.EntityID).
			Str("event_kind", string(event.EventKind)).
			Msg("Notification mail sent")
	}
	return errors.Join(errs...)
}

// resolve expands a recipient id into actors. Reviewer groups become every
// actor holding a reviewer role for that family.
func (h *mailHandler) resolve(ctx context.Context, recipientID string) ([]models.Actor, error) {
	if name, ok := strings.CutPrefix(recipientID, reviewerGroupPrefix); ok {
		family, err := workflow.ParseFamily(name)
		if err != nil {
			return nil, fmt.Errorf("unknown reviewer group %q: %w", recipientID, err)
		}
		actors, err := h.actors.ListByRoles(ctx, family.ReviewerRoles(), family.String())
		if err != nil {
			return nil, fmt.Errorf("failed to list reviewers: %w", err)
		}
		return actors, nil
	}

	actor, err := h.actors.GetByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	if actor == nil {
		return nil, nil
	}
	return []models.Actor{*actor}, nil
}

func mailSubject(event models.WorkflowEvent) string {
	family := string(event.Entity.Family)
	if family != "" {
		family = strings.ToUpper(family[:1]) + family[1:]
	}
	return fmt.Sprintf("[PFE] %s %s: %s", family, event.EventKind, event.Entity.Title)
}
