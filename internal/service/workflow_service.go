package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service/integration"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WorkflowService runs the workflow operations on the request path:
// authorize, read, decide, write back, notify.
type WorkflowService interface {
	Submit(ctx context.Context, ac auth.AuthContext, family workflow.Family, payload workflow.Payload) (*workflow.Entity, error)
	Get(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) (*workflow.Entity, error)
	List(ctx context.Context, ac auth.AuthContext, family workflow.Family, filter models.EntityFilter, page, limit int) (*models.EntitiesResponse, error)
	Acknowledge(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) (*workflow.Entity, error)
	Review(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string, decision workflow.Decision, reason string) (*workflow.Entity, error)
	Assign(ctx context.Context, ac auth.AuthContext, family workflow.Family, id, assigneeID string) (*workflow.Entity, error)
	Complete(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) (*workflow.Entity, error)
	Resubmit(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string, payload workflow.Payload) (*workflow.Entity, error)
	Remove(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) error
}

type workflowService struct {
	entityRepo repository.EntityRepository
	actorRepo  repository.ActorRepository
	notifier   integration.Notifier
	logger     zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewWorkflowService(
	entityRepo repository.EntityRepository,
	actorRepo repository.ActorRepository,
	notifier integration.Notifier,
	logger zerolog.Logger,
) WorkflowService {
	return &workflowService{
		entityRepo: entityRepo,
		actorRepo:  actorRepo,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
}

func (s *workflowService) Submit(ctx context.Context, ac auth.AuthContext, family workflow.Family, payload workflow.Payload) (*workflow.Entity, error) {
	if err := workflow.ValidatePayload(family, payload); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, ac, family, family.SubmitterRoles(), "submit"); err != nil {
		return nil, err
	}

	owner := ac.CurrentActor().ID
	if err := s.ensureNoActive(ctx, owner, family, ""); err != nil {
		return nil, err
	}

	entity, err := workflow.New(s.newID(), family, owner, payload, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.entityRepo.Save(ctx, &entity); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", family, err)
	}

	s.logger.Info().
		Str("entity_id", entity.ID).
		Str("family", family.String()).
		Str("owner_id", owner).
		Str("status", entity.Status.String()).
		Msg("Workflow entity submitted")

	s.notify(ctx, reviewerRecipient(entity), workflow.EventSubmitted, entity)
	return &entity, nil
}

func (s *workflowService) Get(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) (*workflow.Entity, error) {
	entity, err := s.find(ctx, family, id)
	if err != nil {
		return nil, err
	}

	actorID := ac.CurrentActor().ID
	if entity.OwnerID == actorID || entity.AssigneeID == actorID {
		return entity, nil
	}
	if err := s.requireRole(ctx, ac, family, staffRoles(family), "view"); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *workflowService) List(ctx context.Context, ac auth.AuthContext, family workflow.Family, filter models.EntityFilter, page, limit int) (*models.EntitiesResponse, error) {
	if !family.Valid() {
		return nil, workflow.ValidationError("unknown family", map[string]string{"family": "must be subject, report or defense"})
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	staff, err := auth.HasAnyRole(ctx, ac, staffRoles(family), family.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check roles: %w", err)
	}
	if !staff {
		// Owners only ever see their own entities.
		actorID := ac.CurrentActor().ID
		if filter.OwnerID != "" && filter.OwnerID != actorID {
			return nil, workflow.AuthorizationError(fmt.Sprintf("cannot list another actor's %s entities", family))
		}
		filter.OwnerID = actorID
	}

	offset := (page - 1) * limit
	entities, total, err := s.entityRepo.List(ctx, family, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s entities: %w", family, err)
	}
	if entities == nil {
		entities = []workflow.Entity{}
	}

	return &models.EntitiesResponse{
		Entities: entities,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *workflowService) Acknowledge(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) (*workflow.Entity, error) {
	if err := s.requireRole(ctx, ac, family, family.ReviewerRoles(), "acknowledge"); err != nil {
		return nil, err
	}

	entity, err := s.find(ctx, family, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Acknowledge(*entity, s.now())
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, *entity, next, next.OwnerID, workflow.EventAcknowledged)
}

func (s *workflowService) Review(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string, decision workflow.Decision, reason string) (*workflow.Entity, error) {
	if decision == workflow.DecisionReject && strings.TrimSpace(reason) == "" {
		return nil, workflow.ValidationError("a reason is required to reject", map[string]string{"reason": "required"})
	}
	if err := s.requireRole(ctx, ac, family, family.ReviewerRoles(), "review"); err != nil {
		return nil, err
	}

	entity, err := s.find(ctx, family, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Review(*entity, decision, reason, s.now())
	if err != nil {
		return nil, err
	}

	kind := workflow.EventApproved
	if decision == workflow.DecisionReject {
		kind = workflow.EventRejected
	}

	result, err := s.commit(ctx, *entity, next, next.OwnerID, kind)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("entity_id", next.ID).
		Str("reviewer_id", ac.CurrentActor().ID).
		Str("decision", string(decision)).
		Str("status", next.Status.String()).
		Msg("Workflow entity reviewed")

	return result, nil
}

func (s *workflowService) Assign(ctx context.Context, ac auth.AuthContext, family workflow.Family, id, assigneeID string) (*workflow.Entity, error) {
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, workflow.ValidationError("assignee is required", map[string]string{"assigneeId": "required"})
	}
	if err := s.requireRole(ctx, ac, family, family.AssignerRoles(), "assign"); err != nil {
		return nil, err
	}

	entity, err := s.find(ctx, family, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.actorRepo.Exists(ctx, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignee: %w", err)
	}
	if !exists {
		return nil, workflow.ValidationError("unknown assignee", map[string]string{"assigneeId": "no such actor"})
	}

	next, changed, err := workflow.Assign(*entity, assigneeID, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return entity, nil
	}

	return s.commit(ctx, *entity, next, next.OwnerID, workflow.EventAssigned)
}

func (s *workflowService) Complete(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) (*workflow.Entity, error) {
	if err := s.requireRole(ctx, ac, family, family.AssignerRoles(), "complete"); err != nil {
		return nil, err
	}

	entity, err := s.find(ctx, family, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Complete(*entity, s.now())
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, *entity, next, next.OwnerID, workflow.EventCompleted)
}

func (s *workflowService) Resubmit(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string, payload workflow.Payload) (*workflow.Entity, error) {
	entity, err := s.find(ctx, family, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(ac, entity, "resubmit"); err != nil {
		return nil, err
	}

	next, err := workflow.Resubmit(*entity, payload, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoActive(ctx, entity.OwnerID, family, entity.ID); err != nil {
		return nil, err
	}

	return s.commit(ctx, *entity, next, reviewerRecipient(next), workflow.EventResubmitted)
}

func (s *workflowService) Remove(ctx context.Context, ac auth.AuthContext, family workflow.Family, id string) error {
	entity, err := s.find(ctx, family, id)
	if err != nil {
		return err
	}
	if err := requireOwner(ac, entity, "remove"); err != nil {
		return err
	}
	if err := workflow.CheckRemovable(*entity); err != nil {
		return err
	}

	if err := s.entityRepo.Delete(ctx, entity.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", family, err)
	}

	s.logger.Info().
		Str("entity_id", entity.ID).
		Str("family", family.String()).
		Str("owner_id", entity.OwnerID).
		Msg("Workflow entity removed")

	return nil
}

// commit writes next back and sends the transition's single notification.
func (s *workflowService) commit(ctx context.Context, prev, next workflow.Entity, recipient string, kind workflow.EventKind) (*workflow.Entity, error) {
	if err := s.entityRepo.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", next.Family, err)
	}

	s.logger.Debug().
		Str("entity_id", next.ID).
		Str("from", prev.Status.String()).
		Str("to", next.Status.String()).
		Str("event_kind", string(kind)).
		Msg("Workflow transition applied")

	s.notify(ctx, recipient, kind, next)
	return &next, nil
}

func (s *workflowService) notify(ctx context.Context, recipient string, kind workflow.EventKind, e workflow.Entity) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, kind, e.Summary()); err != nil {
		s.logger.Error().Err(err).
			Str("entity_id", e.ID).
			Str("recipient_id", recipient).
			Str("event_kind", string(kind)).
			Msg("Failed to send workflow notification")
	}
}

func (s *workflowService) find(ctx context.Context, family workflow.Family, id string) (*workflow.Entity, error) {
	if !family.Valid() {
		return nil, workflow.ValidationError("unknown family", map[string]string{"family": "must be subject, report or defense"})
	}

	entity, err := s.entityRepo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", family, err)
	}
	if entity == nil || entity.Family != family {
		return nil, workflow.NotFoundError(fmt.Sprintf("%s %s not found", family, id))
	}
	return entity, nil
}

func (s *workflowService) ensureNoActive(ctx context.Context, ownerID string, family workflow.Family, exceptID string) error {
	active, err := s.entityRepo.FindActiveByOwner(ctx, ownerID, family)
	if err != nil {
		return fmt.Errorf("failed to check active %s: %w", family, err)
	}
	if active != nil && active.ID != exceptID {
		return workflow.ConflictError(fmt.Sprintf("an active %s already exists (%s)", family, active.ID))
	}
	return nil
}

func (s *workflowService) requireRole(ctx context.Context, ac auth.AuthContext, family workflow.Family, roles []workflow.Role, action string) error {
	if !family.Valid() {
		return workflow.ValidationError("unknown family", map[string]string{"family": "must be subject, report or defense"})
	}
	ok, err := auth.HasAnyRole(ctx, ac, roles, family.String())
	if err != nil {
		return fmt.Errorf("failed to check roles: %w", err)
	}
	if !ok {
		return workflow.AuthorizationError(fmt.Sprintf("%s on %s requires one of: %s", action, family, joinRoles(roles)))
	}
	return nil
}

func requireOwner(ac auth.AuthContext, e *workflow.Entity, action string) error {
	if ac.CurrentActor().ID != e.OwnerID {
		return workflow.AuthorizationError(fmt.Sprintf("only the owner can %s this %s", action, e.Family))
	}
	return nil
}

// reviewerRecipient targets the assigned supervisor/jury when there is one,
// the family's reviewer group otherwise.
func reviewerRecipient(e workflow.Entity) string {
	if e.AssigneeID != "" {
		return e.AssigneeID
	}
	return e.Family.ReviewerGroup()
}

// staffRoles are the roles that may see every entity of a family.
func staffRoles(family workflow.Family) []workflow.Role {
	roles := family.ReviewerRoles()
	for _, r := range family.AssignerRoles() {
		if !containsRole(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

func containsRole(list []workflow.Role, r workflow.Role) bool {
	for _, candidate := range list {
		if candidate == r {
			return true
		}
	}
	return false
}

func joinRoles(roles []workflow.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
