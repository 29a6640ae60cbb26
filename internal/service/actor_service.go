package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ActorService manages actors and their scoped role grants. It also serves
// as the Authorizer behind every request's AuthContext.
type ActorService interface {
	auth.Authorizer
	CreateActor(ctx context.Context, ac auth.AuthContext, req *models.CreateActorRequest) (*models.Actor, error)
	GetActor(ctx context.Context, ac auth.AuthContext, id string) (*models.Actor, error)
	GrantRole(ctx context.Context, ac auth.AuthContext, actorID string, req *models.GrantRoleRequest) (*models.RoleGrant, error)
	RevokeRole(ctx context.Context, ac auth.AuthContext, actorID string, req *models.GrantRoleRequest) error
	BootstrapAdmin(ctx context.Context, req *models.CreateActorRequest) (*models.Actor, error)
}

type actorService struct {
	actorRepo repository.ActorRepository
	logger    zerolog.Logger
}

func NewActorService(actorRepo repository.ActorRepository, logger zerolog.Logger) ActorService {
	return &actorService{
		actorRepo: actorRepo,
		logger:    logger,
	}
}

func (s *actorService) HasRole(ctx context.Context, actorID string, role workflow.Role, scope string) (bool, error) {
	return s.actorRepo.HasRole(ctx, actorID, role, scope)
}

func (s *actorService) CreateActor(ctx context.Context, ac auth.AuthContext, req *models.CreateActorRequest) (*models.Actor, error) {
	if err := requireAdmin(ctx, ac); err != nil {
		return nil, err
	}
	return s.create(ctx, req)
}

func (s *actorService) create(ctx context.Context, req *models.CreateActorRequest) (*models.Actor, error) {
	if err := validateActorRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.actorRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing actor: %w", err)
	}
	if existing != nil {
		return nil, workflow.ConflictError("actor with this email already exists")
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.New().String()
	} else {
		exists, err := s.actorRepo.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing actor: %w", err)
		}
		if exists {
			return nil, workflow.ConflictError(fmt.Sprintf("actor %s already exists", id))
		}
	}

	now := time.Now().UTC()
	actor := &models.Actor{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.actorRepo.Create(ctx, actor); err != nil {
		return nil, fmt.Errorf("failed to create actor: %w", err)
	}

	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("email", actor.Email).
		Msg("Actor created")

	return actor, nil
}

func (s *actorService) GetActor(ctx context.Context, ac auth.AuthContext, id string) (*models.Actor, error) {
	if ac.CurrentActor().ID != id {
		if err := requireAdmin(ctx, ac); err != nil {
			return nil, err
		}
	}

	actor, err := s.actorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	if actor == nil {
		return nil, workflow.NotFoundError(fmt.Sprintf("actor %s not found", id))
	}
	return actor, nil
}

func (s *actorService) GrantRole(ctx context.Context, ac auth.AuthContext, actorID string, req *models.GrantRoleRequest) (*models.RoleGrant, error) {
	if err := requireAdmin(ctx, ac); err != nil {
		return nil, err
	}

	role, scope, err := parseGrant(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureActor(ctx, actorID); err != nil {
		return nil, err
	}

	grant := &models.RoleGrant{
		ActorID:   actorID,
		Role:      role,
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.actorRepo.GrantRole(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant role: %w", err)
	}

	s.logger.Info().
		Str("actor_id", actorID).
		Str("role", string(role)).
		Str("scope", scope).
		Str("granted_by", ac.CurrentActor().ID).
		Msg("Role granted")

	return grant, nil
}

func (s *actorService) RevokeRole(ctx context.Context, ac auth.AuthContext, actorID string, req *models.GrantRoleRequest) error {
	if err := requireAdmin(ctx, ac); err != nil {
		return err
	}

	role, scope, err := parseGrant(req)
	if err != nil {
		return err
	}
	if err := s.ensureActor(ctx, actorID); err != nil {
		return err
	}

	if err := s.actorRepo.RevokeRole(ctx, actorID, role, scope); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	s.logger.Info().
		Str("actor_id", actorID).
		Str("role", string(role)).
		Str("scope", scope).
		Msg("Role revoked")

	return nil
}

// BootstrapAdmin creates the first administrator, or grants admin to an
// existing actor with the same id. Only the CLI calls it.
func (s *actorService) BootstrapAdmin(ctx context.Context, req *models.CreateActorRequest) (*models.Actor, error) {
	actor, err := s.actorRepo.GetByID(ctx, strings.TrimSpace(req.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	if actor == nil {
		if actor, err = s.create(ctx, req); err != nil {
			return nil, err
		}
	}

	grant := &models.RoleGrant{
		ActorID:   actor.ID,
		Role:      workflow.RoleAdmin,
		Scope:     models.ScopeAll,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.actorRepo.GrantRole(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant admin role: %w", err)
	}
	actor.Roles = append(actor.Roles, *grant)

	s.logger.Info().Str("actor_id", actor.ID).Msg("Administrator bootstrapped")
	return actor, nil
}

func (s *actorService) ensureActor(ctx context.Context, id string) error {
	exists, err := s.actorRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check actor: %w", err)
	}
	if !exists {
		return workflow.NotFoundError(fmt.Sprintf("actor %s not found", id))
	}
	return nil
}

func requireAdmin(ctx context.Context, ac auth.AuthContext) error {
	ok, err := ac.HasRole(ctx, workflow.RoleAdmin, models.ScopeAll)
	if err != nil {
		return fmt.Errorf("failed to check roles: %w", err)
	}
	if !ok {
		return workflow.AuthorizationError("administrator role required")
	}
	return nil
}

func validateActorRequest(req *models.CreateActorRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	if email := strings.TrimSpace(req.Email); email == "" {
		fields["email"] = "required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "invalid address"
	}
	if len(fields) > 0 {
		return workflow.ValidationError("invalid actor", fields)
	}
	return nil
}

func parseGrant(req *models.GrantRoleRequest) (workflow.Role, string, error) {
	role, err := workflow.ParseRole(req.Role)
	if err != nil {
		return "", "", err
	}

	scope := strings.TrimSpace(req.Scope)
	if scope == "" || scope == models.ScopeAll {
		return role, models.ScopeAll, nil
	}
	family, err := workflow.ParseFamily(scope)
	if err != nil {
		return "", "", workflow.ValidationError("invalid scope", map[string]string{"scope": "must be subject, report, defense or *"})
	}
	return role, family.String(), nil
}
