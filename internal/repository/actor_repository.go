package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type ActorRepository interface {
	Create(ctx context.Context, actor *models.Actor) error
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	GetByEmail(ctx context.Context, email string) (*models.Actor, error)
	Exists(ctx context.Context, id string) (bool, error)
	GrantRole(ctx context.Context, grant *models.RoleGrant) error
	RevokeRole(ctx context.Context, actorID string, role workflow.Role, scope string) error
	HasRole(ctx context.Context, actorID string, role workflow.Role, scope string) (bool, error)
	ListByRoles(ctx context.Context, roles []workflow.Role, scope string) ([]models.Actor, error)
}

type actorRepository struct {
	*PostgresRepository
}

func NewActorRepository(db *sql.DB, logger zerolog.Logger) ActorRepository {
	return &actorRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *actorRepository) Create(ctx context.Context, actor *models.Actor) error {
	query := `
		INSERT INTO actors (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		actor.ID,
		actor.Name,
		actor.Email,
		actor.CreatedAt,
		actor.UpdatedAt,
	)

	return err
}

func (r *actorRepository) GetByID(ctx context.Context, id string) (*models.Actor, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM actors
		WHERE id = $1
	`

	actor := &models.Actor{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&actor.ID,
		&actor.Name,
		&actor.Email,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	roles, err := r.rolesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	actor.Roles = roles

	return actor, nil
}

func (r *actorRepository) GetByEmail(ctx context.Context, email string) (*models.Actor, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM actors
		WHERE email = $1
	`

	actor := &models.Actor{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&actor.ID,
		&actor.Name,
		&actor.Email,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return actor, err
}

func (r *actorRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM actors WHERE id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *actorRepository) rolesOf(ctx context.Context, actorID string) ([]models.RoleGrant, error) {
	query := `
		SELECT actor_id, role, scope, created_at
		FROM role_grants
		WHERE actor_id = $1
		ORDER BY role, scope
	`

	rows, err := r.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.RoleGrant
	for rows.Next() {
		var grant models.RoleGrant
		if err := rows.Scan(&grant.ActorID, &grant.Role, &grant.Scope, &grant.CreatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}

	return grants, rows.Err()
}

func (r *actorRepository) GrantRole(ctx context.Context, grant *models.RoleGrant) error {
	query := `
		INSERT INTO role_grants (actor_id, role, scope, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (actor_id, role, scope) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, grant.ActorID, grant.Role, grant.Scope, grant.CreatedAt)
	return err
}

func (r *actorRepository) RevokeRole(ctx context.Context, actorID string, role workflow.Role, scope string) error {
	query := `DELETE FROM role_grants WHERE actor_id = $1 AND role = $2 AND scope = $3`
	_, err := r.db.ExecContext(ctx, query, actorID, role, scope)
	return err
}

// HasRole treats a grant with scope "*" as covering every scope.
func (r *actorRepository) HasRole(ctx context.Context, actorID string, role workflow.Role, scope string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM role_grants
			WHERE actor_id = $1 AND role = $2 AND (scope = $3 OR scope = '*')
		)
	`

	var ok bool
	err := r.db.QueryRowContext(ctx, query, actorID, role, scope).Scan(&ok)
	return ok, err
}

func (r *actorRepository) ListByRoles(ctx context.Context, roles []workflow.Role, scope string) ([]models.Actor, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `
		SELECT DISTINCT a.id, a.name, a.email, a.created_at, a.updated_at
		FROM actors a
		JOIN role_grants g ON g.actor_id = a.id
		WHERE g.role = ANY($1) AND (g.scope = $2 OR g.scope = '*')
		ORDER BY a.id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(names), scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []models.Actor
	for rows.Next() {
		var actor models.Actor
		if err := rows.Scan(&actor.ID, &actor.Name, &actor.Email, &actor.CreatedAt, &actor.UpdatedAt); err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}

	return actors, rows.Err()
}
