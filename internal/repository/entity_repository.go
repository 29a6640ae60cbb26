package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EntityRepository is the persistence collaborator of the workflow. Lookups
// return (nil, nil) when nothing matches.
type EntityRepository interface {
	Find(ctx context.Context, id string) (*workflow.Entity, error)
	Save(ctx context.Context, entity *workflow.Entity) error
	Delete(ctx context.Context, id string) error
	FindActiveByOwner(ctx context.Context, ownerID string, family workflow.Family) (*workflow.Entity, error)
	List(ctx context.Context, family workflow.Family, filter models.EntityFilter, limit, offset int) ([]workflow.Entity, int, error)
}

type entityRepository struct {
	*PostgresRepository
}

func NewEntityRepository(db *sql.DB, logger zerolog.Logger) EntityRepository {
	return &entityRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const entityColumns = `id, family, owner_id, status, payload, feedback, assignee_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*workflow.Entity, error) {
	var (
		entity  workflow.Entity
		payload []byte
	)
	err := row.Scan(
		&entity.ID,
		&entity.Family,
		&entity.OwnerID,
		&entity.Status,
		&payload,
		&entity.Feedback,
		&entity.AssigneeID,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &entity.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of %s: %w", entity.ID, err)
		}
	}
	if entity.Payload == nil {
		entity.Payload = workflow.Payload{}
	}

	return &entity, nil
}

func (r *entityRepository) Find(ctx context.Context, id string) (*workflow.Entity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `SELECT ` + entityColumns + ` FROM workflow_entities WHERE id = $1`

	entity, err := scanEntity(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entity, err
}

// Save writes the whole row, so concurrent writers on one entity resolve as
// last write wins.
func (r *entityRepository) Save(ctx context.Context, entity *workflow.Entity) error {
	payload, err := json.Marshal(entity.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO workflow_entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			feedback = EXCLUDED.feedback,
			assignee_id = EXCLUDED.assignee_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Family,
		entity.OwnerID,
		entity.Status,
		payload,
		entity.Feedback,
		entity.AssigneeID,
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	return err
}

func (r *entityRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM workflow_entities WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *entityRepository) FindActiveByOwner(ctx context.Context, ownerID string, family workflow.Family) (*workflow.Entity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM workflow_entities
		WHERE owner_id = $1 AND family = $2 AND status <> $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	entity, err := scanEntity(r.db.QueryRowContext(ctx, query, ownerID, family, workflow.StatusRejected))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entity, err
}

func (r *entityRepository) List(ctx context.Context, family workflow.Family, filter models.EntityFilter, limit, offset int) ([]workflow.Entity, int, error) {
	where, args := entityListWhere(family, filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM workflow_entities WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM workflow_entities
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, entityColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entities := make([]workflow.Entity, 0)
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		entities = append(entities, *entity)
	}

	return entities, total, rows.Err()
}

func entityListWhere(family workflow.Family, filter models.EntityFilter) (string, []any) {
	clauses := []string{"family = $1"}
	args := []any{family}

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}
