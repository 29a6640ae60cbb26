package repository

import (
	"context"
	"database/sql"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// NotificationRepository stores inbox rows. Read state belongs to the reading
// actor, so a notification addressed to a reviewer group is read or unread
// for each reviewer separately.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipients(ctx context.Context, actorID string, recipientIDs []string, unreadOnly bool, limit, offset int) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, actorID string, recipientIDs []string) (int, error)
	MarkRead(ctx context.Context, id, actorID string, recipientIDs []string) (bool, error)
	MarkAllRead(ctx context.Context, actorID string, recipientIDs []string) (int64, error)
}

type notificationRepository struct {
	*PostgresRepository
}

func NewNotificationRepository(db *sql.DB, logger zerolog.Logger) NotificationRepository {
	return &notificationRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, event_kind, entity_id, family, status, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.EventKind,
		n.EntityID,
		n.Family,
		n.Status,
		n.Message,
		n.CreatedAt,
	)

	return err
}

const inboxFrom = `
	FROM notifications n
	LEFT JOIN notification_reads r ON r.notification_id = n.id AND r.actor_id = $1
	WHERE n.recipient_id = ANY($2)
`

func (r *notificationRepository) ListByRecipients(ctx context.Context, actorID string, recipientIDs []string, unreadOnly bool, limit, offset int) ([]models.Notification, int, error) {
	countQuery := `SELECT COUNT(*)` + inboxFrom + ` AND ($3 = FALSE OR r.notification_id IS NULL)`

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, actorID, pq.Array(recipientIDs), unreadOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT n.id, n.recipient_id, n.event_kind, n.entity_id, n.family, n.status, n.message,
			r.notification_id IS NOT NULL, n.created_at` + inboxFrom + `
		AND ($3 = FALSE OR r.notification_id IS NULL)
		ORDER BY n.created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.QueryContext(ctx, query, actorID, pq.Array(recipientIDs), unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.EventKind,
			&n.EntityID,
			&n.Family,
			&n.Status,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}

	return notifications, total, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, actorID string, recipientIDs []string) (int, error) {
	query := `SELECT COUNT(*)` + inboxFrom + ` AND r.notification_id IS NULL`

	var count int
	err := r.db.QueryRowContext(ctx, query, actorID, pq.Array(recipientIDs)).Scan(&count)
	return count, err
}

// MarkRead reports false when id is not in the actor's inbox. Marking an
// already read notification succeeds.
func (r *notificationRepository) MarkRead(ctx context.Context, id, actorID string, recipientIDs []string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	query := `
		WITH target AS (
			SELECT id FROM notifications WHERE id = $1 AND recipient_id = ANY($3)
		), marked AS (
			INSERT INTO notification_reads (notification_id, actor_id, read_at)
			SELECT id, $2, NOW() FROM target
			ON CONFLICT (notification_id, actor_id) DO NOTHING
		)
		SELECT COUNT(*) FROM target
	`

	var found int
	if err := r.db.QueryRowContext(ctx, query, id, actorID, pq.Array(recipientIDs)).Scan(&found); err != nil {
		return false, err
	}
	return found > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, actorID string, recipientIDs []string) (int64, error) {
	query := `
		INSERT INTO notification_reads (notification_id, actor_id, read_at)
		SELECT id, $1, NOW() FROM notifications WHERE recipient_id = ANY($2)
		ON CONFLICT (notification_id, actor_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, actorID, pq.Array(recipientIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
