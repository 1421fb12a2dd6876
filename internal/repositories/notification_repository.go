package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/utils"
	"github.com/google/uuid"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Notification, int, error)
}

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepo(db *sql.DB) NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO notifications (id, user_id, type, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	return r.DB.QueryRowContext(dbCtx, query, n.ID, n.UserID, n.Type, n.Subject, n.Status).Scan(&n.CreatedAt)
}

func (r *notificationRepository) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Notification, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, type, subject, status, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	defer rows.Close()

	var notifications []models.Notification

	for rows.Next() {

		n := models.Notification{UserID: userID}

		err := rows.Scan(&n.ID, &n.Type, &n.Subject, &n.Status, &n.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}
