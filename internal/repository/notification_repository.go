package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/training-events/internal/model"
)

// NotificationRepo stores hashed confirmation codes.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts n and sets its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (user_id, type, code_hash, created_at) VALUES (?, ?, ?, ?)",
		n.UserID, n.Type, n.CodeHash, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// Unread returns the user's unread notifications of type typ, newest first.
func (r *NotificationRepo) Unread(ctx context.Context, userID uint64, typ string) ([]model.Notification, error) {
	const q = `SELECT id, user_id, type, code_hash, read_at, created_at FROM notifications
		WHERE user_id = ? AND type = ? AND read_at IS NULL
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.CodeHash, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead stamps the notification as read at t.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64, t time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE notifications SET read_at = ? WHERE id = ?", t, id)
	return err
}
