package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationType string

const (
	NotifSystemUpdate        NotificationType = "SYSTEM_UPDATE"
	NotifCaseUpdate          NotificationType = "CASE_UPDATE"
	NotifAppointmentReminder NotificationType = "APPOINTMENT_REMINDER"
	NotifDocumentStatus      NotificationType = "DOCUMENT_STATUS"
	NotifNewMessage          NotificationType = "NEW_MESSAGE"
)

func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotifSystemUpdate, NotifCaseUpdate, NotifAppointmentReminder, NotifDocumentStatus, NotifNewMessage:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "UNREAD"
	NotificationRead   NotificationStatus = "READ"
)

type Notification struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Type      NotificationType   `json:"type"`
	Status    NotificationStatus `json:"status"`
	ReadAt    *time.Time         `json:"read_at,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

type NotificationsStore struct {
	db *pgxpool.Pool
}

func (s *NotificationsStore) Create(ctx context.Context, n *Notification) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO notifications (user_id, title, message, type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		n.UserID, n.Title, n.Message, string(n.Type), string(NotificationUnread),
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return err
	}
	n.Status = NotificationUnread
	return nil
}

func (s *NotificationsStore) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, user_id, title, message, type, status, read_at, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		var ntype, status string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &ntype, &status, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = NotificationType(ntype)
		n.Status = NotificationStatus(status)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationsStore) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = $2`
	if err := s.db.QueryRow(ctx, query, userID, string(NotificationUnread)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds
// without touching the row again. A notification owned by another user is
// reported as not found.
func (s *NotificationsStore) MarkRead(ctx context.Context, notificationID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE notifications SET status = $1, read_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4
	`
	result, err := s.db.Exec(ctx, query, string(NotificationRead), notificationID, userID, string(NotificationUnread))
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either already read (fine) or not owned/missing.
	var exists bool
	check := `SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`
	if err := s.db.QueryRow(ctx, check, notificationID, userID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead relies on the single UPDATE statement for atomicity.
func (s *NotificationsStore) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE notifications SET status = $1, read_at = NOW()
		WHERE user_id = $2 AND status = $3
	`
	result, err := s.db.Exec(ctx, query, string(NotificationRead), userID, string(NotificationUnread))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
