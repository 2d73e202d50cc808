package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SMSStatus string

const (
	SMSQueued    SMSStatus = "QUEUED"
	SMSSent      SMSStatus = "SENT"
	SMSDelivered SMSStatus = "DELIVERED"
	SMSFailed    SMSStatus = "FAILED"
)

func ValidSMSStatus(s SMSStatus) bool {
	switch s {
	case SMSQueued, SMSSent, SMSDelivered, SMSFailed:
		return true
	}
	return false
}

type SMSMessage struct {
	ID          int64     `json:"id"`
	RecipientID *int64    `json:"recipient_id,omitempty"`
	Phone       string    `json:"phone"`
	Body        string    `json:"body"`
	Status      SMSStatus `json:"status"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	FailReason  string    `json:"fail_reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SMSStore struct {
	db *pgxpool.Pool
}

func (s *SMSStore) Create(ctx context.Context, m *SMSMessage) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if m.Status == "" {
		m.Status = SMSQueued
	}

	query := `
		INSERT INTO sms_messages (recipient_id, phone, body, status, provider_ref, fail_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return s.db.QueryRow(ctx, query,
		m.RecipientID, m.Phone, m.Body, string(m.Status), m.ProviderRef, m.FailReason,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

const smsColumns = `id, recipient_id, phone, body, status, COALESCE(provider_ref, ''), COALESCE(fail_reason, ''), created_at, updated_at`

func scanSMS(row pgx.Row, m *SMSMessage) error {
	var status string
	err := row.Scan(
		&m.ID, &m.RecipientID, &m.Phone, &m.Body, &status,
		&m.ProviderRef, &m.FailReason, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	m.Status = SMSStatus(status)
	return nil
}

func (s *SMSStore) GetByID(ctx context.Context, smsID int64) (*SMSMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM sms_messages WHERE id = $1`, smsColumns)

	var m SMSMessage
	if err := scanSMS(s.db.QueryRow(ctx, query, smsID), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *SMSStore) List(ctx context.Context) ([]SMSMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM sms_messages ORDER BY created_at DESC LIMIT 500`, smsColumns)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []SMSMessage
	for rows.Next() {
		var m SMSMessage
		if err := scanSMS(rows, &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SMSStore) UpdateStatus(ctx context.Context, smsID int64, status SMSStatus, providerRef, failReason string) error {
	if !ValidSMSStatus(status) {
		return ErrInvalidStatus
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE sms_messages
		SET status = $1, provider_ref = $2, fail_reason = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := s.db.Exec(ctx, query, string(status), providerRef, failReason, smsID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusByProviderRef is used by the delivery-report webhook, which
// only knows the gateway's message reference.
func (s *SMSStore) UpdateStatusByProviderRef(ctx context.Context, providerRef string, status SMSStatus, failReason string) error {
	if !ValidSMSStatus(status) {
		return ErrInvalidStatus
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		UPDATE sms_messages
		SET status = $1, fail_reason = $2, updated_at = NOW()
		WHERE provider_ref = $3
	`
	result, err := s.db.Exec(ctx, query, string(status), failReason, providerRef)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
