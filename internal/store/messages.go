package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Message is one entry in a case's thread between the client and the
// assigned lawyer (coordinators and admins can read and post too).
type Message struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"case_id"`
	SenderID  int64     `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagesStore struct {
	db *pgxpool.Pool
}

func (s *MessagesStore) Create(ctx context.Context, m *Message) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO messages (case_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return s.db.QueryRow(ctx, query, m.CaseID, m.SenderID, m.Body).Scan(&m.ID, &m.CreatedAt)
}

func (s *MessagesStore) ListByCase(ctx context.Context, caseID int64) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, case_id, sender_id, body, created_at
		FROM messages WHERE case_id = $1 ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.CaseID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
