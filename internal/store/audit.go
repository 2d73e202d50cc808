package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditLog struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entity_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditStore struct {
	db *pgxpool.Pool
}

func (s *AuditStore) ListRecent(ctx context.Context, limit int) ([]AuditLog, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, actor_id, action, entity, entity_id, detail, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditLog
	for rows.Next() {
		var e AuditLog
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// insertAuditTx writes an audit row inside an open transaction. Mutations
// that must not succeed without their audit trail use this so a failed audit
// write rolls the whole operation back.
func insertAuditTx(ctx context.Context, tx pgx.Tx, actorID int64, action, entity string, entityID int64, detail string) error {
	query := `
		INSERT INTO audit_logs (actor_id, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query, actorID, action, entity, entityID, detail)
	return err
}
