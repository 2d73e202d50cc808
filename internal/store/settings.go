package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SettingsStore struct {
	db *pgxpool.Pool
}

func (s *SettingsStore) GetAll(ctx context.Context) ([]Setting, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var setting Setting
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.UpdatedBy, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// BatchUpdate upserts every key in one transaction with a single audit row;
// either all values land or none do.
func (s *SettingsStore) BatchUpdate(ctx context.Context, values map[string]string, actorID int64) error {
	if len(values) == 0 {
		return fmt.Errorf("no settings to update")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_by = $3, updated_at = NOW()
	`
	for key, value := range values {
		if _, err := tx.Exec(ctx, query, key, value, actorID); err != nil {
			return err
		}
	}

	if err := insertAuditTx(ctx, tx, actorID, "settings.batch_update", "settings", 0, fmt.Sprintf("%d keys", len(values))); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
