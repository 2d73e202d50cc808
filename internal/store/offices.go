package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Office struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	City      string    `json:"city"`
	Kebele    string    `json:"kebele,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OfficesStore struct {
	db *pgxpool.Pool
}

func (s *OfficesStore) Create(ctx context.Context, office *Office) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO offices (name, region, city, kebele, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return s.db.QueryRow(ctx, query,
		office.Name, office.Region, office.City, office.Kebele, office.Phone,
	).Scan(&office.ID, &office.CreatedAt, &office.UpdatedAt)
}

func (s *OfficesStore) GetByID(ctx context.Context, officeID int64) (*Office, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, name, region, city, COALESCE(kebele, ''), COALESCE(phone, ''), created_at, updated_at
		FROM offices WHERE id = $1
	`
	var office Office
	err := s.db.QueryRow(ctx, query, officeID).Scan(
		&office.ID, &office.Name, &office.Region, &office.City,
		&office.Kebele, &office.Phone, &office.CreatedAt, &office.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &office, nil
}

func (s *OfficesStore) List(ctx context.Context) ([]Office, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, name, region, city, COALESCE(kebele, ''), COALESCE(phone, ''), created_at, updated_at
		FROM offices ORDER BY name
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offices []Office
	for rows.Next() {
		var office Office
		if err := rows.Scan(
			&office.ID, &office.Name, &office.Region, &office.City,
			&office.Kebele, &office.Phone, &office.CreatedAt, &office.UpdatedAt,
		); err != nil {
			return nil, err
		}
		offices = append(offices, office)
	}
	return offices, rows.Err()
}

var updatableOfficeFields = map[string]bool{
	"name":   true,
	"region": true,
	"city":   true,
	"kebele": true,
	"phone":  true,
}

func (s *OfficesStore) Update(ctx context.Context, officeID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !updatableOfficeFields[field] {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, officeID)

	query := fmt.Sprintf("UPDATE offices SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *OfficesStore) Delete(ctx context.Context, officeID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, `DELETE FROM offices WHERE id = $1`, officeID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
