package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID          int64             `json:"id"`
	CaseID      int64             `json:"case_id"`
	ClientID    int64             `json:"client_id"`
	LawyerID    int64             `json:"lawyer_id"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Location    string            `json:"location"`
	Notes       string            `json:"notes,omitempty"`
	Status      AppointmentStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type AppointmentsStore struct {
	db *pgxpool.Pool
}

func (s *AppointmentsStore) Create(ctx context.Context, appt *Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO appointments (case_id, client_id, lawyer_id, scheduled_at, location, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		appt.CaseID, appt.ClientID, appt.LawyerID, appt.ScheduledAt, appt.Location, appt.Notes, string(AppointmentScheduled),
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return err
	}
	appt.Status = AppointmentScheduled
	return nil
}

const appointmentColumns = `id, case_id, client_id, lawyer_id, scheduled_at, location, COALESCE(notes, ''), status, created_at, updated_at`

func scanAppointment(row pgx.Row, appt *Appointment) error {
	var status string
	err := row.Scan(
		&appt.ID, &appt.CaseID, &appt.ClientID, &appt.LawyerID, &appt.ScheduledAt,
		&appt.Location, &appt.Notes, &status, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return err
	}
	appt.Status = AppointmentStatus(status)
	return nil
}

func (s *AppointmentsStore) getOne(ctx context.Context, query string, args ...interface{}) (*Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var appt Appointment
	if err := scanAppointment(s.db.QueryRow(ctx, query, args...), &appt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (s *AppointmentsStore) GetByID(ctx context.Context, apptID int64) (*Appointment, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns), apptID)
}

func (s *AppointmentsStore) GetForClient(ctx context.Context, apptID, clientID int64) (*Appointment, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 AND client_id = $2`, appointmentColumns), apptID, clientID)
}

func (s *AppointmentsStore) GetForLawyer(ctx context.Context, apptID, lawyerID int64) (*Appointment, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 AND lawyer_id = $2`, appointmentColumns), apptID, lawyerID)
}

func (s *AppointmentsStore) list(ctx context.Context, query string, args ...interface{}) ([]Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var appt Appointment
		if err := scanAppointment(rows, &appt); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func (s *AppointmentsStore) ListForClient(ctx context.Context, clientID int64) ([]Appointment, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM appointments WHERE client_id = $1 ORDER BY scheduled_at`, appointmentColumns), clientID)
}

func (s *AppointmentsStore) ListForLawyer(ctx context.Context, lawyerID int64) ([]Appointment, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM appointments WHERE lawyer_id = $1 ORDER BY scheduled_at`, appointmentColumns), lawyerID)
}

func (s *AppointmentsStore) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM appointments ORDER BY scheduled_at`, appointmentColumns))
}

func (s *AppointmentsStore) SetStatus(ctx context.Context, apptID int64, to AppointmentStatus) error {
	if !ValidAppointmentStatus(to) {
		return ErrInvalidStatus
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, `UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`, string(to), apptID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
