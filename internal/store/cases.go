package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CaseStatus string

const (
	CasePending       CaseStatus = "PENDING"
	CaseAssigned      CaseStatus = "ASSIGNED"
	CaseInProgress    CaseStatus = "IN_PROGRESS"
	CaseResolved      CaseStatus = "RESOLVED"
	CaseClosed        CaseStatus = "CLOSED"
	CaseAppealed      CaseStatus = "APPEALED"
	CaseAppealGranted CaseStatus = "APPEAL_GRANTED"
	CaseAppealDenied  CaseStatus = "APPEAL_DENIED"
)

// caseTransitions is the fixed transition table. A target status not listed
// under the current one is rejected before any write.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CasePending:       {CaseAssigned, CaseClosed},
	CaseAssigned:      {CaseInProgress, CaseClosed},
	CaseInProgress:    {CaseResolved, CaseClosed},
	CaseResolved:      {CaseClosed, CaseInProgress},
	CaseClosed:        {CaseAppealed},
	CaseAppealed:      {CaseAppealGranted, CaseAppealDenied},
	CaseAppealGranted: {CaseInProgress},
	CaseAppealDenied:  {},
}

func ValidCaseStatus(s CaseStatus) bool {
	_, ok := caseTransitions[s]
	return ok
}

func CanTransitionCase(from, to CaseStatus) bool {
	for _, next := range caseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Case struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	ClientID    int64      `json:"client_id"`
	LawyerID    *int64     `json:"lawyer_id,omitempty"`
	OfficeID    *int64     `json:"office_id,omitempty"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      CaseStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CasesStore struct {
	db *pgxpool.Pool
}

func (s *CasesStore) Create(ctx context.Context, c *Case) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO cases (reference, client_id, office_id, category, title, description, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		c.Reference, c.ClientID, c.OfficeID, c.Category, c.Title, c.Description, c.Priority, string(CasePending),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	c.Status = CasePending
	return nil
}

const caseColumns = `id, reference, client_id, lawyer_id, office_id, category, title, description, priority, status, created_at, updated_at`

func scanCase(row pgx.Row, c *Case) error {
	var status string
	err := row.Scan(
		&c.ID, &c.Reference, &c.ClientID, &c.LawyerID, &c.OfficeID,
		&c.Category, &c.Title, &c.Description, &c.Priority, &status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	c.Status = CaseStatus(status)
	return nil
}

func (s *CasesStore) getOne(ctx context.Context, query string, args ...interface{}) (*Case, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var c Case
	if err := scanCase(s.db.QueryRow(ctx, query, args...), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *CasesStore) GetByID(ctx context.Context, caseID int64) (*Case, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns), caseID)
}

// GetForClient bakes the ownership constraint into the filter: a case that
// exists but belongs to another client comes back as ErrNotFound.
func (s *CasesStore) GetForClient(ctx context.Context, caseID, clientID int64) (*Case, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1 AND client_id = $2`, caseColumns), caseID, clientID)
}

func (s *CasesStore) GetForLawyer(ctx context.Context, caseID, lawyerID int64) (*Case, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1 AND lawyer_id = $2`, caseColumns), caseID, lawyerID)
}

func (s *CasesStore) GetForOffice(ctx context.Context, caseID, officeID int64) (*Case, error) {
	return s.getOne(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1 AND office_id = $2`, caseColumns), caseID, officeID)
}

func (s *CasesStore) list(ctx context.Context, query string, args ...interface{}) ([]Case, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []Case
	for rows.Next() {
		var c Case
		if err := scanCase(rows, &c); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (s *CasesStore) ListForClient(ctx context.Context, clientID int64) ([]Case, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE client_id = $1 ORDER BY created_at DESC`, caseColumns), clientID)
}

func (s *CasesStore) ListForLawyer(ctx context.Context, lawyerID int64) ([]Case, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE lawyer_id = $1 ORDER BY created_at DESC`, caseColumns), lawyerID)
}

func (s *CasesStore) ListForOffice(ctx context.Context, officeID int64) ([]Case, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM cases WHERE office_id = $1 ORDER BY created_at DESC`, caseColumns), officeID)
}

func (s *CasesStore) ListAll(ctx context.Context) ([]Case, error) {
	return s.list(ctx, fmt.Sprintf(`SELECT %s FROM cases ORDER BY created_at DESC`, caseColumns))
}

// Assign sets the handling lawyer and moves the case to ASSIGNED, writing the
// audit row in the same transaction.
func (s *CasesStore) Assign(ctx context.Context, caseID, lawyerID, actorID int64) error {
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
		UPDATE cases SET lawyer_id = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := tx.Exec(ctx, query, lawyerID, string(CaseAssigned), caseID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	detail := fmt.Sprintf("assigned lawyer %d", lawyerID)
	if err := insertAuditTx(ctx, tx, actorID, "case.assign", "case", caseID, detail); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SetStatus writes the new status and its audit row atomically. The caller
// validates the transition against the current status first.
func (s *CasesStore) SetStatus(ctx context.Context, caseID int64, to CaseStatus, actorID int64, action string) error {
	if !ValidCaseStatus(to) {
		return ErrInvalidStatus
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

	result, err := tx.Exec(ctx, `UPDATE cases SET status = $1, updated_at = NOW() WHERE id = $2`, string(to), caseID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := insertAuditTx(ctx, tx, actorID, action, "case", caseID, fmt.Sprintf("status -> %s", to)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
