package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "PENDING"
	DocumentVerified DocumentStatus = "VERIFIED"
	DocumentRejected DocumentStatus = "REJECTED"
)

// ValidVerificationTarget reports whether status is an acceptable target for
// a verification decision. PENDING is the initial state only.
func ValidVerificationTarget(status DocumentStatus) bool {
	return status == DocumentVerified || status == DocumentRejected
}

type DocumentKind string

const (
	DocGeneral    DocumentKind = "GENERAL"
	DocResidency  DocumentKind = "RESIDENCY_CERTIFICATE"
	DocIDCard     DocumentKind = "ID_CARD"
	DocCourtOrder DocumentKind = "COURT_ORDER"
	DocEvidence   DocumentKind = "EVIDENCE"
)

func ValidDocumentKind(kind DocumentKind) bool {
	switch kind {
	case DocGeneral, DocResidency, DocIDCard, DocCourtOrder, DocEvidence:
		return true
	}
	return false
}

type Document struct {
	ID         int64          `json:"id"`
	CaseID     int64          `json:"case_id"`
	UploaderID int64          `json:"uploader_id"`
	Title      string         `json:"title"`
	Kind       DocumentKind   `json:"kind"`
	FileURL    string         `json:"file_url"`
	PublicID   string         `json:"-"`
	MimeType   string         `json:"mime_type"`
	SizeBytes  int64          `json:"size_bytes"`
	Status     DocumentStatus `json:"status"`
	Note       string         `json:"note,omitempty"`
	VerifiedBy *int64         `json:"verified_by,omitempty"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type DocumentsStore struct {
	db *pgxpool.Pool
}

func (s *DocumentsStore) Create(ctx context.Context, doc *Document) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO documents (case_id, uploader_id, title, kind, file_url, public_id, mime_type, size_bytes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		doc.CaseID, doc.UploaderID, doc.Title, string(doc.Kind), doc.FileURL,
		doc.PublicID, doc.MimeType, doc.SizeBytes, string(DocumentPending),
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return err
	}
	doc.Status = DocumentPending
	return nil
}

const documentColumns = `id, case_id, uploader_id, title, kind, file_url, public_id, mime_type, size_bytes, status, COALESCE(note, ''), verified_by, verified_at, created_at`

func scanDocument(row pgx.Row, doc *Document) error {
	var kind, status string
	err := row.Scan(
		&doc.ID, &doc.CaseID, &doc.UploaderID, &doc.Title, &kind, &doc.FileURL,
		&doc.PublicID, &doc.MimeType, &doc.SizeBytes, &status, &doc.Note,
		&doc.VerifiedBy, &doc.VerifiedAt, &doc.CreatedAt,
	)
	if err != nil {
		return err
	}
	doc.Kind = DocumentKind(kind)
	doc.Status = DocumentStatus(status)
	return nil
}

func (s *DocumentsStore) GetByID(ctx context.Context, docID int64) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)

	var doc Document
	if err := scanDocument(s.db.QueryRow(ctx, query, docID), &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// GetForClient joins through the owning case so a document on another
// client's case is indistinguishable from a missing one.
func (s *DocumentsStore) GetForClient(ctx context.Context, docID, clientID int64) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT d.id, d.case_id, d.uploader_id, d.title, d.kind, d.file_url, d.public_id,
		       d.mime_type, d.size_bytes, d.status, COALESCE(d.note, ''), d.verified_by, d.verified_at, d.created_at
		FROM documents d
		WHERE d.id = $1 AND EXISTS (
			SELECT 1 FROM cases c WHERE c.id = d.case_id AND c.client_id = $2
		)`

	var doc Document
	if err := scanDocument(s.db.QueryRow(ctx, query, docID, clientID), &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentsStore) ListByCase(ctx context.Context, caseID int64) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM documents WHERE case_id = $1 ORDER BY created_at DESC`, documentColumns)

	rows, err := s.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Verify records the verification decision together with its audit row in
// one transaction; if the audit insert fails the decision is rolled back.
func (s *DocumentsStore) Verify(ctx context.Context, docID int64, status DocumentStatus, verifierID int64, note string) error {
	if !ValidVerificationTarget(status) {
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

	query := `
		UPDATE documents
		SET status = $1, note = $2, verified_by = $3, verified_at = NOW()
		WHERE id = $4
	`
	result, err := tx.Exec(ctx, query, string(status), note, verifierID, docID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := insertAuditTx(ctx, tx, verifierID, "document.verify", "document", docID, fmt.Sprintf("status -> %s", status)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *DocumentsStore) Delete(ctx context.Context, docID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, docID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
