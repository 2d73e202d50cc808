package store

import (
	"context"
	"errors"
	"time"

	"fitih/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrInvalidStatus     = errors.New("invalid status value")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		CreateAndInvite(ctx context.Context, user *User, invitationToken string, exp time.Duration) error
		Activate(ctx context.Context, token string) error
		GetByID(ctx context.Context, userID int64) (*User, error)
		GetByEmail(ctx context.Context, email string) (*User, error)
		List(ctx context.Context, role auth.Role) ([]User, error)
		Update(ctx context.Context, userID int64, updates map[string]interface{}) error
		SetStatus(ctx context.Context, userID int64, status UserStatus) error
		SaveRefreshToken(ctx context.Context, userID int64, token string) error
		ClearRefreshToken(ctx context.Context, userID int64) error
	}
	Offices interface {
		Create(ctx context.Context, office *Office) error
		GetByID(ctx context.Context, officeID int64) (*Office, error)
		List(ctx context.Context) ([]Office, error)
		Update(ctx context.Context, officeID int64, updates map[string]interface{}) error
		Delete(ctx context.Context, officeID int64) error
	}
	Cases interface {
		Create(ctx context.Context, c *Case) error
		GetByID(ctx context.Context, caseID int64) (*Case, error)
		GetForClient(ctx context.Context, caseID, clientID int64) (*Case, error)
		GetForLawyer(ctx context.Context, caseID, lawyerID int64) (*Case, error)
		GetForOffice(ctx context.Context, caseID, officeID int64) (*Case, error)
		ListForClient(ctx context.Context, clientID int64) ([]Case, error)
		ListForLawyer(ctx context.Context, lawyerID int64) ([]Case, error)
		ListForOffice(ctx context.Context, officeID int64) ([]Case, error)
		ListAll(ctx context.Context) ([]Case, error)
		Assign(ctx context.Context, caseID, lawyerID, actorID int64) error
		SetStatus(ctx context.Context, caseID int64, to CaseStatus, actorID int64, action string) error
	}
	Documents interface {
		Create(ctx context.Context, doc *Document) error
		GetByID(ctx context.Context, docID int64) (*Document, error)
		GetForClient(ctx context.Context, docID, clientID int64) (*Document, error)
		ListByCase(ctx context.Context, caseID int64) ([]Document, error)
		Verify(ctx context.Context, docID int64, status DocumentStatus, verifierID int64, note string) error
		Delete(ctx context.Context, docID int64) error
	}
	Appointments interface {
		Create(ctx context.Context, appt *Appointment) error
		GetByID(ctx context.Context, apptID int64) (*Appointment, error)
		GetForClient(ctx context.Context, apptID, clientID int64) (*Appointment, error)
		GetForLawyer(ctx context.Context, apptID, lawyerID int64) (*Appointment, error)
		ListForClient(ctx context.Context, clientID int64) ([]Appointment, error)
		ListForLawyer(ctx context.Context, lawyerID int64) ([]Appointment, error)
		ListAll(ctx context.Context) ([]Appointment, error)
		SetStatus(ctx context.Context, apptID int64, to AppointmentStatus) error
	}
	Notifications interface {
		Create(ctx context.Context, n *Notification) error
		ListForUser(ctx context.Context, userID int64) ([]Notification, error)
		UnreadCount(ctx context.Context, userID int64) (int64, error)
		MarkRead(ctx context.Context, notificationID, userID int64) error
		MarkAllRead(ctx context.Context, userID int64) (int64, error)
	}
	Messages interface {
		Create(ctx context.Context, m *Message) error
		ListByCase(ctx context.Context, caseID int64) ([]Message, error)
	}
	SMS interface {
		Create(ctx context.Context, m *SMSMessage) error
		GetByID(ctx context.Context, smsID int64) (*SMSMessage, error)
		List(ctx context.Context) ([]SMSMessage, error)
		UpdateStatus(ctx context.Context, smsID int64, status SMSStatus, providerRef, failReason string) error
		UpdateStatusByProviderRef(ctx context.Context, providerRef string, status SMSStatus, failReason string) error
	}
	Tasks interface {
		Create(ctx context.Context, t *Task) error
		GetByID(ctx context.Context, taskID int64) (*Task, error)
		ListForAssignee(ctx context.Context, assigneeID int64) ([]Task, error)
		ListByCase(ctx context.Context, caseID int64) ([]Task, error)
		SetStatus(ctx context.Context, taskID int64, to TaskStatus) error
	}
	Settings interface {
		GetAll(ctx context.Context) ([]Setting, error)
		BatchUpdate(ctx context.Context, values map[string]string, actorID int64) error
	}
	Audit interface {
		ListRecent(ctx context.Context, limit int) ([]AuditLog, error)
	}
	PushTokens interface {
		Register(ctx context.Context, userID int64, token string) error
		Delete(ctx context.Context, userID int64, token string) error
		GetTokensByUserID(ctx context.Context, userID int64) ([]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:         &UsersStore{db},
		Offices:       &OfficesStore{db},
		Cases:         &CasesStore{db},
		Documents:     &DocumentsStore{db},
		Appointments:  &AppointmentsStore{db},
		Notifications: &NotificationsStore{db},
		Messages:      &MessagesStore{db},
		SMS:           &SMSStore{db},
		Tasks:         &TasksStore{db},
		Settings:      &SettingsStore{db},
		Audit:         &AuditStore{db},
		PushTokens:    &PushTokensStore{db},
	}
}
