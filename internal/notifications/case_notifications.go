package notifications

import (
	"context"
	"errors"
	"fmt"

	"fitih/internal/store"

	"github.com/9ssi7/exponent"
)

type CaseEvent string

const (
	CaseSubmitted     CaseEvent = "SUBMITTED"
	CaseAssignedEvent CaseEvent = "ASSIGNED"
	CaseStatusChanged CaseEvent = "STATUS_CHANGED"
	CaseAppealDecided CaseEvent = "APPEAL_DECIDED"
	DocumentVerified  CaseEvent = "DOCUMENT_VERIFIED"
	AppointmentBooked CaseEvent = "APPOINTMENT_BOOKED"
	NewMessagePosted  CaseEvent = "NEW_MESSAGE"
)

// SendCaseNotification pushes a case-related event to all of the user's
// registered devices. The caller treats failure as non-fatal; the primary
// mutation has already committed.
func SendCaseNotification(ctx context.Context, push PushSender, storage *store.Storage, userID int64, event CaseEvent, reference string) error {
	tokens, err := storage.PushTokens.GetTokensByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	var title, body string
	switch event {
	case CaseSubmitted:
		title = "Case Received"
		body = fmt.Sprintf("Your case %s has been received and is awaiting triage.", reference)
	case CaseAssignedEvent:
		title = "Lawyer Assigned"
		body = fmt.Sprintf("A lawyer has been assigned to your case %s.", reference)
	case CaseStatusChanged:
		title = "Case Update"
		body = fmt.Sprintf("Your case %s has a status update.", reference)
	case CaseAppealDecided:
		title = "Appeal Decision"
		body = fmt.Sprintf("A decision has been made on your appeal for case %s.", reference)
	case DocumentVerified:
		title = "Document Reviewed"
		body = fmt.Sprintf("A document on your case %s has been reviewed.", reference)
	case AppointmentBooked:
		title = "Appointment Scheduled"
		body = fmt.Sprintf("An appointment has been scheduled for your case %s.", reference)
	case NewMessagePosted:
		title = "New Message"
		body = fmt.Sprintf("You have a new message on case %s.", reference)
	default:
		title = "Case Update"
		body = fmt.Sprintf("Your case %s has an update.", reference)
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data:  map[string]string{"reference": reference, "event": string(event)},
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}
