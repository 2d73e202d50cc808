package mailer

import "embed"

const (
	FromName            = "Fitih Legal Aid"
	maxRetries          = 3
	UserWelcomeTemplate = "user_invitation.tmpl"
	CaseUpdateTemplate  = "case_update.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
