package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fitih/internal/auth"
	"fitih/internal/mailer"
	"fitih/internal/notifications"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

// getCaseForIdentity resolves a case through the requester's role scope.
// Clients see their own cases, lawyers their assigned ones, coordinators
// their office's; admins see everything. A case outside the scope surfaces
// as ErrNotFound, identical to a case that does not exist.
func (app *application) getCaseForIdentity(ctx context.Context, user *store.User, caseID int64) (*store.Case, error) {
	switch user.Role {
	case auth.RoleClient:
		return app.store.Cases.GetForClient(ctx, caseID, user.ID)
	case auth.RoleLawyer:
		return app.store.Cases.GetForLawyer(ctx, caseID, user.ID)
	case auth.RoleCoordinator:
		if user.OfficeID == nil {
			return nil, store.ErrNotFound
		}
		return app.store.Cases.GetForOffice(ctx, caseID, *user.OfficeID)
	case auth.RoleAdmin, auth.RoleSuperAdmin:
		return app.store.Cases.GetByID(ctx, caseID)
	default:
		return nil, auth.ErrForbidden
	}
}

func (app *application) caseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "caseID"), 10, 64)
}

// notifyCaseEvent fires a push notification after the mutation has
// committed. Failures are logged, never surfaced to the client.
func (app *application) notifyCaseEvent(userID int64, event notifications.CaseEvent, reference string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := notifications.SendCaseNotification(ctx, app.push, &app.store, userID, event, reference); err != nil {
			app.logger.Warnw("push notification failed", "user_id", userID, "event", event, "error", err)
		}
	}()
}

// emailCaseUpdate mails the client about a status change. Best effort; the
// status has already committed.
func (app *application) emailCaseUpdate(clientID int64, reference, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := app.store.Users.GetByID(ctx, clientID)
		if err != nil || client.Email == "" {
			return
		}

		vars := struct {
			Username  string
			Reference string
			Message   string
		}{client.FirstName, reference, fmt.Sprintf("The case status is now %s.", status)}

		if _, err := app.mailer.Send(mailer.CaseUpdateTemplate, client.FirstName, client.Email, vars); err != nil {
			app.logger.Warnw("case update email failed", "client_id", clientID, "error", err)
		}
	}()
}

type CreateCasePayload struct {
	Category    string `json:"category" validate:"required,max=100"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Priority    string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

// createCaseHandler godoc
//
//	@Summary		Submit a case
//	@Description	Opens a new legal-aid case for the authenticated client
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		CreateCasePayload	true	"Case details"
//	@Success		201		{object}	store.Case
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/cases [post]
func (app *application) createCaseHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateCasePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reference, err := app.caseRefs.Generate(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	c := &store.Case{
		Reference:   reference,
		ClientID:    user.ID,
		OfficeID:    user.OfficeID,
		Category:    payload.Category,
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    payload.Priority,
	}

	if err := app.store.Cases.Create(r.Context(), c); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyCaseEvent(user.ID, notifications.CaseSubmitted, c.Reference)

	if err := app.jsonResponse(w, http.StatusCreated, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listCasesHandler godoc
//
//	@Summary		List cases
//	@Description	Lists the cases visible to the requester's role scope
//	@Tags			cases
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.Case
//	@Router			/cases [get]
func (app *application) listCasesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var (
		cases []store.Case
		err   error
	)

	switch user.Role {
	case auth.RoleClient:
		cases, err = app.store.Cases.ListForClient(r.Context(), user.ID)
	case auth.RoleLawyer:
		cases, err = app.store.Cases.ListForLawyer(r.Context(), user.ID)
	case auth.RoleCoordinator:
		if user.OfficeID == nil {
			cases = []store.Case{}
		} else {
			cases, err = app.store.Cases.ListForOffice(r.Context(), *user.OfficeID)
		}
	case auth.RoleAdmin, auth.RoleSuperAdmin:
		cases, err = app.store.Cases.ListAll(r.Context())
	default:
		app.forbiddenResponse(w, r)
		return
	}

	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, cases); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCaseHandler godoc
//
//	@Summary		Get a case
//	@Tags			cases
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int	true	"Case ID"
//	@Success		200		{object}	store.Case
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID} [get]
func (app *application) getCaseHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.getCaseForIdentity(r.Context(), user, caseID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, auth.ErrForbidden):
			app.forbiddenResponse(w, r)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AssignCasePayload struct {
	LawyerID int64 `json:"lawyer_id" validate:"required"`
}

// assignCaseHandler godoc
//
//	@Summary		Assign a lawyer to a case
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int					true	"Case ID"
//	@Param			payload	body		AssignCasePayload	true	"Lawyer to assign"
//	@Success		200		{object}	store.Case
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/assign [post]
func (app *application) assignCaseHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload AssignCasePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.getCaseForIdentity(r.Context(), user, caseID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !store.CanTransitionCase(c.Status, store.CaseAssigned) {
		app.badRequestResponse(w, r, fmt.Errorf("cannot assign a case in status %s", c.Status))
		return
	}

	lawyer, err := app.store.Users.GetByID(r.Context(), payload.LawyerID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.badRequestResponse(w, r, errors.New("assignee does not exist"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}
	if lawyer.Role != auth.RoleLawyer {
		app.badRequestResponse(w, r, errors.New("assignee is not a lawyer"))
		return
	}

	if err := app.store.Cases.Assign(r.Context(), c.ID, lawyer.ID, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.notifyCaseEvent(c.ClientID, notifications.CaseAssignedEvent, c.Reference)
	app.notifyCaseEvent(lawyer.ID, notifications.CaseAssignedEvent, c.Reference)

	updated, err := app.store.Cases.GetByID(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SetCaseStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// setCaseStatusHandler godoc
//
//	@Summary		Move a case through its lifecycle
//	@Description	Applies a status transition; appeal statuses go through the appeal endpoints
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int						true	"Case ID"
//	@Param			payload	body		SetCaseStatusPayload	true	"Target status"
//	@Success		200		{object}	store.Case
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/status [patch]
func (app *application) setCaseStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload SetCaseStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	to := store.CaseStatus(payload.Status)
	if !store.ValidCaseStatus(to) {
		app.badRequestResponse(w, r, store.ErrInvalidStatus)
		return
	}

	switch to {
	case store.CaseAppealed, store.CaseAppealGranted, store.CaseAppealDenied:
		app.badRequestResponse(w, r, errors.New("appeal statuses are set through the appeal endpoints"))
		return
	}

	c, err := app.getCaseForIdentity(r.Context(), user, caseID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !store.CanTransitionCase(c.Status, to) {
		app.badRequestResponse(w, r, fmt.Errorf("cannot move case from %s to %s", c.Status, to))
		return
	}

	if err := app.store.Cases.SetStatus(r.Context(), c.ID, to, user.ID, "case.status"); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrInvalidStatus):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.notifyCaseEvent(c.ClientID, notifications.CaseStatusChanged, c.Reference)
	app.emailCaseUpdate(c.ClientID, c.Reference, string(to))

	updated, err := app.store.Cases.GetByID(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// appealCaseHandler godoc
//
//	@Summary		Appeal a closed case
//	@Description	The owning client can appeal a case once it is closed
//	@Tags			cases
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int	true	"Case ID"
//	@Success		200		{object}	store.Case
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/appeal [post]
func (app *application) appealCaseHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Cases.GetForClient(r.Context(), caseID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !store.CanTransitionCase(c.Status, store.CaseAppealed) {
		app.badRequestResponse(w, r, fmt.Errorf("cannot appeal a case in status %s", c.Status))
		return
	}

	if err := app.store.Cases.SetStatus(r.Context(), c.ID, store.CaseAppealed, user.ID, "case.appeal"); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	updated, err := app.store.Cases.GetByID(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

type DecideAppealPayload struct {
	Decision string `json:"decision" validate:"required,oneof=GRANTED DENIED"`
}

// decideAppealHandler godoc
//
//	@Summary		Decide an appeal
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int					true	"Case ID"
//	@Param			payload	body		DecideAppealPayload	true	"Appeal decision"
//	@Success		200		{object}	store.Case
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/appeal/decision [post]
func (app *application) decideAppealHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload DecideAppealPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.getCaseForIdentity(r.Context(), user, caseID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	to := store.CaseAppealGranted
	if payload.Decision == "DENIED" {
		to = store.CaseAppealDenied
	}

	if !store.CanTransitionCase(c.Status, to) {
		app.badRequestResponse(w, r, fmt.Errorf("case in status %s has no pending appeal", c.Status))
		return
	}

	if err := app.store.Cases.SetStatus(r.Context(), c.ID, to, user.ID, "case.appeal_decision"); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyCaseEvent(c.ClientID, notifications.CaseAppealDecided, c.Reference)

	updated, err := app.store.Cases.GetByID(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}
