package main

import (
	"errors"
	"net/http"

	"fitih/internal/auth"
	"fitih/internal/notifications"
	"fitih/internal/store"
)

// listCaseMessagesHandler godoc
//
//	@Summary		List a case's messages
//	@Tags			messages
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path	int	true	"Case ID"
//	@Success		200		{array}	store.Message
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/messages [get]
func (app *application) listCaseMessagesHandler(w http.ResponseWriter, r *http.Request) {
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

	messages, err := app.store.Messages.ListByCase(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, messages); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateMessagePayload struct {
	Body string `json:"body" validate:"required,max=5000"`
}

// createCaseMessageHandler godoc
//
//	@Summary		Post a message to a case thread
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int						true	"Case ID"
//	@Param			payload	body		CreateMessagePayload	true	"Message body"
//	@Success		201		{object}	store.Message
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/messages [post]
func (app *application) createCaseMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateMessagePayload
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
		case errors.Is(err, auth.ErrForbidden):
			app.forbiddenResponse(w, r)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	m := &store.Message{
		CaseID:   c.ID,
		SenderID: user.ID,
		Body:     payload.Body,
	}

	if err := app.store.Messages.Create(r.Context(), m); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Notify the other party in the thread.
	if user.ID != c.ClientID {
		app.notifyCaseEvent(c.ClientID, notifications.NewMessagePosted, c.Reference)
	} else if c.LawyerID != nil {
		app.notifyCaseEvent(*c.LawyerID, notifications.NewMessagePosted, c.Reference)
	}

	if err := app.jsonResponse(w, http.StatusCreated, m); err != nil {
		app.internalServerError(w, r, err)
	}
}
