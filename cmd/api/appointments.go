package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fitih/internal/auth"
	"fitih/internal/notifications"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateAppointmentPayload struct {
	CaseID      int64     `json:"case_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

// createAppointmentHandler godoc
//
//	@Summary		Schedule an appointment
//	@Description	Books a meeting between the case's client and its assigned lawyer
//	@Tags			appointments
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		CreateAppointmentPayload	true	"Appointment details"
//	@Success		201		{object}	store.Appointment
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/appointments [post]
func (app *application) createAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateAppointmentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.ScheduledAt.Before(time.Now()) {
		app.badRequestResponse(w, r, errors.New("scheduled_at must be in the future"))
		return
	}

	c, err := app.getCaseForIdentity(r.Context(), user, payload.CaseID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if c.LawyerID == nil {
		app.badRequestResponse(w, r, errors.New("case has no assigned lawyer"))
		return
	}

	appt := &store.Appointment{
		CaseID:      c.ID,
		ClientID:    c.ClientID,
		LawyerID:    *c.LawyerID,
		ScheduledAt: payload.ScheduledAt,
		Location:    payload.Location,
		Notes:       payload.Notes,
	}

	if err := app.store.Appointments.Create(r.Context(), appt); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyCaseEvent(c.ClientID, notifications.AppointmentBooked, c.Reference)
	app.sendAppointmentSMS(c.ClientID, c.Reference, appt.ScheduledAt, appt.Location)

	if err := app.jsonResponse(w, http.StatusCreated, appt); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sendAppointmentSMS texts the client about the booking. Best effort; the
// appointment row has already committed.
func (app *application) sendAppointmentSMS(clientID int64, reference string, at time.Time, location string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := app.store.Users.GetByID(ctx, clientID)
		if err != nil || client.Phone == "" {
			return
		}

		m := &store.SMSMessage{
			RecipientID: &clientID,
			Phone:       client.Phone,
			Body: fmt.Sprintf("Fitih: an appointment for case %s is scheduled on %s at %s.",
				reference, at.Format("02 Jan 2006 15:04"), location),
		}
		if err := app.store.SMS.Create(ctx, m); err != nil {
			app.logger.Warnw("failed to queue appointment sms", "client_id", clientID, "error", err)
			return
		}

		app.dispatchSMS(ctx, m)
	}()
}

// listAppointmentsHandler godoc
//
//	@Summary		List appointments
//	@Description	Lists appointments visible to the requester's role scope
//	@Tags			appointments
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.Appointment
//	@Router			/appointments [get]
func (app *application) listAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var (
		appts []store.Appointment
		err   error
	)

	switch user.Role {
	case auth.RoleClient:
		appts, err = app.store.Appointments.ListForClient(r.Context(), user.ID)
	case auth.RoleLawyer:
		appts, err = app.store.Appointments.ListForLawyer(r.Context(), user.ID)
	case auth.RoleCoordinator, auth.RoleAdmin, auth.RoleSuperAdmin:
		appts, err = app.store.Appointments.ListAll(r.Context())
	default:
		app.forbiddenResponse(w, r)
		return
	}

	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, appts); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getAppointmentForIdentity(r *http.Request, user *store.User, apptID int64) (*store.Appointment, error) {
	switch user.Role {
	case auth.RoleClient:
		return app.store.Appointments.GetForClient(r.Context(), apptID, user.ID)
	case auth.RoleLawyer:
		return app.store.Appointments.GetForLawyer(r.Context(), apptID, user.ID)
	case auth.RoleCoordinator, auth.RoleAdmin, auth.RoleSuperAdmin:
		return app.store.Appointments.GetByID(r.Context(), apptID)
	default:
		return nil, auth.ErrForbidden
	}
}

// getAppointmentHandler godoc
//
//	@Summary		Get an appointment
//	@Tags			appointments
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			appointmentID	path		int	true	"Appointment ID"
//	@Success		200				{object}	store.Appointment
//	@Failure		404				{object}	error
//	@Router			/appointments/{appointmentID} [get]
func (app *application) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	apptID, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	appt, err := app.getAppointmentForIdentity(r, user, apptID)
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

	if err := app.jsonResponse(w, http.StatusOK, appt); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SetAppointmentStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// setAppointmentStatusHandler godoc
//
//	@Summary		Update an appointment's status
//	@Tags			appointments
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			appointmentID	path		int							true	"Appointment ID"
//	@Param			payload			body		SetAppointmentStatusPayload	true	"New status"
//	@Success		200				{object}	store.Appointment
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Router			/appointments/{appointmentID}/status [patch]
func (app *application) setAppointmentStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	apptID, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload SetAppointmentStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	to := store.AppointmentStatus(payload.Status)
	if !store.ValidAppointmentStatus(to) {
		app.badRequestResponse(w, r, store.ErrInvalidStatus)
		return
	}

	appt, err := app.getAppointmentForIdentity(r, user, apptID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if appt.Status != store.AppointmentScheduled {
		app.badRequestResponse(w, r, fmt.Errorf("appointment is already %s", appt.Status))
		return
	}

	if err := app.store.Appointments.SetStatus(r.Context(), appt.ID, to); err != nil {
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

	updated, err := app.store.Appointments.GetByID(r.Context(), appt.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}
