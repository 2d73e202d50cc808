package main

import (
	"errors"
	"net/http"
	"strconv"

	"fitih/internal/auth"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

// getCurrentUserHandler godoc
//
//	@Summary		Current user profile
//	@Tags			users
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	store.User
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,ethiopianphone"`
	Kebele    *string `json:"kebele" validate:"omitempty,max=100"`
}

// updateUserHandler godoc
//
//	@Summary		Update own profile
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		UpdateUserPayload	true	"Fields to update"
//	@Success		200		{object}	store.User
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/users [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.FirstName != nil {
		updates["first_name"] = *payload.FirstName
	}
	if payload.LastName != nil {
		updates["last_name"] = *payload.LastName
	}
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}
	if payload.Kebele != nil {
		updates["kebele"] = *payload.Kebele
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Users.Update(r.Context(), user.ID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	updated, err := app.store.Users.GetByID(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listUsersHandler godoc
//
//	@Summary		List users
//	@Description	Admin listing, optionally filtered by role
//	@Tags			users
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			role	query		string	false	"Role filter"
//	@Success		200		{array}		store.User
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/users [get]
func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	var role auth.Role
	if q := r.URL.Query().Get("role"); q != "" {
		parsed, err := auth.ParseRole(q)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		role = parsed
	}

	users, err := app.store.Users.List(r.Context(), role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, users); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SetUserStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// setUserStatusHandler godoc
//
//	@Summary		Set a user's status
//	@Description	Suspends or reactivates an account; suspension takes effect on the next request
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			userID	path		int						true	"User ID"
//	@Param			payload	body		SetUserStatusPayload	true	"New status"
//	@Success		200		{object}	string
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/users/{userID}/status [patch]
func (app *application) setUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload SetUserStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	status := store.UserStatus(payload.Status)
	if !store.ValidUserStatus(status) {
		app.badRequestResponse(w, r, store.ErrInvalidStatus)
		return
	}

	if err := app.store.Users.SetStatus(r.Context(), userID, status); err != nil {
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

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": string(status)}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type PushTokenPayload struct {
	Token string `json:"token" validate:"required"`
}

// registerPushTokenHandler godoc
//
//	@Summary		Register an Expo push token
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		PushTokenPayload	true	"Expo push token"
//	@Success		201		{object}	string
//	@Router			/users/push-tokens [post]
func (app *application) registerPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload PushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.Register(r.Context(), user.ID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, map[string]string{"status": "registered"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePushTokenHandler godoc
//
//	@Summary		Remove an Expo push token
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		PushTokenPayload	true	"Expo push token"
//	@Success		200		{object}	string
//	@Router			/users/push-tokens [delete]
func (app *application) deletePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload PushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.Delete(r.Context(), user.ID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
