package main

import (
	"errors"
	"net/http"
)

// getSettingsHandler godoc
//
//	@Summary		List system settings
//	@Tags			settings
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.Setting
//	@Router			/settings [get]
func (app *application) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := app.store.Settings.GetAll(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, settings); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateSettingsPayload struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

// updateSettingsHandler godoc
//
//	@Summary		Update system settings
//	@Description	Upserts all given keys atomically; partial application never happens
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body	UpdateSettingsPayload	true	"Settings to upsert"
//	@Success		200		{array}	store.Setting
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/settings [put]
func (app *application) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload UpdateSettingsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	for key := range payload.Values {
		if key == "" {
			app.badRequestResponse(w, r, errors.New("setting keys must not be empty"))
			return
		}
	}

	if err := app.store.Settings.BatchUpdate(r.Context(), payload.Values, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	settings, err := app.store.Settings.GetAll(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, settings); err != nil {
		app.internalServerError(w, r, err)
	}
}
