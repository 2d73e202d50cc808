package main

import (
	"errors"
	"net/http"
	"strconv"

	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

// listOfficesHandler godoc
//
//	@Summary		List legal-aid offices
//	@Tags			offices
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.Office
//	@Router			/offices [get]
func (app *application) listOfficesHandler(w http.ResponseWriter, r *http.Request) {
	offices, err := app.store.Offices.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, offices); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateOfficePayload struct {
	Name   string `json:"name" validate:"required,max=200"`
	Region string `json:"region" validate:"required,max=100"`
	City   string `json:"city" validate:"required,max=100"`
	Kebele string `json:"kebele" validate:"max=100"`
	Phone  string `json:"phone" validate:"omitempty,ethiopianphone"`
}

// createOfficeHandler godoc
//
//	@Summary		Create an office
//	@Tags			offices
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		CreateOfficePayload	true	"Office details"
//	@Success		201		{object}	store.Office
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/offices [post]
func (app *application) createOfficeHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateOfficePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	office := &store.Office{
		Name:   payload.Name,
		Region: payload.Region,
		City:   payload.City,
		Kebele: payload.Kebele,
		Phone:  payload.Phone,
	}

	if err := app.store.Offices.Create(r.Context(), office); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, office); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateOfficePayload struct {
	Name   *string `json:"name" validate:"omitempty,max=200"`
	Region *string `json:"region" validate:"omitempty,max=100"`
	City   *string `json:"city" validate:"omitempty,max=100"`
	Kebele *string `json:"kebele" validate:"omitempty,max=100"`
	Phone  *string `json:"phone" validate:"omitempty,ethiopianphone"`
}

// updateOfficeHandler godoc
//
//	@Summary		Update an office
//	@Tags			offices
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			officeID	path		int					true	"Office ID"
//	@Param			payload		body		UpdateOfficePayload	true	"Fields to update"
//	@Success		200			{object}	store.Office
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error
//	@Router			/offices/{officeID} [patch]
func (app *application) updateOfficeHandler(w http.ResponseWriter, r *http.Request) {
	officeID, err := strconv.ParseInt(chi.URLParam(r, "officeID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateOfficePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.Region != nil {
		updates["region"] = *payload.Region
	}
	if payload.City != nil {
		updates["city"] = *payload.City
	}
	if payload.Kebele != nil {
		updates["kebele"] = *payload.Kebele
	}
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Offices.Update(r.Context(), officeID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	office, err := app.store.Offices.GetByID(r.Context(), officeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, office); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteOfficeHandler godoc
//
//	@Summary		Delete an office
//	@Tags			offices
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			officeID	path		int	true	"Office ID"
//	@Success		200			{object}	string
//	@Failure		404			{object}	error
//	@Router			/offices/{officeID} [delete]
func (app *application) deleteOfficeHandler(w http.ResponseWriter, r *http.Request) {
	officeID, err := strconv.ParseInt(chi.URLParam(r, "officeID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Offices.Delete(r.Context(), officeID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
