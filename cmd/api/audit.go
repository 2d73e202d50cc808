package main

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// listAuditLogHandler godoc
//
//	@Summary		List recent audit log entries
//	@Description	Returns the newest audit rows first; limit defaults to 50
//	@Tags			audit
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query		int	false	"Max entries to return"
//	@Success		200		{array}		store.AuditLog
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/audit [get]
func (app *application) listAuditLogHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := app.store.Audit.ListRecent(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, entries); err != nil {
		app.internalServerError(w, r, err)
	}
}
