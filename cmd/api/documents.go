package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fitih/internal/auth"
	"fitih/internal/notifications"
	"fitih/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxDocumentSize = 10 << 20 // 10mb

var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// uploadDocumentHandler godoc
//
//	@Summary		Upload a document to a case
//	@Description	Accepts a multipart upload, stores the file in Cloudinary and records it as PENDING
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int		true	"Case ID"
//	@Param			file	formData	file	true	"Document file (pdf, jpeg or png)"
//	@Param			title	formData	string	true	"Document title"
//	@Param			kind	formData	string	false	"Document kind"
//	@Success		201		{object}	store.Document
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/documents [post]
func (app *application) uploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		app.badRequestResponse(w, r, errors.New("file too large or malformed form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("unable to retrieve file"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedDocumentTypes[contentType] {
		app.badRequestResponse(w, r, errors.New("only pdf, jpeg and png files are allowed"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		app.badRequestResponse(w, r, errors.New("title is required"))
		return
	}

	kind := store.DocGeneral
	if k := r.FormValue("kind"); k != "" {
		kind = store.DocumentKind(k)
		if !store.ValidDocumentKind(kind) {
			app.badRequestResponse(w, r, fmt.Errorf("unknown document kind %q", k))
			return
		}
	}

	publicID := fmt.Sprintf("case_%d_%s", c.ID, uuid.New().String())
	uploadResult, err := app.cld.Upload.Upload(r.Context(), file, uploader.UploadParams{
		Folder:    "case_documents",
		PublicID:  publicID,
		Overwrite: api.Bool(false),
	})
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("cloudinary upload: %w", err))
		return
	}

	doc := &store.Document{
		CaseID:     c.ID,
		UploaderID: user.ID,
		Title:      title,
		Kind:       kind,
		FileURL:    uploadResult.SecureURL,
		PublicID:   uploadResult.PublicID,
		MimeType:   contentType,
		SizeBytes:  header.Size,
	}

	if err := app.store.Documents.Create(r.Context(), doc); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, doc); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listCaseDocumentsHandler godoc
//
//	@Summary		List a case's documents
//	@Tags			documents
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path	int	true	"Case ID"
//	@Success		200		{array}	store.Document
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/documents [get]
func (app *application) listCaseDocumentsHandler(w http.ResponseWriter, r *http.Request) {
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

	docs, err := app.store.Documents.ListByCase(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, docs); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getDocumentForIdentity resolves a document through the requester's role
// scope, mirroring case visibility. Kebele managers additionally see
// residency certificates, which they are responsible for verifying.
func (app *application) getDocumentForIdentity(r *http.Request, user *store.User, docID int64) (*store.Document, error) {
	if user.Role == auth.RoleClient {
		return app.store.Documents.GetForClient(r.Context(), docID, user.ID)
	}

	doc, err := app.store.Documents.GetByID(r.Context(), docID)
	if err != nil {
		return nil, err
	}

	switch user.Role {
	case auth.RoleKebeleManager:
		if doc.Kind != store.DocResidency {
			return nil, store.ErrNotFound
		}
		return doc, nil
	case auth.RoleAdmin, auth.RoleSuperAdmin:
		return doc, nil
	default:
		if _, err := app.getCaseForIdentity(r.Context(), user, doc.CaseID); err != nil {
			return nil, store.ErrNotFound
		}
		return doc, nil
	}
}

// getDocumentHandler godoc
//
//	@Summary		Get a document
//	@Tags			documents
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			documentID	path		int	true	"Document ID"
//	@Success		200			{object}	store.Document
//	@Failure		404			{object}	error
//	@Router			/documents/{documentID} [get]
func (app *application) getDocumentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	docID, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	doc, err := app.getDocumentForIdentity(r, user, docID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, doc); err != nil {
		app.internalServerError(w, r, err)
	}
}

type VerifyDocumentPayload struct {
	Status string `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	Note   string `json:"note" validate:"max=1000"`
}

// verifyDocumentHandler godoc
//
//	@Summary		Verify or reject a document
//	@Description	Residency certificates are decided by kebele managers, everything else by coordinators
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			documentID	path		int						true	"Document ID"
//	@Param			payload		body		VerifyDocumentPayload	true	"Verification decision"
//	@Success		200			{object}	store.Document
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Router			/documents/{documentID}/verify [post]
func (app *application) verifyDocumentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	docID, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload VerifyDocumentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	doc, err := app.store.Documents.GetByID(r.Context(), docID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// The verifying role depends on the document kind, not just the route.
	if doc.Kind == store.DocResidency {
		if user.Role != auth.RoleKebeleManager {
			app.forbiddenResponse(w, r)
			return
		}
	} else if user.Role != auth.RoleCoordinator {
		app.forbiddenResponse(w, r)
		return
	}

	if doc.Status != store.DocumentPending {
		app.badRequestResponse(w, r, fmt.Errorf("document has already been reviewed (%s)", doc.Status))
		return
	}

	status := store.DocumentStatus(payload.Status)
	if err := app.store.Documents.Verify(r.Context(), doc.ID, status, user.ID, payload.Note); err != nil {
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

	if c, err := app.store.Cases.GetByID(r.Context(), doc.CaseID); err == nil {
		app.notifyCaseEvent(c.ClientID, notifications.DocumentVerified, c.Reference)
	}

	updated, err := app.store.Documents.GetByID(r.Context(), doc.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteDocumentHandler godoc
//
//	@Summary		Delete a document
//	@Description	Uploaders can remove their own pending documents; admins can remove any
//	@Tags			documents
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			documentID	path		int	true	"Document ID"
//	@Success		200			{object}	string
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error
//	@Router			/documents/{documentID} [delete]
func (app *application) deleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	docID, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	doc, err := app.getDocumentForIdentity(r, user, docID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	isAdmin := user.Role == auth.RoleAdmin || user.Role == auth.RoleSuperAdmin
	if !isAdmin {
		if doc.UploaderID != user.ID {
			app.notFoundResponse(w, r, store.ErrNotFound)
			return
		}
		if doc.Status != store.DocumentPending {
			app.badRequestResponse(w, r, errors.New("reviewed documents cannot be deleted"))
			return
		}
	}

	if err := app.store.Documents.Delete(r.Context(), doc.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Best effort; an orphaned asset is preferable to a dangling DB row.
	if doc.PublicID != "" {
		if _, err := app.cld.Upload.Destroy(r.Context(), uploader.DestroyParams{PublicID: doc.PublicID}); err != nil {
			app.logger.Warnw("failed to delete cloudinary asset", "public_id", doc.PublicID, "error", err)
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
