package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fitih/internal/auth"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateTaskPayload struct {
	AssigneeID  int64      `json:"assignee_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueAt       *time.Time `json:"due_at"`
}

// createTaskHandler godoc
//
//	@Summary		Create a task on a case
//	@Description	Coordinators assign follow-up work to lawyers on cases in their office
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path		int					true	"Case ID"
//	@Param			payload	body		CreateTaskPayload	true	"Task details"
//	@Success		201		{object}	store.Task
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/tasks [post]
func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	caseID, err := app.caseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateTaskPayload
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

	assignee, err := app.store.Users.GetByID(r.Context(), payload.AssigneeID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.badRequestResponse(w, r, errors.New("assignee does not exist"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}
	if assignee.Role != auth.RoleLawyer && assignee.Role != auth.RoleCoordinator {
		app.badRequestResponse(w, r, errors.New("tasks can only be assigned to lawyers or coordinators"))
		return
	}

	t := &store.Task{
		CaseID:      c.ID,
		AssigneeID:  assignee.ID,
		CreatedBy:   user.ID,
		Title:       payload.Title,
		Description: payload.Description,
		DueAt:       payload.DueAt,
	}

	if err := app.store.Tasks.Create(r.Context(), t); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, t); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listCaseTasksHandler godoc
//
//	@Summary		List a case's tasks
//	@Tags			tasks
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			caseID	path	int	true	"Case ID"
//	@Success		200		{array}	store.Task
//	@Failure		404		{object}	error
//	@Router			/cases/{caseID}/tasks [get]
func (app *application) listCaseTasksHandler(w http.ResponseWriter, r *http.Request) {
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

	tasks, err := app.store.Tasks.ListByCase(r.Context(), c.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tasks); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMyTasksHandler godoc
//
//	@Summary		List own tasks
//	@Tags			tasks
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.Task
//	@Router			/tasks [get]
func (app *application) listMyTasksHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	tasks, err := app.store.Tasks.ListForAssignee(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tasks); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SetTaskStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// setTaskStatusHandler godoc
//
//	@Summary		Move a task through its lifecycle
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			taskID	path		int						true	"Task ID"
//	@Param			payload	body		SetTaskStatusPayload	true	"Target status"
//	@Success		200		{object}	store.Task
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/tasks/{taskID}/status [patch]
func (app *application) setTaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload SetTaskStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	to := store.TaskStatus(payload.Status)
	if !store.ValidTaskStatus(to) {
		app.badRequestResponse(w, r, store.ErrInvalidStatus)
		return
	}

	t, err := app.store.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Only the assignee or the task's creator may move it.
	if t.AssigneeID != user.ID && t.CreatedBy != user.ID {
		app.notFoundResponse(w, r, store.ErrNotFound)
		return
	}

	if !store.CanTransitionTask(t.Status, to) {
		app.badRequestResponse(w, r, fmt.Errorf("cannot move task from %s to %s", t.Status, to))
		return
	}

	if err := app.store.Tasks.SetStatus(r.Context(), t.ID, to); err != nil {
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

	updated, err := app.store.Tasks.GetByID(r.Context(), t.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}
