package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fitih/internal/notifications"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateNotificationPayload struct {
	UserID  int64  `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
	Type    string `json:"type" validate:"required"`
}

type CreateNotificationResponse struct {
	Success      bool                `json:"success"`
	Notification *store.Notification `json:"notification"`
}

// createNotificationHandler godoc
//
//	@Summary		Create a notification
//	@Description	Creates an in-app notification for a user; it starts UNREAD
//	@Tags			notifications
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		CreateNotificationPayload	true	"Notification"
//	@Success		201		{object}	CreateNotificationResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/notifications/create [post]
func (app *application) createNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateNotificationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ntype := store.NotificationType(payload.Type)
	if !store.ValidNotificationType(ntype) {
		app.badRequestResponse(w, r, fmt.Errorf("unknown notification type %q", payload.Type))
		return
	}

	if _, err := app.store.Users.GetByID(r.Context(), payload.UserID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.badRequestResponse(w, r, errors.New("recipient does not exist"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	n := &store.Notification{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Message: payload.Message,
		Type:    ntype,
	}

	if err := app.store.Notifications.Create(r.Context(), n); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Push delivery is best effort; the notification row is the record.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := notifications.SendDirectNotification(ctx, app.push, &app.store, n.UserID, n.Title, n.Message); err != nil {
			app.logger.Warnw("push notification failed", "user_id", n.UserID, "error", err)
		}
	}()

	resp := CreateNotificationResponse{
		Success:      true,
		Notification: n,
	}

	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listNotificationsHandler godoc
//
//	@Summary		List own notifications
//	@Tags			notifications
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.Notification
//	@Router			/notifications [get]
func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.store.Notifications.ListForUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// unreadNotificationCountHandler godoc
//
//	@Summary		Count unread notifications
//	@Tags			notifications
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]int64
//	@Router			/notifications/unread-count [get]
func (app *application) unreadNotificationCountHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	count, err := app.store.Notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int64{"unread": count}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// markNotificationReadHandler godoc
//
//	@Summary		Mark a notification as read
//	@Description	Idempotent; marking an already-read notification succeeds
//	@Tags			notifications
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			notificationID	path		int	true	"Notification ID"
//	@Success		200				{object}	string
//	@Failure		404				{object}	error
//	@Router			/notifications/{notificationID}/read [patch]
func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Notifications.MarkRead(r.Context(), notificationID, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "read"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// markAllNotificationsReadHandler godoc
//
//	@Summary		Mark all notifications as read
//	@Tags			notifications
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]int64
//	@Router			/notifications/read-all [patch]
func (app *application) markAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	updated, err := app.store.Notifications.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int64{"updated": updated}); err != nil {
		app.internalServerError(w, r, err)
	}
}
