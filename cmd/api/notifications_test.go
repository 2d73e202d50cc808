package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitih/internal/auth"
	"fitih/internal/store"
)

func TestCreateNotificationResponseShape(t *testing.T) {
	app := newTestApp(t)
	app.store = store.Storage{
		Users: &stubUsersStore{users: map[int64]*store.User{
			5: {ID: 5, Email: "almaz@example.com", Role: auth.RoleClient, Status: store.StatusActive},
		}},
		Notifications: &stubNotificationsStore{notifications: map[int64]*store.Notification{}},
		PushTokens:    &stubPushTokensStore{},
	}

	body := bytes.NewBufferString(`{"user_id":5,"title":"Case Update","message":"Your case moved forward","type":"CASE_UPDATE"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/create", body)
	rr := executeRequest(req, http.HandlerFunc(app.createNotificationHandler))

	checkResponseCode(t, http.StatusCreated, rr.Code)

	var resp struct {
		Success      bool                `json:"success"`
		Notification *store.Notification `json:"notification"`
		Data         json.RawMessage     `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if resp.Notification == nil {
		t.Fatal("expected top-level notification object")
	}
	if resp.Notification.Status != store.NotificationUnread {
		t.Errorf("expected new notification to be UNREAD, got %s", resp.Notification.Status)
	}
	if len(resp.Data) != 0 {
		t.Error("notification create must not wrap the payload in data")
	}
}

func TestCreateNotificationValidation(t *testing.T) {
	app := newTestApp(t)
	app.store = store.Storage{
		Users:         &stubUsersStore{users: map[int64]*store.User{}},
		Notifications: &stubNotificationsStore{notifications: map[int64]*store.Notification{}},
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown type", `{"user_id":5,"title":"t","message":"m","type":"BOGUS"}`, http.StatusBadRequest},
		{"missing title", `{"user_id":5,"message":"m","type":"CASE_UPDATE"}`, http.StatusBadRequest},
		{"unknown recipient", `{"user_id":404,"title":"t","message":"m","type":"CASE_UPDATE"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/notifications/create", bytes.NewBufferString(tc.body))
			rr := executeRequest(req, http.HandlerFunc(app.createNotificationHandler))
			checkResponseCode(t, tc.want, rr.Code)
		})
	}
}

func TestMarkNotificationRead(t *testing.T) {
	owner := &store.User{ID: 7, Role: auth.RoleClient, Status: store.StatusActive}
	stranger := &store.User{ID: 8, Role: auth.RoleClient, Status: store.StatusActive}

	newApp := func() *application {
		app := newTestApp(t)
		app.store = store.Storage{
			Notifications: &stubNotificationsStore{notifications: map[int64]*store.Notification{
				1: {ID: 1, UserID: owner.ID, Title: "t", Message: "m", Type: store.NotifCaseUpdate, Status: store.NotificationUnread},
			}},
		}
		return app
	}

	t.Run("marking twice succeeds both times", func(t *testing.T) {
		app := newApp()
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPatch, "/v1/notifications/1/read", nil)
			req = withUser(withURLParam(req, "notificationID", "1"), owner)
			rr := executeRequest(req, http.HandlerFunc(app.markNotificationReadHandler))
			checkResponseCode(t, http.StatusOK, rr.Code)
		}
	})

	t.Run("another user's notification is not found", func(t *testing.T) {
		app := newApp()
		req := httptest.NewRequest(http.MethodPatch, "/v1/notifications/1/read", nil)
		req = withUser(withURLParam(req, "notificationID", "1"), stranger)
		rr := executeRequest(req, http.HandlerFunc(app.markNotificationReadHandler))
		checkResponseCode(t, http.StatusNotFound, rr.Code)
	})
}

func TestMarkAllNotificationsRead(t *testing.T) {
	user := &store.User{ID: 7, Role: auth.RoleClient, Status: store.StatusActive}

	app := newTestApp(t)
	app.store = store.Storage{
		Notifications: &stubNotificationsStore{notifications: map[int64]*store.Notification{
			1: {ID: 1, UserID: 7, Status: store.NotificationUnread},
			2: {ID: 2, UserID: 7, Status: store.NotificationRead},
			3: {ID: 3, UserID: 9, Status: store.NotificationUnread},
		}},
	}

	req := httptest.NewRequest(http.MethodPatch, "/v1/notifications/read-all", nil)
	req = withUser(req, user)
	rr := executeRequest(req, http.HandlerFunc(app.markAllNotificationsReadHandler))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data shape %T", resp.Data)
	}
	if updated := data["updated"].(float64); updated != 1 {
		t.Errorf("expected 1 updated, got %v", updated)
	}
}
