package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitih/internal/auth"
	"fitih/internal/store"
)

type stubSettingsStore struct {
	values  map[string]string
	actorID int64
}

func (s *stubSettingsStore) GetAll(ctx context.Context) ([]store.Setting, error) {
	var out []store.Setting
	for k, v := range s.values {
		out = append(out, store.Setting{Key: k, Value: v, UpdatedBy: s.actorID, UpdatedAt: time.Now()})
	}
	return out, nil
}

func (s *stubSettingsStore) BatchUpdate(ctx context.Context, values map[string]string, actorID int64) error {
	for k, v := range values {
		s.values[k] = v
	}
	s.actorID = actorID
	return nil
}

func TestGetSettings(t *testing.T) {
	app := newTestApp(t)
	app.store = store.Storage{
		Settings: &stubSettingsStore{values: map[string]string{"intake_open": "true"}},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/settings", nil)
	rr := executeRequest(req, http.HandlerFunc(app.getSettingsHandler))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if entries := resp.Data.([]interface{}); len(entries) != 1 {
		t.Fatalf("expected 1 setting, got %d", len(entries))
	}
}

func TestUpdateSettings(t *testing.T) {
	admin := &store.User{ID: 9, Role: auth.RoleSuperAdmin, Status: store.StatusActive}

	t.Run("upserts values and records the actor", func(t *testing.T) {
		settings := &stubSettingsStore{values: map[string]string{}}
		app := newTestApp(t)
		app.store = store.Storage{Settings: settings}

		body := bytes.NewBufferString(`{"values":{"intake_open":"false","max_active_cases":"5"}}`)
		req := httptest.NewRequest(http.MethodPut, "/v1/settings", body)
		req = withUser(req, admin)
		rr := executeRequest(req, http.HandlerFunc(app.updateSettingsHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)

		if settings.values["intake_open"] != "false" || settings.values["max_active_cases"] != "5" {
			t.Errorf("settings not applied: %v", settings.values)
		}
		if settings.actorID != admin.ID {
			t.Errorf("expected actor %d recorded, got %d", admin.ID, settings.actorID)
		}
	})

	t.Run("rejects an empty key", func(t *testing.T) {
		app := newTestApp(t)
		app.store = store.Storage{Settings: &stubSettingsStore{values: map[string]string{}}}

		body := bytes.NewBufferString(`{"values":{"":"x"}}`)
		req := httptest.NewRequest(http.MethodPut, "/v1/settings", body)
		req = withUser(req, admin)
		rr := executeRequest(req, http.HandlerFunc(app.updateSettingsHandler))
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects an empty values map", func(t *testing.T) {
		app := newTestApp(t)
		app.store = store.Storage{Settings: &stubSettingsStore{values: map[string]string{}}}

		body := bytes.NewBufferString(`{"values":{}}`)
		req := httptest.NewRequest(http.MethodPut, "/v1/settings", body)
		req = withUser(req, admin)
		rr := executeRequest(req, http.HandlerFunc(app.updateSettingsHandler))
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})
}
