package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitih/internal/store"
)

type stubAuditStore struct {
	entries   []store.AuditLog
	lastLimit int
}

func (s *stubAuditStore) ListRecent(ctx context.Context, limit int) ([]store.AuditLog, error) {
	s.lastLimit = limit
	if limit < len(s.entries) {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func TestListAuditLog(t *testing.T) {
	audit := &stubAuditStore{entries: []store.AuditLog{
		{ID: 2, ActorID: 4, Action: "case.assign", Entity: "case", EntityID: 1, CreatedAt: time.Now()},
		{ID: 1, ActorID: 4, Action: "case.status", Entity: "case", EntityID: 1, CreatedAt: time.Now().Add(-time.Minute)},
	}}
	app := newTestApp(t)
	app.store = store.Storage{Audit: audit}

	req := httptest.NewRequest(http.MethodGet, "/v1/audit", nil)
	rr := executeRequest(req, http.HandlerFunc(app.listAuditLogHandler))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	entries := resp.Data.([]interface{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if audit.lastLimit != defaultAuditLimit {
		t.Errorf("expected default limit %d, got %d", defaultAuditLimit, audit.lastLimit)
	}
}

func TestListAuditLogLimit(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      int
		wantLimit int
	}{
		{"explicit limit", "?limit=1", http.StatusOK, 1},
		{"limit capped", "?limit=1000", http.StatusOK, maxAuditLimit},
		{"non-numeric limit", "?limit=abc", http.StatusBadRequest, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			audit := &stubAuditStore{entries: []store.AuditLog{
				{ID: 1, ActorID: 4, Action: "case.status", Entity: "case", EntityID: 1},
			}}
			app := newTestApp(t)
			app.store = store.Storage{Audit: audit}

			req := httptest.NewRequest(http.MethodGet, "/v1/audit"+tc.query, nil)
			rr := executeRequest(req, http.HandlerFunc(app.listAuditLogHandler))
			checkResponseCode(t, tc.want, rr.Code)

			if tc.want == http.StatusOK && audit.lastLimit != tc.wantLimit {
				t.Errorf("expected store limit %d, got %d", tc.wantLimit, audit.lastLimit)
			}
		})
	}
}
