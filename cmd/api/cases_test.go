package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fitih/internal/auth"
	"fitih/internal/store"
)

func int64Ptr(v int64) *int64 { return &v }

func newCasesApp(t *testing.T) *application {
	t.Helper()

	app := newTestApp(t)
	refs, err := store.NewCaseReferenceGenerator("test-salt")
	if err != nil {
		t.Fatal(err)
	}
	app.caseRefs = refs
	app.store = store.Storage{
		Users: &stubUsersStore{users: map[int64]*store.User{
			1: {ID: 1, Role: auth.RoleClient, Status: store.StatusActive},
			2: {ID: 2, Role: auth.RoleClient, Status: store.StatusActive},
			3: {ID: 3, Role: auth.RoleLawyer, Status: store.StatusActive},
			4: {ID: 4, Role: auth.RoleCoordinator, OfficeID: int64Ptr(10), Status: store.StatusActive},
		}},
		Cases: &stubCasesStore{cases: map[int64]*store.Case{
			1: {ID: 1, Reference: "FTH-abc23456", ClientID: 1, OfficeID: int64Ptr(10), Status: store.CasePending},
			2: {ID: 2, Reference: "FTH-def23456", ClientID: 2, LawyerID: int64Ptr(3), OfficeID: int64Ptr(20), Status: store.CaseInProgress},
			3: {ID: 3, Reference: "FTH-ghj23456", ClientID: 1, Status: store.CaseClosed},
		}},
		PushTokens: &stubPushTokensStore{},
	}
	return app
}

func TestGetCaseScoping(t *testing.T) {
	app := newCasesApp(t)

	tests := []struct {
		name   string
		user   *store.User
		caseID string
		want   int
	}{
		{"client sees own case", &store.User{ID: 1, Role: auth.RoleClient, Status: store.StatusActive}, "1", http.StatusOK},
		{"another client's case looks missing", &store.User{ID: 2, Role: auth.RoleClient, Status: store.StatusActive}, "1", http.StatusNotFound},
		{"nonexistent case is missing", &store.User{ID: 1, Role: auth.RoleClient, Status: store.StatusActive}, "404", http.StatusNotFound},
		{"lawyer sees assigned case", &store.User{ID: 3, Role: auth.RoleLawyer, Status: store.StatusActive}, "2", http.StatusOK},
		{"lawyer cannot see unassigned case", &store.User{ID: 3, Role: auth.RoleLawyer, Status: store.StatusActive}, "1", http.StatusNotFound},
		{"coordinator sees office case", &store.User{ID: 4, Role: auth.RoleCoordinator, OfficeID: int64Ptr(10), Status: store.StatusActive}, "1", http.StatusOK},
		{"coordinator cannot see other office", &store.User{ID: 4, Role: auth.RoleCoordinator, OfficeID: int64Ptr(10), Status: store.StatusActive}, "2", http.StatusNotFound},
		{"admin sees any case", &store.User{ID: 9, Role: auth.RoleAdmin, Status: store.StatusActive}, "2", http.StatusOK},
		{"kebele staff has no case scope", &store.User{ID: 11, Role: auth.RoleKebeleStaff, Status: store.StatusActive}, "1", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/cases/"+tc.caseID, nil)
			req = withUser(withURLParam(req, "caseID", tc.caseID), tc.user)
			rr := executeRequest(req, http.HandlerFunc(app.getCaseHandler))
			checkResponseCode(t, tc.want, rr.Code)
		})
	}
}

func TestOwnershipMissLooksLikeMissing(t *testing.T) {
	app := newCasesApp(t)
	client2 := &store.User{ID: 2, Role: auth.RoleClient, Status: store.StatusActive}

	fetch := func(caseID string) string {
		req := httptest.NewRequest(http.MethodGet, "/v1/cases/"+caseID, nil)
		req = withUser(withURLParam(req, "caseID", caseID), client2)
		rr := executeRequest(req, http.HandlerFunc(app.getCaseHandler))
		checkResponseCode(t, http.StatusNotFound, rr.Code)
		return rr.Body.String()
	}

	// The body for someone else's case must be byte-identical to the body
	// for a case that does not exist.
	if owned, missing := fetch("1"), fetch("404"); owned != missing {
		t.Errorf("ownership miss is distinguishable: %q vs %q", owned, missing)
	}
}

func TestCreateCase(t *testing.T) {
	app := newCasesApp(t)
	client := &store.User{ID: 1, Role: auth.RoleClient, OfficeID: int64Ptr(10), Status: store.StatusActive}

	body := bytes.NewBufferString(`{"category":"FAMILY","title":"Custody dispute","description":"details","priority":"HIGH"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/cases", body)
	req = withUser(req, client)
	rr := executeRequest(req, http.HandlerFunc(app.createCaseHandler))
	checkResponseCode(t, http.StatusCreated, rr.Code)

	var resp envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	data := resp.Data.(map[string]interface{})
	if status := data["status"].(string); status != string(store.CasePending) {
		t.Errorf("expected new case to be PENDING, got %s", status)
	}
	if ref := data["reference"].(string); !strings.HasPrefix(ref, "FTH-") {
		t.Errorf("expected FTH- reference, got %q", ref)
	}
}

func TestCreateCaseRejectsBadPriority(t *testing.T) {
	app := newCasesApp(t)
	client := &store.User{ID: 1, Role: auth.RoleClient, Status: store.StatusActive}

	body := bytes.NewBufferString(`{"category":"FAMILY","title":"t","description":"d","priority":"WHENEVER"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/cases", body)
	req = withUser(req, client)
	rr := executeRequest(req, http.HandlerFunc(app.createCaseHandler))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestSetCaseStatusTransitions(t *testing.T) {
	lawyer := &store.User{ID: 3, Role: auth.RoleLawyer, Status: store.StatusActive}

	tests := []struct {
		name   string
		caseID string
		status string
		want   int
	}{
		{"valid transition", "2", "RESOLVED", http.StatusOK},
		{"invalid transition", "2", "PENDING", http.StatusBadRequest},
		{"unknown status", "2", "LIMBO", http.StatusBadRequest},
		{"appeal status rejected here", "2", "APPEALED", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newCasesApp(t)
			body := bytes.NewBufferString(`{"status":"` + tc.status + `"}`)
			req := httptest.NewRequest(http.MethodPatch, "/v1/cases/"+tc.caseID+"/status", body)
			req = withUser(withURLParam(req, "caseID", tc.caseID), lawyer)
			rr := executeRequest(req, http.HandlerFunc(app.setCaseStatusHandler))
			checkResponseCode(t, tc.want, rr.Code)
		})
	}
}

func TestAppealFlow(t *testing.T) {
	client := &store.User{ID: 1, Role: auth.RoleClient, Status: store.StatusActive}
	coordinator := &store.User{ID: 4, Role: auth.RoleCoordinator, OfficeID: int64Ptr(10), Status: store.StatusActive}

	t.Run("closed case can be appealed", func(t *testing.T) {
		app := newCasesApp(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/cases/3/appeal", nil)
		req = withUser(withURLParam(req, "caseID", "3"), client)
		rr := executeRequest(req, http.HandlerFunc(app.appealCaseHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("open case cannot be appealed", func(t *testing.T) {
		app := newCasesApp(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/cases/1/appeal", nil)
		req = withUser(withURLParam(req, "caseID", "1"), client)
		rr := executeRequest(req, http.HandlerFunc(app.appealCaseHandler))
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("decision requires a pending appeal", func(t *testing.T) {
		app := newCasesApp(t)
		body := bytes.NewBufferString(`{"decision":"GRANTED"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/cases/1/appeal/decision", body)
		req = withUser(withURLParam(req, "caseID", "1"), coordinator)
		rr := executeRequest(req, http.HandlerFunc(app.decideAppealHandler))
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAssignCase(t *testing.T) {
	coordinator := &store.User{ID: 4, Role: auth.RoleCoordinator, OfficeID: int64Ptr(10), Status: store.StatusActive}

	t.Run("assigns a lawyer to a pending case", func(t *testing.T) {
		app := newCasesApp(t)
		body := bytes.NewBufferString(`{"lawyer_id":3}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/cases/1/assign", body)
		req = withUser(withURLParam(req, "caseID", "1"), coordinator)
		rr := executeRequest(req, http.HandlerFunc(app.assignCaseHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects a non-lawyer assignee", func(t *testing.T) {
		app := newCasesApp(t)
		body := bytes.NewBufferString(`{"lawyer_id":2}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/cases/1/assign", body)
		req = withUser(withURLParam(req, "caseID", "1"), coordinator)
		rr := executeRequest(req, http.HandlerFunc(app.assignCaseHandler))
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})
}
