package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitih/internal/auth"
	"fitih/internal/sms"
	"fitih/internal/store"
)

type stubGateway struct {
	accept bool
	calls  int
}

func (g *stubGateway) Send(ctx context.Context, req sms.SendRequest) (sms.SendResponse, error) {
	g.calls++
	if !g.accept {
		return sms.SendResponse{Accepted: false, Error: "gateway rejected"}, nil
	}
	return sms.SendResponse{Accepted: true, ProviderRef: "prov-1"}, nil
}

func newSMSApp(t *testing.T, gw *stubGateway, messages map[int64]*store.SMSMessage) *application {
	t.Helper()

	app := newTestApp(t)
	app.smsGateway = gw
	app.store = store.Storage{
		Users: &stubUsersStore{users: map[int64]*store.User{
			1: {ID: 1, Phone: "0911223344", Role: auth.RoleClient, Status: store.StatusActive},
		}},
		SMS: &stubSMSStore{messages: messages},
	}
	return app
}

func TestSendSMSPerRecipientResults(t *testing.T) {
	gw := &stubGateway{accept: true}
	app := newSMSApp(t, gw, map[int64]*store.SMSMessage{})

	body := bytes.NewBufferString(`{"recipients":[{"user_id":1},{"user_id":404},{"phone":"0911000000"}],"body":"Your appointment is tomorrow"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sms/send", body)
	rr := executeRequest(req, http.HandlerFunc(app.sendSMSHandler))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	results := resp.Data.([]interface{})
	if len(results) != 3 {
		t.Fatalf("expected 3 per-recipient results, got %d", len(results))
	}

	first := results[0].(map[string]interface{})
	if first["status"] != string(store.SMSSent) {
		t.Errorf("expected first recipient SENT, got %v", first["status"])
	}
	second := results[1].(map[string]interface{})
	if second["status"] != string(store.SMSFailed) {
		t.Errorf("expected unknown recipient FAILED, got %v", second["status"])
	}
	third := results[2].(map[string]interface{})
	if third["status"] != string(store.SMSSent) {
		t.Errorf("expected raw phone recipient SENT, got %v", third["status"])
	}

	// The unknown recipient must never reach the gateway.
	if gw.calls != 2 {
		t.Errorf("expected 2 gateway calls, got %d", gw.calls)
	}
}

// failingSMSStore accepts a fixed number of inserts, then errors.
type failingSMSStore struct {
	stubSMSStore
	failAfter int
	creates   int
}

func (s *failingSMSStore) Create(ctx context.Context, m *store.SMSMessage) error {
	s.creates++
	if s.creates > s.failAfter {
		return errors.New("insert failed")
	}
	return s.stubSMSStore.Create(ctx, m)
}

func TestSendSMSBatchSurvivesStoreFailure(t *testing.T) {
	gw := &stubGateway{accept: true}
	app := newTestApp(t)
	app.smsGateway = gw
	app.store = store.Storage{
		Users: &stubUsersStore{users: map[int64]*store.User{}},
		SMS: &failingSMSStore{
			stubSMSStore: stubSMSStore{messages: map[int64]*store.SMSMessage{}},
			failAfter:    1,
		},
	}

	body := bytes.NewBufferString(`{"recipients":[{"phone":"0911000001"},{"phone":"0911000002"}],"body":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sms/send", body)
	rr := executeRequest(req, http.HandlerFunc(app.sendSMSHandler))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var resp envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	results := resp.Data.([]interface{})
	if len(results) != 2 {
		t.Fatalf("expected a result per recipient, got %d", len(results))
	}

	first := results[0].(map[string]interface{})
	if first["status"] != string(store.SMSSent) {
		t.Errorf("expected first recipient SENT, got %v", first["status"])
	}
	second := results[1].(map[string]interface{})
	if second["status"] != string(store.SMSFailed) {
		t.Errorf("expected second recipient FAILED after store error, got %v", second["status"])
	}

	// The recipient whose row could not be written must not reach the gateway.
	if gw.calls != 1 {
		t.Errorf("expected 1 gateway call, got %d", gw.calls)
	}
}

func TestResendSMS(t *testing.T) {
	tests := []struct {
		name    string
		status  store.SMSStatus
		want    int
		message string
	}{
		{"failed message can be resent", store.SMSFailed, http.StatusOK, ""},
		{"sent message cannot be resent", store.SMSSent, http.StatusBadRequest, "Only failed messages can be resent"},
		{"delivered message cannot be resent", store.SMSDelivered, http.StatusBadRequest, "Only failed messages can be resent"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &stubGateway{accept: true}
			app := newSMSApp(t, gw, map[int64]*store.SMSMessage{
				1: {ID: 1, Phone: "0911223344", Body: "hello", Status: tc.status},
			})

			req := httptest.NewRequest(http.MethodPost, "/v1/sms/1/resend", nil)
			req = withURLParam(req, "smsID", "1")
			rr := executeRequest(req, http.HandlerFunc(app.resendSMSHandler))
			checkResponseCode(t, tc.want, rr.Code)

			if tc.message != "" {
				var resp envelope
				if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
					t.Fatal(err)
				}
				if resp.Message != tc.message {
					t.Errorf("expected message %q, got %q", tc.message, resp.Message)
				}
			}
		})
	}
}

func TestResendSMSMissing(t *testing.T) {
	app := newSMSApp(t, &stubGateway{accept: true}, map[int64]*store.SMSMessage{})

	req := httptest.NewRequest(http.MethodPost, "/v1/sms/99/resend", nil)
	req = withURLParam(req, "smsID", "99")
	rr := executeRequest(req, http.HandlerFunc(app.resendSMSHandler))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestSMSDeliveryReport(t *testing.T) {
	t.Run("delivered report updates the matching row", func(t *testing.T) {
		messages := map[int64]*store.SMSMessage{
			1: {ID: 1, Phone: "0911223344", Status: store.SMSSent, ProviderRef: "prov-1"},
		}
		app := newSMSApp(t, &stubGateway{}, messages)

		body := bytes.NewBufferString(`{"message_id":"prov-1","status":"DELIVERED"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/sms/delivery-report", body)
		rr := executeRequest(req, http.HandlerFunc(app.smsDeliveryReportHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)

		if messages[1].Status != store.SMSDelivered {
			t.Errorf("expected DELIVERED, got %s", messages[1].Status)
		}
	})

	t.Run("failure report records the reason", func(t *testing.T) {
		messages := map[int64]*store.SMSMessage{
			1: {ID: 1, Phone: "0911223344", Status: store.SMSSent, ProviderRef: "prov-1"},
		}
		app := newSMSApp(t, &stubGateway{}, messages)

		body := bytes.NewBufferString(`{"message_id":"prov-1","status":"FAILED","reason":"absent subscriber"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/sms/delivery-report", body)
		rr := executeRequest(req, http.HandlerFunc(app.smsDeliveryReportHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)

		if messages[1].Status != store.SMSFailed || messages[1].FailReason != "absent subscriber" {
			t.Errorf("expected FAILED with reason, got %s %q", messages[1].Status, messages[1].FailReason)
		}
	})

	t.Run("unknown reference is acknowledged", func(t *testing.T) {
		app := newSMSApp(t, &stubGateway{}, map[int64]*store.SMSMessage{})

		body := bytes.NewBufferString(`{"message_id":"prov-unknown","status":"DELIVERED"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/sms/delivery-report", body)
		rr := executeRequest(req, http.HandlerFunc(app.smsDeliveryReportHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong shared secret is rejected", func(t *testing.T) {
		app := newSMSApp(t, &stubGateway{}, map[int64]*store.SMSMessage{})
		app.config.sms.webhookSecret = "hook-secret"

		body := bytes.NewBufferString(`{"message_id":"prov-1","status":"DELIVERED"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/sms/delivery-report", body)
		req.Header.Set("Authorization", "Bearer wrong-secret")
		rr := executeRequest(req, http.HandlerFunc(app.smsDeliveryReportHandler))
		checkResponseCode(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("correct shared secret is accepted", func(t *testing.T) {
		messages := map[int64]*store.SMSMessage{
			1: {ID: 1, Phone: "0911223344", Status: store.SMSSent, ProviderRef: "prov-1"},
		}
		app := newSMSApp(t, &stubGateway{}, messages)
		app.config.sms.webhookSecret = "hook-secret"

		body := bytes.NewBufferString(`{"message_id":"prov-1","status":"DELIVERED"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/sms/delivery-report", body)
		req.Header.Set("Authorization", "Bearer hook-secret")
		rr := executeRequest(req, http.HandlerFunc(app.smsDeliveryReportHandler))
		checkResponseCode(t, http.StatusOK, rr.Code)

		if messages[1].Status != store.SMSDelivered {
			t.Errorf("expected DELIVERED, got %s", messages[1].Status)
		}
	})

	t.Run("malformed report is rejected", func(t *testing.T) {
		app := newSMSApp(t, &stubGateway{}, map[int64]*store.SMSMessage{})

		body := bytes.NewBufferString(`{"status":"DELIVERED"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/sms/delivery-report", body)
		rr := executeRequest(req, http.HandlerFunc(app.smsDeliveryReportHandler))
		checkResponseCode(t, http.StatusBadRequest, rr.Code)
	})
}
