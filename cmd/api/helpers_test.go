package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitih/internal/auth"
	"fitih/internal/ratelimiter"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *application {
	t.Helper()

	return &application{
		config: config{
			env: "test",
			auth: authConfig{
				token: tokenConfig{
					secret:          "test-secret",
					refreshSecret:   "test-refresh-secret",
					accessTokenExp:  time.Hour,
					refreshTokenExp: time.Hour,
					iss:             "fitih-test",
				},
			},
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		logger:        zap.NewNop().Sugar(),
		authenticator: auth.NewJWTAuthenticator("test-secret", "test-refresh-secret", "fitih-test", "fitih-test", time.Hour, time.Hour),
	}
}

func executeRequest(req *http.Request, handler http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected response code %d, got %d", expected, actual)
	}
}

// withUser injects an authenticated user the way AuthTokenMiddleware does.
func withUser(req *http.Request, user *store.User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), userCtx, user))
}

// withURLParam injects a chi route parameter for handlers called outside a
// router.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// stubUsersStore serves a fixed set of users keyed by ID.
type stubUsersStore struct {
	users map[int64]*store.User
}

func (s *stubUsersStore) CreateAndInvite(ctx context.Context, user *store.User, token string, exp time.Duration) error {
	return nil
}

func (s *stubUsersStore) Activate(ctx context.Context, token string) error { return nil }

func (s *stubUsersStore) GetByID(ctx context.Context, userID int64) (*store.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (s *stubUsersStore) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubUsersStore) List(ctx context.Context, role auth.Role) ([]store.User, error) {
	var out []store.User
	for _, user := range s.users {
		if role == "" || user.Role == role {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (s *stubUsersStore) Update(ctx context.Context, userID int64, updates map[string]interface{}) error {
	if _, ok := s.users[userID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (s *stubUsersStore) SetStatus(ctx context.Context, userID int64, status store.UserStatus) error {
	user, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.Status = status
	return nil
}

func (s *stubUsersStore) SaveRefreshToken(ctx context.Context, userID int64, token string) error {
	if user, ok := s.users[userID]; ok {
		user.RefreshToken = token
	}
	return nil
}

func (s *stubUsersStore) ClearRefreshToken(ctx context.Context, userID int64) error {
	if user, ok := s.users[userID]; ok {
		user.RefreshToken = ""
	}
	return nil
}

// stubCasesStore mirrors the ownership filtering of the real store: a case
// outside the requested scope is reported as ErrNotFound.
type stubCasesStore struct {
	cases map[int64]*store.Case
}

func (s *stubCasesStore) Create(ctx context.Context, c *store.Case) error {
	c.ID = int64(len(s.cases) + 1)
	c.Status = store.CasePending
	s.cases[c.ID] = c
	return nil
}

func (s *stubCasesStore) GetByID(ctx context.Context, caseID int64) (*store.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCasesStore) GetForClient(ctx context.Context, caseID, clientID int64) (*store.Case, error) {
	c, ok := s.cases[caseID]
	if !ok || c.ClientID != clientID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCasesStore) GetForLawyer(ctx context.Context, caseID, lawyerID int64) (*store.Case, error) {
	c, ok := s.cases[caseID]
	if !ok || c.LawyerID == nil || *c.LawyerID != lawyerID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCasesStore) GetForOffice(ctx context.Context, caseID, officeID int64) (*store.Case, error) {
	c, ok := s.cases[caseID]
	if !ok || c.OfficeID == nil || *c.OfficeID != officeID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCasesStore) ListForClient(ctx context.Context, clientID int64) ([]store.Case, error) {
	var out []store.Case
	for _, c := range s.cases {
		if c.ClientID == clientID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCasesStore) ListForLawyer(ctx context.Context, lawyerID int64) ([]store.Case, error) {
	var out []store.Case
	for _, c := range s.cases {
		if c.LawyerID != nil && *c.LawyerID == lawyerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCasesStore) ListForOffice(ctx context.Context, officeID int64) ([]store.Case, error) {
	var out []store.Case
	for _, c := range s.cases {
		if c.OfficeID != nil && *c.OfficeID == officeID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCasesStore) ListAll(ctx context.Context) ([]store.Case, error) {
	var out []store.Case
	for _, c := range s.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCasesStore) Assign(ctx context.Context, caseID, lawyerID, actorID int64) error {
	c, ok := s.cases[caseID]
	if !ok {
		return store.ErrNotFound
	}
	c.LawyerID = &lawyerID
	c.Status = store.CaseAssigned
	return nil
}

func (s *stubCasesStore) SetStatus(ctx context.Context, caseID int64, to store.CaseStatus, actorID int64, action string) error {
	c, ok := s.cases[caseID]
	if !ok {
		return store.ErrNotFound
	}
	c.Status = to
	return nil
}

// stubNotificationsStore replicates the idempotent MarkRead contract.
type stubNotificationsStore struct {
	notifications map[int64]*store.Notification
}

func (s *stubNotificationsStore) Create(ctx context.Context, n *store.Notification) error {
	n.ID = int64(len(s.notifications) + 1)
	n.Status = store.NotificationUnread
	n.CreatedAt = time.Now()
	s.notifications[n.ID] = n
	return nil
}

func (s *stubNotificationsStore) ListForUser(ctx context.Context, userID int64) ([]store.Notification, error) {
	var out []store.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *stubNotificationsStore) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && n.Status == store.NotificationUnread {
			count++
		}
	}
	return count, nil
}

func (s *stubNotificationsStore) MarkRead(ctx context.Context, notificationID, userID int64) error {
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	n.Status = store.NotificationRead
	return nil
}

func (s *stubNotificationsStore) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	var updated int64
	for _, n := range s.notifications {
		if n.UserID == userID && n.Status == store.NotificationUnread {
			n.Status = store.NotificationRead
			updated++
		}
	}
	return updated, nil
}

type stubPushTokensStore struct{}

func (s *stubPushTokensStore) Register(ctx context.Context, userID int64, token string) error { return nil }
func (s *stubPushTokensStore) Delete(ctx context.Context, userID int64, token string) error   { return nil }
func (s *stubPushTokensStore) GetTokensByUserID(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}

type stubSMSStore struct {
	messages map[int64]*store.SMSMessage
}

func (s *stubSMSStore) Create(ctx context.Context, m *store.SMSMessage) error {
	m.ID = int64(len(s.messages) + 1)
	if m.Status == "" {
		m.Status = store.SMSQueued
	}
	s.messages[m.ID] = m
	return nil
}

func (s *stubSMSStore) GetByID(ctx context.Context, smsID int64) (*store.SMSMessage, error) {
	m, ok := s.messages[smsID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m, nil
}

func (s *stubSMSStore) List(ctx context.Context) ([]store.SMSMessage, error) {
	var out []store.SMSMessage
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out, nil
}

func (s *stubSMSStore) UpdateStatus(ctx context.Context, smsID int64, status store.SMSStatus, providerRef, failReason string) error {
	m, ok := s.messages[smsID]
	if !ok {
		return store.ErrNotFound
	}
	m.Status = status
	m.ProviderRef = providerRef
	m.FailReason = failReason
	return nil
}

func (s *stubSMSStore) UpdateStatusByProviderRef(ctx context.Context, providerRef string, status store.SMSStatus, failReason string) error {
	for _, m := range s.messages {
		if m.ProviderRef == providerRef {
			m.Status = status
			m.FailReason = failReason
			return nil
		}
	}
	return store.ErrNotFound
}
