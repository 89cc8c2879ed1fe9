package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/handler"
	"github.com/sakif/mentorship-platform/internal/logger"
	sqliteRepo "github.com/sakif/mentorship-platform/internal/repository/sqlite"
	"github.com/sakif/mentorship-platform/internal/sanitize"
	"github.com/sakif/mentorship-platform/internal/service"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================

// testEnv runs the real services on an in-memory SQLite database behind a
// chi router laid out like the production one. Only GitHub is faked.
type testEnv struct {
	router http.Handler
	db     *sqliteRepo.DB
	github *fakeGitHub
}

type fakeGitHub struct {
	user *auth.GitHubUser
	err  error
	code string // last code passed to Exchange
}

func (f *fakeGitHub) AuthURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + state
}

func (f *fakeGitHub) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	f.code = code
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return nil, errors.New("no user configured")
	}
	return f.user, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.Discard()
	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	sanitizer := sanitize.New()

	authSvc := service.NewAuthService(db, tokens, auth.NewPasswordService(bcrypt.MinCost), sanitizer, nil, log)
	connSvc := service.NewConnectionService(db, db, log)
	profileSvc := service.NewProfileService(db, db, connSvc, nil, sanitizer, log)

	gh := &fakeGitHub{}
	authH := handler.NewAuthHandler(authSvc, gh, log)
	profileH := handler.NewProfileHandler(profileSvc, log)
	connH := handler.NewConnectionHandler(connSvc, log)
	healthH := handler.NewHealthHandler(db, nil, log)

	r := chi.NewRouter()
	r.Get("/healthz", healthH.HandleHealth)
	r.Post("/auth/register", authH.HandleRegister)
	r.Post("/auth/login", authH.HandleLogin)
	r.Get("/auth/github/login", authH.HandleGitHubLogin)
	r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authSvc, log))
		r.Get("/auth/me", authH.HandleMe)
		r.Get("/profile", profileH.HandleSearch)
		r.Post("/profile", profileH.HandleUpsert)
		r.Delete("/profile", profileH.HandleDelete)
		r.Get("/profile/me", profileH.HandleMe)
		r.Get("/profile/user/{userID}", profileH.HandleGetByUserID)
		r.Get("/connections", connH.HandleList)
		r.Post("/connections/request", connH.HandleRequest)
		r.Post("/connections/accept/{id}", connH.HandleAccept)
		r.Post("/connections/reject/{id}", connH.HandleReject)
		r.Post("/connections/cancel/{id}", connH.HandleCancel)
		r.Delete("/connections/{id}", connH.HandleRemove)
	})

	return &testEnv{router: r, db: db, github: gh}
}

// do sends a request through the router. body may be nil, a raw string, or
// any value to JSON-encode.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

type account struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// register signs up a user and returns its token and id.
func (e *testEnv) register(t *testing.T, first, role string) account {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"firstName": first,
		"lastName":  "Tester",
		"email":     strings.ToLower(first) + "@example.com",
		"password":  "secret123",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var acc account
	decode(t, rr, &acc)
	return acc
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(dst), "body: %s", rr.Body.String())
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	decode(t, rr, &resp)
	return resp
}
