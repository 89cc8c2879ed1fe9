package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/service"
)

const stateCookie = "oauth_state"

// GitHubAuthenticator is the part of *auth.GitHubProvider the handler needs.
type GitHubAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves registration, login and the GitHub sign-in flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → POST /auth/register
//   - HandleLogin          → POST /auth/login
//   - HandleMe             → GET  /auth/me (behind RequireAuth)
//   - HandleGitHubLogin    → GET  /auth/github/login
//   - HandleGitHubCallback → GET  /auth/github/callback
type AuthHandler struct {
	auth   *service.AuthService
	github GitHubAuthenticator // nil when GitHub sign-in is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(authService *service.AuthService, github GitHubAuthenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, github: github, logger: logger}
}

// GitHubEnabled reports whether the GitHub routes should be mounted.
func (h *AuthHandler) GitHubEnabled() bool {
	return h.github != nil
}

type registerRequest struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      model.Role `json:"role"`
	Bio       string     `json:"bio"`
	Skills    []string   `json:"skills"`
	Interests []string   `json:"interests"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and returns it with a token.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"firstName","lastName","email","password","role","bio?","skills?","interests?"}
// RESPONSE: 201 {"token": "...", "user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Bio:       req.Bio,
		Skills:    req.Skills,
		Interests: req.Interests,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, result)
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /auth/login
// RESPONSE: 200 {"token": "...", "user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

// HandleMe returns the authenticated user. RequireAuth has already loaded
// the record, so there is nothing to query.
//
// HTTP: GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleGitHubLogin redirects the browser to GitHub's consent page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes both into a short-lived HttpOnly cookie and into the
// authorize URL. The callback only proceeds when the two match, which proves
// the flow started here.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the flow and signs in the registered user
// whose email matches the GitHub account.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
// RESPONSE: 200 {"token": "...", "user": {...}}, 404 when no account matches
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth/github", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		writeError(w, h.logger, apperror.ValidationFailed("", "GitHub authorization was denied"))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("github callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.ValidationFailed("", "GitHub authentication failed"))
		return
	}

	result, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

// currentUser reads the user RequireAuth stored. A missing user means the
// route was mounted without the middleware; it is answered with 401 rather
// than a panic.
func currentUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authorization token required",
		})
		return nil, false
	}
	return user, true
}
