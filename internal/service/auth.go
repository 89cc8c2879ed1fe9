// Package service holds the business rules of the mentorship platform.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB, so the tests in
// this package run against in-memory fakes. They return apperror values and
// know nothing about HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
	"github.com/sakif/mentorship-platform/internal/sanitize"
)

const (
	msgUserExists         = "user already exists"
	msgInvalidCredentials = "invalid credentials"
)

// AuthService handles registration, login and token resolution.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → issue/verify JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - sanitizer  *sanitize.Sanitizer       → strips markup from free text
//   - cache      ProfileCache              → search results to drop on sign-up (may be nil)
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	sanitizer *sanitize.Sanitizer
	cache     ProfileCache
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	sanitizer *sanitize.Sanitizer,
	cache ProfileCache,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		sanitizer: sanitizer,
		cache:     cache,
		logger:    logger,
	}
}

// Compile-time check that AuthService can back auth.RequireAuth.
var _ auth.UserResolver = (*AuthService)(nil)

// RegisterInput is everything a new account needs. Bio, Skills and
// Interests seed the profile created alongside the user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
	Bio       string
	Skills    []string
	Interests []string
}

// AuthResult bundles the user record and the issued JWT.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register validates the input, creates the user and its profile in one
// transaction, and signs the user in.
//
// A taken email is reported as a validation error on "email", whether the
// lookup finds it or a concurrent registration wins the unique constraint.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, profile, err := s.buildAccount(in)
	if err != nil {
		return nil, err
	}

	_, err = s.users.GetUserByEmail(ctx, user.Email)
	switch {
	case err == nil:
		return nil, apperror.ValidationFailed("email", msgUserExists)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	user.PasswordHash, err = s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	if err := s.users.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", msgUserExists)
		}
		s.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)

	// The new profile must show up in discovery.
	if s.cache != nil {
		if err := s.cache.InvalidateProfiles(ctx); err != nil {
			s.logger.Warn("profile cache invalidation failed", slog.String("error", err.Error()))
		}
	}

	return s.issue(user)
}

// Login checks email and password. Unknown email and wrong password give
// the same error so the response does not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", msgInvalidCredentials)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("", msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return nil, apperror.ValidationFailed("", msgInvalidCredentials)
		}
		s.logger.Error("unreadable password hash",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginWithGitHub signs in the registered user whose email matches the
// GitHub account. There is no sign-up through GitHub: an account needs a
// role, and GitHub has nothing to say about that.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.Email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no usable email")
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(ghUser.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("no account is registered for this GitHub email")
		}
		return nil, fmt.Errorf("service/auth: loading user for GitHub login: %w", err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

// Authenticate resolves a bearer token to the current user record. Any
// failure, including a valid token for a deleted user, is Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Subject(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, apperror.Unauthorized("token expired")
	}
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to resolve token user",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized("user for token no longer exists")
	}

	return user, nil
}

func (s *AuthService) buildAccount(in RegisterInput) (*model.User, *model.Profile, error) {
	user := &model.User{
		FirstName: s.sanitizer.Text(in.FirstName),
		LastName:  s.sanitizer.Text(in.LastName),
		Role:      model.Role(strings.ToLower(strings.TrimSpace(string(in.Role)))),
	}
	if err := validateName("firstName", user.FirstName); err != nil {
		return nil, nil, err
	}
	if err := validateName("lastName", user.LastName); err != nil {
		return nil, nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}
	user.Email = email

	if err := validatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	if err := validateRole(user.Role); err != nil {
		return nil, nil, err
	}

	profile := &model.Profile{
		Bio:       s.sanitizer.Text(in.Bio),
		Skills:    s.sanitizer.List(in.Skills),
		Interests: s.sanitizer.List(in.Interests),
	}
	if err := validateBio(profile.Bio); err != nil {
		return nil, nil, err
	}
	if err := validateTags("skills", profile.Skills); err != nil {
		return nil, nil, err
	}
	if err := validateTags("interests", profile.Interests); err != nil {
		return nil, nil, err
	}

	return user, profile, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
