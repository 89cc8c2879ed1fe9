package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
	"github.com/sakif/mentorship-platform/internal/sanitize"
)

// ProfileCache stores search results. *cache.RedisCache implements it; a nil
// ProfileCache turns caching off.
type ProfileCache interface {
	ProfilesVersion(ctx context.Context) (int64, error)
	GetProfiles(ctx context.Context, version int64, filter repository.ProfileFilter) ([]model.PublicProfile, bool, error)
	SetProfiles(ctx context.Context, version int64, filter repository.ProfileFilter, profiles []model.PublicProfile) error
	InvalidateProfiles(ctx context.Context) error
}

// ProfileService manages profiles and discovery.
type ProfileService struct {
	users       repository.UserRepository
	profiles    repository.ProfileRepository
	connections *ConnectionService
	cache       ProfileCache
	sanitizer   *sanitize.Sanitizer
	logger      *slog.Logger
}

// NewProfileService wires the service. cache may be nil.
func NewProfileService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	connections *ConnectionService,
	cache ProfileCache,
	sanitizer *sanitize.Sanitizer,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:       users,
		profiles:    profiles,
		connections: connections,
		cache:       cache,
		sanitizer:   sanitizer,
		logger:      logger,
	}
}

// ProfileDetails is the caller's own account: user, profile and connections.
type ProfileDetails struct {
	User        *model.User           `json:"user"`
	Profile     *model.Profile        `json:"profile"`
	Connections *model.ConnectionList `json:"connections"`
}

// ProfileUpdate is a partial update: nil fields are left unchanged, and a
// pointer to an empty slice clears the list.
type ProfileUpdate struct {
	Bio       *string
	Skills    *[]string
	Interests *[]string
}

// Me returns everything the signed-in user sees about themselves.
func (s *ProfileService) Me(ctx context.Context, userID string) (*ProfileDetails, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	conns, err := s.connections.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileDetails{User: user, Profile: profile, Connections: conns}, nil
}

// Upsert applies a partial update to the caller's profile. The profile
// always exists (registration creates it), so this is an update of the
// provided fields.
func (s *ProfileService) Upsert(ctx context.Context, userID string, upd ProfileUpdate) (*model.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Bio != nil {
		profile.Bio = s.sanitizer.Text(*upd.Bio)
		if err := validateBio(profile.Bio); err != nil {
			return nil, err
		}
	}
	if upd.Skills != nil {
		profile.Skills = s.sanitizer.List(*upd.Skills)
		if err := validateTags("skills", profile.Skills); err != nil {
			return nil, err
		}
	}
	if upd.Interests != nil {
		profile.Interests = s.sanitizer.List(*upd.Interests)
		if err := validateTags("interests", profile.Interests); err != nil {
			return nil, err
		}
	}

	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/profile: updating %s: %w", userID, err)
	}

	s.invalidate(ctx)
	s.logger.Info("profile updated", slog.String("userID", userID))
	return profile, nil
}

// GetByUserID returns another user's public profile.
func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (*model.PublicProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.PublicProfile{User: user.Identity(), Profile: *profile}, nil
}

// Search lists profiles matching filter, newest users first.
//
// CACHE-ASIDE:
// With a cache configured, a hit is returned as is and a miss is read from
// the database and written back. Both use the version read before the
// database query, so a write that lands in between leaves the result in an
// already-dead generation. Cache errors are logged and otherwise ignored:
// discovery keeps working when Redis is down.
func (s *ProfileService) Search(ctx context.Context, filter repository.ProfileFilter) ([]model.PublicProfile, error) {
	if filter.Role != "" {
		filter.Role = model.Role(strings.ToLower(string(filter.Role)))
		if err := validateRole(filter.Role); err != nil {
			return nil, err
		}
	}
	filter.Skills = cleanTerms(filter.Skills)
	filter.Interests = cleanTerms(filter.Interests)

	var (
		version  int64
		useCache = s.cache != nil
	)
	if useCache {
		var err error
		if version, err = s.cache.ProfilesVersion(ctx); err != nil {
			s.logger.Warn("profile cache read failed", slog.String("error", err.Error()))
			useCache = false
		}
	}
	if useCache {
		cached, ok, err := s.cache.GetProfiles(ctx, version, filter)
		if err != nil {
			s.logger.Warn("profile cache read failed", slog.String("error", err.Error()))
		} else if ok {
			s.logger.Debug("profile search served from cache")
			return cached, nil
		}
	}

	profiles, err := s.profiles.SearchProfiles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/profile: searching: %w", err)
	}

	if useCache {
		if err := s.cache.SetProfiles(ctx, version, filter, profiles); err != nil {
			s.logger.Warn("profile cache write failed", slog.String("error", err.Error()))
		}
	}

	return profiles, nil
}

// Delete removes the caller's account. The profile and every connection
// request they are part of go with it.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("account deleted", slog.String("userID", userID))
	return nil
}

func (s *ProfileService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProfiles(ctx); err != nil {
		s.logger.Warn("profile cache invalidation failed", slog.String("error", err.Error()))
	}
}

// cleanTerms trims search terms and drops empty ones.
func cleanTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
