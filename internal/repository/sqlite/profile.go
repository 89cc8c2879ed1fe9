package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// GetProfile returns the profile owned by userID.
func (db *DB) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p                 model.Profile
		skills, interests string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, bio, skills, interests, created_at, updated_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Bio, &skills, &interests, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", userID, err)
	}

	if p.Skills, err = decodeList(skills); err != nil {
		return nil, fmt.Errorf("sqlite: decoding skills for %s: %w", userID, err)
	}
	if p.Interests, err = decodeList(interests); err != nil {
		return nil, fmt.Errorf("sqlite: decoding interests for %s: %w", userID, err)
	}

	return &p, nil
}

// UpdateProfile overwrites bio, skills and interests for profile.UserID.
func (db *DB) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	skills, interests, err := encodeLists(profile)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles
		 SET bio = ?, skills = ?, interests = ?, updated_at = ?
		 WHERE user_id = ?`,
		profile.Bio,
		skills,
		interests,
		profile.UpdatedAt,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", profile.UserID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", profile.UserID)
	}
	return nil
}

// SearchProfiles lists profiles joined with their owners, newest users first.
//
// LIST MATCHING WITH json_each:
// skills and interests are stored as JSON arrays. json_each() turns an
// array into a virtual table with one row per element, so "profile has any
// of these skills" becomes an EXISTS over that table. Matching is
// case-insensitive.
//
// The WHERE clause is assembled from fixed fragments only; every user value
// goes through a ? placeholder.
func (db *DB) SearchProfiles(ctx context.Context, filter repository.ProfileFilter) ([]model.PublicProfile, error) {
	var (
		where []string
		args  []any
	)

	if filter.Role != "" {
		where = append(where, "u.role = ?")
		args = append(args, string(filter.Role))
	}
	if len(filter.Skills) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(p.skills) WHERE lower(json_each.value) IN (%s))",
			placeholders(len(filter.Skills))))
		for _, s := range filter.Skills {
			args = append(args, strings.ToLower(s))
		}
	}
	if len(filter.Interests) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(p.interests) WHERE lower(json_each.value) IN (%s))",
			placeholders(len(filter.Interests))))
		for _, i := range filter.Interests {
			args = append(args, strings.ToLower(i))
		}
	}

	query := `SELECT u.id, u.first_name, u.last_name, u.email, u.role,
	                 p.bio, p.skills, p.interests, p.created_at, p.updated_at
	          FROM profiles p
	          JOIN users u ON u.id = p.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY u.created_at DESC, u.id DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.PublicProfile{}
	for rows.Next() {
		var (
			pp                model.PublicProfile
			role              string
			skills, interests string
		)
		if err := rows.Scan(
			&pp.User.ID, &pp.User.FirstName, &pp.User.LastName, &pp.User.Email, &role,
			&pp.Bio, &skills, &interests, &pp.CreatedAt, &pp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		pp.User.Role = model.Role(role)
		pp.UserID = pp.User.ID
		if pp.Skills, err = decodeList(skills); err != nil {
			return nil, fmt.Errorf("sqlite: decoding skills for %s: %w", pp.UserID, err)
		}
		if pp.Interests, err = decodeList(interests); err != nil {
			return nil, fmt.Errorf("sqlite: decoding interests for %s: %w", pp.UserID, err)
		}
		profiles = append(profiles, pp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profiles: %w", err)
	}

	return profiles, nil
}
