package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

// Compile-time check that *DB satisfies the interface.
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at`

// CreateUserWithProfile inserts a user and its profile atomically.
//
// Both INSERTs run on the same *sql.Tx. If the profile insert fails the user
// insert is rolled back with it, so there is never a user without a profile.
//
// A duplicate email trips the UNIQUE constraint on users.email; we report it
// as apperror.Conflict so the service can phrase it for the caller. This is
// also what happens when two registrations for the same email race past the
// service's lookup.
func (db *DB) CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	skills, interests, err := encodeLists(profile)
	if err != nil {
		return err
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID,
			user.FirstName,
			user.LastName,
			user.Email,
			user.PasswordHash,
			string(user.Role),
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Email)
			}
			return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (user_id, bio, skills, interests, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			profile.UserID,
			profile.Bio,
			skills,
			interests,
			profile.CreatedAt,
			profile.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting profile for user %s: %w", user.ID, err)
		}

		return nil
	})
}

// GetUserByID returns the user with the given id or apperror.NotFound.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by (already normalised) email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// DeleteUser removes the user row. ON DELETE CASCADE removes the profile and
// every connection request the user is part of in the same statement.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// encodeLists serialises the profile's list fields as JSON arrays. A nil
// slice is stored as "[]" so json_each never sees NULL.
func encodeLists(p *model.Profile) (skills, interests string, err error) {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}

	s, err := json.Marshal(p.Skills)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encoding skills: %w", err)
	}
	i, err := json.Marshal(p.Interests)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encoding interests: %w", err)
	}
	return string(s), string(i), nil
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
