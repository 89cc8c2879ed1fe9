package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

var _ repository.ConnectionRepository = (*DB)(nil)

const connectionColumns = `id, mentor_id, mentee_id, initiator_id, status, created_at, updated_at`

// CreateConnection inserts a new request and fills in its id and timestamps.
//
// Constraint failures are translated here so no driver error escapes:
//   - UNIQUE (idx_connection_requests_active_pair): another pending or
//     accepted row exists for the pair → apperror.ErrConflict
//   - FOREIGN KEY: one of the users was deleted meanwhile → apperror.ErrNotFound
func (db *DB) CreateConnection(ctx context.Context, c *model.ConnectionRequest) error {
	now := time.Now().UTC()
	c.ID = xid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.StatusPending
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO connection_requests (`+connectionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.MentorID,
		c.MenteeID,
		c.InitiatorID,
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperror.Conflict("connection", c.MentorID+"/"+c.MenteeID)
		case isForeignKeyViolation(err):
			return apperror.NotFoundMessage("user not found")
		}
		return fmt.Errorf("sqlite: creating connection request: %w", err)
	}

	return nil
}

// GetConnection returns the request with the given id.
func (db *DB) GetConnection(ctx context.Context, id string) (*model.ConnectionRequest, error) {
	return db.findConnection(ctx, apperror.NotFound("connection", id),
		`SELECT `+connectionColumns+` FROM connection_requests WHERE id = ?`, id)
}

// FindActiveConnection returns the pending or accepted request for the pair.
func (db *DB) FindActiveConnection(ctx context.Context, mentorID, menteeID string) (*model.ConnectionRequest, error) {
	return db.findConnection(ctx, apperror.NotFoundMessage("no active connection for pair"),
		`SELECT `+connectionColumns+`
		 FROM connection_requests
		 WHERE mentor_id = ? AND mentee_id = ? AND status IN ('pending', 'accepted')
		 LIMIT 1`,
		mentorID, menteeID)
}

// FindPendingForResponder loads a pending request that actorID may answer.
//
// The authorization rule lives in the WHERE clause: the actor must be one of
// the two parties and must not be the one who sent it. A request that
// exists but fails the rule is reported exactly like a missing one.
func (db *DB) FindPendingForResponder(ctx context.Context, id, actorID string) (*model.ConnectionRequest, error) {
	return db.findConnection(ctx, notFoundOrUnauthorized(),
		`SELECT `+connectionColumns+`
		 FROM connection_requests
		 WHERE id = ?
		   AND (mentor_id = ? OR mentee_id = ?)
		   AND initiator_id <> ?
		   AND status = 'pending'`,
		id, actorID, actorID, actorID)
}

// FindPendingForInitiator loads a pending request that actorID sent.
func (db *DB) FindPendingForInitiator(ctx context.Context, id, actorID string) (*model.ConnectionRequest, error) {
	return db.findConnection(ctx, notFoundOrUnauthorized(),
		`SELECT `+connectionColumns+`
		 FROM connection_requests
		 WHERE id = ? AND initiator_id = ? AND status = 'pending'`,
		id, actorID)
}

// UpdateConnectionStatus is a compare-and-set on status: the row only changes
// if it is still in from. Two concurrent accepts therefore cannot both win.
func (db *DB) UpdateConnectionStatus(ctx context.Context, id string, from, to model.Status) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE connection_requests
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(from),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("connection", id)
		}
		return fmt.Errorf("sqlite: updating connection %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundOrUnauthorized()
	}
	return nil
}

// DeleteConnection hard-deletes the request. There is no audit trail.
func (db *DB) DeleteConnection(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM connection_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting connection %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("connection", id)
	}
	return nil
}

// ListConnectionsForUser returns every request involving userID with the
// other party's identity attached.
//
// The JOIN picks the counterpart with a CASE: if userID is the mentor, join
// on the mentee, otherwise on the mentor.
func (db *DB) ListConnectionsForUser(ctx context.Context, userID string) ([]model.ConnectionView, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.mentor_id, c.mentee_id, c.initiator_id, c.status, c.created_at, c.updated_at,
		        u.id, u.first_name, u.last_name, u.email, u.role
		 FROM connection_requests c
		 JOIN users u
		   ON u.id = CASE WHEN c.mentor_id = ? THEN c.mentee_id ELSE c.mentor_id END
		 WHERE c.mentor_id = ? OR c.mentee_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing connections for %s: %w", userID, err)
	}
	defer rows.Close()

	views := []model.ConnectionView{}
	for rows.Next() {
		var (
			v            model.ConnectionView
			status, role string
		)
		if err := rows.Scan(
			&v.ID, &v.MentorID, &v.MenteeID, &v.InitiatorID, &status, &v.CreatedAt, &v.UpdatedAt,
			&v.Counterpart.ID, &v.Counterpart.FirstName, &v.Counterpart.LastName,
			&v.Counterpart.Email, &role,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning connection row: %w", err)
		}
		v.Status = model.Status(status)
		v.Counterpart.Role = model.Role(role)
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating connections: %w", err)
	}

	return views, nil
}

func (db *DB) findConnection(ctx context.Context, notFound error, query string, args ...any) (*model.ConnectionRequest, error) {
	var (
		c      model.ConnectionRequest
		status string
	)
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.MentorID, &c.MenteeID, &c.InitiatorID, &status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("sqlite: loading connection: %w", err)
	}
	c.Status = model.Status(status)
	return &c, nil
}

func notFoundOrUnauthorized() error {
	return apperror.NotFoundMessage("connection request not found or not authorized")
}
