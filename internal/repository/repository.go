// Package repository declares the storage interfaces the services depend on.
//
// The sqlite subpackage provides the production implementation; service tests
// substitute in-memory fakes. Implementations report missing rows as
// apperror.ErrNotFound and unique-constraint violations as
// apperror.ErrConflict, never as raw driver errors.
package repository

import (
	"context"

	"github.com/sakif/mentorship-platform/internal/model"
)

// ProfileFilter narrows a profile search. Empty fields do not filter.
// Skills and Interests match when the profile contains ANY of the values.
type ProfileFilter struct {
	Role      model.Role
	Skills    []string
	Interests []string
}

type UserRepository interface {
	// CreateUserWithProfile inserts both rows in one transaction: either both
	// exist afterwards or neither does.
	CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// DeleteUser removes the user; profile and connection requests cascade.
	DeleteUser(ctx context.Context, id string) error
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
	SearchProfiles(ctx context.Context, filter ProfileFilter) ([]model.PublicProfile, error)
}

type ConnectionRepository interface {
	// CreateConnection fails with apperror.ErrConflict when an active record
	// already exists for the same mentor/mentee pair.
	CreateConnection(ctx context.Context, c *model.ConnectionRequest) error
	GetConnection(ctx context.Context, id string) (*model.ConnectionRequest, error)
	// FindActiveConnection returns the pending or accepted record for the pair.
	FindActiveConnection(ctx context.Context, mentorID, menteeID string) (*model.ConnectionRequest, error)
	// FindPendingForResponder returns the pending request id on which actorID
	// is a party but not the initiator.
	FindPendingForResponder(ctx context.Context, id, actorID string) (*model.ConnectionRequest, error)
	// FindPendingForInitiator returns the pending request id sent by actorID.
	FindPendingForInitiator(ctx context.Context, id, actorID string) (*model.ConnectionRequest, error)
	// UpdateConnectionStatus moves id from one status to another; it reports
	// apperror.ErrNotFound when the row is gone or no longer in from.
	UpdateConnectionStatus(ctx context.Context, id string, from, to model.Status) error
	DeleteConnection(ctx context.Context, id string) error
	// ListConnectionsForUser returns every record involving userID joined with
	// the other party's identity, newest first. Direction is left empty.
	ListConnectionsForUser(ctx context.Context, userID string) ([]model.ConnectionView, error)
}
