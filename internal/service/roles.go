package service

import (
	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
)

// AssignRoles decides which of two users fills the mentor slot of a
// connection. It is a pure function: the caller loads both users, so the
// pairing rule can be tested without storage.
//
// Order does not matter: AssignRoles(a, b) and AssignRoles(b, a) return the
// same pair. Two users with the same role cannot be paired.
func AssignRoles(a, b *model.User) (mentorID, menteeID string, err error) {
	if a.Role == b.Role || !a.Role.Valid() || !b.Role.Valid() {
		return "", "", apperror.RoleConflict()
	}
	if a.Role == model.RoleMentor {
		return a.ID, b.ID, nil
	}
	return b.ID, a.ID, nil
}
