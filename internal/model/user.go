// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, much like classes elsewhere,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Role is the fixed side a user takes in the platform. It is chosen at
// registration and never changes afterwards.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleMentor || r == RoleMentee
}

// User represents a registered account.
//
// WHY PasswordHash HAS json:"-"?
// The struct is returned directly by several handlers. Tagging the hash with
// "-" means encoding/json never writes it, so a handler cannot leak it by
// accident, even one written later by someone who forgot it was there.
type User struct {
	ID           string    `json:"id"        db:"id"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName"  db:"last_name"`
	Email        string    `json:"email"     db:"email"` // unique, stored lower-case
	PasswordHash string    `json:"-"         db:"password_hash"`
	Role         Role      `json:"role"      db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Identity returns the public display fields of u.
func (u *User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// Identity is the subset of a User that other users are allowed to see.
type Identity struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}
