package model

import "time"

// Profile holds the free-form part of a user's account. There is exactly one
// per user; it is created in the same transaction as the user and deleted
// with it (ON DELETE CASCADE).
type Profile struct {
	UserID    string    `json:"userId"`
	Bio       string    `json:"bio"`
	Skills    []string  `json:"skills"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicProfile is a profile joined with its owner's display identity, the
// shape returned by discovery and profile lookups.
type PublicProfile struct {
	User Identity `json:"user"`
	Profile
}
