package model

import "time"

// Status is the lifecycle state of a ConnectionRequest.
//
//	pending --accept-->  accepted
//	pending --reject-->  (deleted)
//	pending --cancel-->  (deleted, initiator only)
//	accepted --remove--> (deleted, either party)
//
// StatusRejected is accepted by the schema for compatibility with older
// rows, but the workflow deletes rejected requests instead of storing them.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Active reports whether s counts toward the one-active-record-per-pair rule.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

// ConnectionRequest pairs one mentor with one mentee.
//
// MentorID always holds the user whose role is mentor, regardless of who sent
// the request; InitiatorID records who sent it and is always one of the two.
type ConnectionRequest struct {
	ID          string    `json:"id"`
	MentorID    string    `json:"mentorId"`
	MenteeID    string    `json:"menteeId"`
	InitiatorID string    `json:"initiatorId"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Involves reports whether userID is the mentor or the mentee on the record.
func (c *ConnectionRequest) Involves(userID string) bool {
	return c.MentorID == userID || c.MenteeID == userID
}

// CounterpartOf returns the id of the other party. The result is meaningless
// when userID is not involved.
func (c *ConnectionRequest) CounterpartOf(userID string) string {
	if c.MentorID == userID {
		return c.MenteeID
	}
	return c.MentorID
}

// Direction tags a pending request from one user's point of view.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ConnectionView is a request as seen by one of its parties: the record
// plus the other party's identity and, for pending requests, the direction.
type ConnectionView struct {
	ConnectionRequest
	Counterpart Identity  `json:"counterpart"`
	Direction   Direction `json:"direction,omitempty"`
}

// ConnectionList is the result of listing a user's connections.
type ConnectionList struct {
	Active  []ConnectionView `json:"active"`
	Pending []ConnectionView `json:"pending"`
}
