package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendConnectionStatus string

// Blocked pairs are not a connection status; they live in the block list, and
// blocking tears the connection down entirely.
const (
	FriendConnectionPending  FriendConnectionStatus = "pending"
	FriendConnectionAccepted FriendConnectionStatus = "accepted"
)

// FriendConnection is the single edge record for an unordered user pair.
// UserID is the initiator, FriendID the recipient; once accepted the edge is
// symmetric and either side counts as "the friend" of the other.
type FriendConnection struct {
	ID         uuid.UUID              `json:"id"`
	UserID     uuid.UUID              `json:"user_id"`
	FriendID   uuid.UUID              `json:"friend_id"`
	Status     FriendConnectionStatus `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	AcceptedAt *time.Time             `json:"accepted_at,omitempty"`
}

// Other returns the opposite side of the edge from userID.
func (c *FriendConnection) Other(userID uuid.UUID) uuid.UUID {
	if c.UserID == userID {
		return c.FriendID
	}
	return c.UserID
}

// Touches reports whether userID is on either side of the edge.
func (c *FriendConnection) Touches(userID uuid.UUID) bool {
	return c.UserID == userID || c.FriendID == userID
}

// FollowConnection is a directed, unapproved edge. It exists or it does not;
// there is no pending state.
type FollowConnection struct {
	ID          uuid.UUID `json:"id"`
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Friend is a normalized view of an accepted connection: always the other
// user's id regardless of which side initiated.
type Friend struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	UserID       uuid.UUID `json:"user_id"`
	Since        time.Time `json:"since"`
}

type FriendSummary struct {
	Friend
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type FriendRequestSummary struct {
	RequestID   uuid.UUID `json:"request_id"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	SentAt      time.Time `json:"sent_at"`
}
