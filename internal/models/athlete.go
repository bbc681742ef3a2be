package models

import (
	"time"

	"github.com/google/uuid"
)

type VisibilityTier string

const (
	VisibilityPublic  VisibilityTier = "public"
	VisibilityFriends VisibilityTier = "friends"
	VisibilityPrivate VisibilityTier = "private"
)

type ModerationLevel string

const (
	ModerationStandard ModerationLevel = "standard"
	ModerationStrict   ModerationLevel = "strict"
)

// ParentalControls holds the guardian-managed settings attached to every
// athlete profile. The engine reads them; it never writes them.
type ParentalControls struct {
	AllowDirectMessages bool            `json:"allow_direct_messages"`
	AllowFriendRequests bool            `json:"allow_friend_requests"`
	Visibility          VisibilityTier  `json:"visibility"`
	Moderation          ModerationLevel `json:"moderation"`
}

// AthleteStats are derived counts only; raw activity never leaves the feed.
type AthleteStats struct {
	FriendCount    int `json:"friend_count"`
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`
	ActivityCount  int `json:"activity_count"`
}

type AthleteProfile struct {
	ID               uuid.UUID        `json:"id"`
	Username         string           `json:"username"`
	DisplayName      string           `json:"display_name"`
	AvatarURL        *string          `json:"avatar_url,omitempty"`
	Sport            string           `json:"sport"`
	ExperienceTier   string           `json:"experience_tier"`
	Bio              string           `json:"bio,omitempty"`
	IsPublic         bool             `json:"is_public"`
	ParentalControls ParentalControls `json:"parental_controls"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ProfileView is what the facade returns to callers: either the full profile
// with derived stats attached, or a redacted stub when the viewer may not see
// the non-public fields.
type ProfileView struct {
	ID                 uuid.UUID           `json:"id"`
	Username           string              `json:"username"`
	DisplayName        string              `json:"display_name"`
	AvatarURL          *string             `json:"avatar_url,omitempty"`
	Sport              string              `json:"sport"`
	ExperienceTier     string              `json:"experience_tier,omitempty"`
	Bio                string              `json:"bio,omitempty"`
	Stats              *AthleteStats       `json:"stats,omitempty"`
	RecentAchievements []*ActivityFeedItem `json:"recent_achievements,omitempty"`
}

type AthleteSearchResult struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Sport       string    `json:"sport"`
}
