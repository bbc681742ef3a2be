package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityAchievementUnlocked ActivityType = "achievement_unlocked"
	ActivityGoalCompleted       ActivityType = "goal_completed"
	ActivityNewPhoto            ActivityType = "new_photo"
	ActivityMilestoneReached    ActivityType = "milestone_reached"
	ActivityFriendAdded         ActivityType = "friend_added"
	ActivityChallengeCompleted  ActivityType = "challenge_completed"
)

type Reaction struct {
	UserID    uuid.UUID `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityFeedItem is append-only and immutable except for the reaction list
// and comment counter.
type ActivityFeedItem struct {
	ID           uuid.UUID         `json:"id"`
	UserID       uuid.UUID         `json:"user_id"`
	Type         ActivityType      `json:"type"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	ImageURL     *string           `json:"image_url,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	IsPublic     bool              `json:"is_public"`
	Reactions    []Reaction        `json:"reactions,omitempty"`
	CommentCount int               `json:"comment_count"`
}

// FeedEntry is one composed feed row: the item plus its owner's profile view
// for display.
type FeedEntry struct {
	Item  *ActivityFeedItem `json:"item"`
	Owner *ProfileView      `json:"owner"`
}
