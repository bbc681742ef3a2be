package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/models"
	"github.com/athletiq/socialgraph/internal/queue"
)

// Row and Rows mirror the pgx result shapes the profile store needs.
type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// DB is the narrow database surface the profile store depends on.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// KVStore is the persistent key-value store the engine keeps its working set
// in. Load returns (nil, nil) for an absent namespace.
type KVStore interface {
	Load(ctx context.Context, namespace string) ([]byte, error)
	Save(ctx context.Context, namespace string, data []byte) error
}

// Cache is the keyed cache used for profile reads. Get returns (nil, nil) on
// a miss. Cached values never embed a visibility decision.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MutationQueue accepts deferred writes for eventual remote delivery and
// reports current connectivity.
type MutationQueue interface {
	Enqueue(ctx context.Context, m queue.Mutation) error
	IsOffline() bool
}

// ProfileStore is the external owner of athlete profiles.
type ProfileStore interface {
	FetchProfile(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error)
	SearchProfiles(ctx context.Context, query string, limit int) ([]*models.AthleteProfile, error)
}

// RelationshipReader is the read surface the visibility policy needs.
type RelationshipReader interface {
	IsFriend(a, b uuid.UUID) bool
	IsBlocked(a, b uuid.UUID) bool
}

// RelationshipView adds the friend list for feed composition.
type RelationshipView interface {
	RelationshipReader
	GetFriends(userID uuid.UUID) []models.Friend
}

// SocialGraphInterface is the facade contract the HTTP handlers depend on.
type SocialGraphInterface interface {
	SendFriendRequest(ctx context.Context, from, to uuid.UUID) (Result, error)
	AcceptFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (Result, error)
	DeclineFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (Result, error)
	CancelFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (Result, error)
	RemoveFriend(ctx context.Context, userID, connectionID uuid.UUID) (Result, error)
	FollowAthlete(ctx context.Context, followerID, followingID uuid.UUID) (Result, error)
	UnfollowAthlete(ctx context.Context, followerID, followingID uuid.UUID) (Result, error)
	BlockAthlete(ctx context.Context, blockerID, blockedID uuid.UUID) (Result, error)
	UnblockAthlete(ctx context.Context, blockerID, blockedID uuid.UUID) (Result, error)
	GetAthleteProfile(ctx context.Context, viewerID, targetID uuid.UUID) (*models.ProfileView, error)
	GetActivityFeed(ctx context.Context, userID uuid.UUID, limit int) ([]models.FeedEntry, error)
	GetFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error)
	GetPendingFriendRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error)
	GetSentFriendRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error)
	GetBlockedAthletes(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	SearchAthletes(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]models.AthleteSearchResult, error)
	CreateActivity(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, title, description string, metadata map[string]string) (*models.ActivityFeedItem, error)
	AddReaction(ctx context.Context, userID, itemID uuid.UUID, emoji string) (Result, error)
}
