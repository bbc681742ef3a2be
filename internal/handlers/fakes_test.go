package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/models"
	"github.com/athletiq/socialgraph/internal/services"
)

// fakeGraph implements services.SocialGraphInterface with overridable funcs.
// Unset funcs return zero values.
type fakeGraph struct {
	SendFriendRequestFunc    func(ctx context.Context, from, to uuid.UUID) (services.Result, error)
	AcceptFriendRequestFunc  func(ctx context.Context, requestID, userID uuid.UUID) (services.Result, error)
	DeclineFriendRequestFunc func(ctx context.Context, requestID, userID uuid.UUID) (services.Result, error)
	CancelFriendRequestFunc  func(ctx context.Context, requestID, userID uuid.UUID) (services.Result, error)
	RemoveFriendFunc         func(ctx context.Context, userID, connectionID uuid.UUID) (services.Result, error)
	FollowAthleteFunc        func(ctx context.Context, followerID, followingID uuid.UUID) (services.Result, error)
	UnfollowAthleteFunc      func(ctx context.Context, followerID, followingID uuid.UUID) (services.Result, error)
	BlockAthleteFunc         func(ctx context.Context, blockerID, blockedID uuid.UUID) (services.Result, error)
	UnblockAthleteFunc       func(ctx context.Context, blockerID, blockedID uuid.UUID) (services.Result, error)
	GetAthleteProfileFunc    func(ctx context.Context, viewerID, targetID uuid.UUID) (*models.ProfileView, error)
	GetActivityFeedFunc      func(ctx context.Context, userID uuid.UUID, limit int) ([]models.FeedEntry, error)
	GetFriendsFunc           func(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error)
	GetPendingFunc           func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error)
	GetSentFunc              func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error)
	GetBlockedFunc           func(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	SearchAthletesFunc       func(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]models.AthleteSearchResult, error)
	CreateActivityFunc       func(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, title, description string, metadata map[string]string) (*models.ActivityFeedItem, error)
	AddReactionFunc          func(ctx context.Context, userID, itemID uuid.UUID, emoji string) (services.Result, error)
}

func (g *fakeGraph) SendFriendRequest(ctx context.Context, from, to uuid.UUID) (services.Result, error) {
	if g.SendFriendRequestFunc == nil {
		return services.Result{}, nil
	}
	return g.SendFriendRequestFunc(ctx, from, to)
}

func (g *fakeGraph) AcceptFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (services.Result, error) {
	if g.AcceptFriendRequestFunc == nil {
		return services.Result{}, nil
	}
	return g.AcceptFriendRequestFunc(ctx, requestID, userID)
}

func (g *fakeGraph) DeclineFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (services.Result, error) {
	if g.DeclineFriendRequestFunc == nil {
		return services.Result{}, nil
	}
	return g.DeclineFriendRequestFunc(ctx, requestID, userID)
}

func (g *fakeGraph) CancelFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (services.Result, error) {
	if g.CancelFriendRequestFunc == nil {
		return services.Result{}, nil
	}
	return g.CancelFriendRequestFunc(ctx, requestID, userID)
}

func (g *fakeGraph) RemoveFriend(ctx context.Context, userID, connectionID uuid.UUID) (services.Result, error) {
	if g.RemoveFriendFunc == nil {
		return services.Result{}, nil
	}
	return g.RemoveFriendFunc(ctx, userID, connectionID)
}

func (g *fakeGraph) FollowAthlete(ctx context.Context, followerID, followingID uuid.UUID) (services.Result, error) {
	if g.FollowAthleteFunc == nil {
		return services.Result{}, nil
	}
	return g.FollowAthleteFunc(ctx, followerID, followingID)
}

func (g *fakeGraph) UnfollowAthlete(ctx context.Context, followerID, followingID uuid.UUID) (services.Result, error) {
	if g.UnfollowAthleteFunc == nil {
		return services.Result{}, nil
	}
	return g.UnfollowAthleteFunc(ctx, followerID, followingID)
}

func (g *fakeGraph) BlockAthlete(ctx context.Context, blockerID, blockedID uuid.UUID) (services.Result, error) {
	if g.BlockAthleteFunc == nil {
		return services.Result{}, nil
	}
	return g.BlockAthleteFunc(ctx, blockerID, blockedID)
}

func (g *fakeGraph) UnblockAthlete(ctx context.Context, blockerID, blockedID uuid.UUID) (services.Result, error) {
	if g.UnblockAthleteFunc == nil {
		return services.Result{}, nil
	}
	return g.UnblockAthleteFunc(ctx, blockerID, blockedID)
}

func (g *fakeGraph) GetAthleteProfile(ctx context.Context, viewerID, targetID uuid.UUID) (*models.ProfileView, error) {
	if g.GetAthleteProfileFunc == nil {
		return &models.ProfileView{}, nil
	}
	return g.GetAthleteProfileFunc(ctx, viewerID, targetID)
}

func (g *fakeGraph) GetActivityFeed(ctx context.Context, userID uuid.UUID, limit int) ([]models.FeedEntry, error) {
	if g.GetActivityFeedFunc == nil {
		return []models.FeedEntry{}, nil
	}
	return g.GetActivityFeedFunc(ctx, userID, limit)
}

func (g *fakeGraph) GetFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error) {
	if g.GetFriendsFunc == nil {
		return []models.FriendSummary{}, nil
	}
	return g.GetFriendsFunc(ctx, userID)
}

func (g *fakeGraph) GetPendingFriendRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error) {
	if g.GetPendingFunc == nil {
		return []models.FriendRequestSummary{}, nil
	}
	return g.GetPendingFunc(ctx, userID)
}

func (g *fakeGraph) GetSentFriendRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error) {
	if g.GetSentFunc == nil {
		return []models.FriendRequestSummary{}, nil
	}
	return g.GetSentFunc(ctx, userID)
}

func (g *fakeGraph) GetBlockedAthletes(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if g.GetBlockedFunc == nil {
		return []uuid.UUID{}, nil
	}
	return g.GetBlockedFunc(ctx, userID)
}

func (g *fakeGraph) SearchAthletes(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]models.AthleteSearchResult, error) {
	if g.SearchAthletesFunc == nil {
		return []models.AthleteSearchResult{}, nil
	}
	return g.SearchAthletesFunc(ctx, query, viewerID, limit)
}

func (g *fakeGraph) CreateActivity(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, title, description string, metadata map[string]string) (*models.ActivityFeedItem, error) {
	if g.CreateActivityFunc == nil {
		return &models.ActivityFeedItem{}, nil
	}
	return g.CreateActivityFunc(ctx, userID, activityType, title, description, metadata)
}

func (g *fakeGraph) AddReaction(ctx context.Context, userID, itemID uuid.UUID, emoji string) (services.Result, error) {
	if g.AddReactionFunc == nil {
		return services.Result{}, nil
	}
	return g.AddReactionFunc(ctx, userID, itemID, emoji)
}

// withAthlete attaches id to the request context the way the identity
// middleware does.
func withAthlete(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(SetAthleteID(r.Context(), id))
}
