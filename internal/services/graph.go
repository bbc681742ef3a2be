package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/logging"
	"github.com/athletiq/socialgraph/internal/models"
)

// Result is the soft-failure value returned for user-facing mutations.
// Expected business-rule conditions come back as {Success: false, Message}
// so the calling UI can render them inline; only infrastructure failures are
// returned as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// User-facing messages for expected conditions.
const (
	MsgRequestNotAllowed = "This athlete isn't accepting friend requests right now"
	MsgCannotSendRequest = "Cannot send friend request"
	MsgSelfFriendRequest = "You can't send a friend request to yourself"
	MsgAlreadyFriends    = "You're already friends with this athlete"
	MsgRequestPending    = "A friend request is already pending"
	MsgRequestNotFound   = "Friend request not found"
	MsgNotRecipient      = "Only the recipient can respond to this request"
	MsgRequestHandled    = "This request has already been handled"
	MsgAthleteNotFound   = "Athlete not found"
	MsgSelfFollow        = "You can't follow yourself"
	MsgAlreadyFollowing  = "You're already following this athlete"
	MsgNotFollowing      = "You aren't following this athlete"
	MsgNotFriends        = "You aren't friends with this athlete"
	MsgSelfBlock         = "You can't block yourself"
	MsgAlreadyBlocked    = "This athlete is already blocked"
	MsgBlockNotFound     = "This athlete isn't blocked"
	MsgActivityNotFound  = "Activity not found"
)

func ok(message string) Result   { return Result{Success: true, Message: message} }
func deny(message string) Result { return Result{Success: false, Message: message} }

const profileCacheKeyPrefix = "profile:"

// SocialGraphService is the facade every other subsystem talks to. It
// orchestrates the relationship store, visibility policy and feed composer,
// and owns the cross-cutting profile cache and parental-control policy.
type SocialGraphService struct {
	rels        *RelationshipStore
	feed        *ActivityFeed
	profiles    ProfileStore
	cache       Cache
	logger      *logging.Logger
	cacheTTL    time.Duration
	searchLimit int
}

func NewSocialGraphService(rels *RelationshipStore, feed *ActivityFeed, profiles ProfileStore, cache Cache, cacheTTL time.Duration, searchLimit int, logger *logging.Logger) *SocialGraphService {
	if logger == nil {
		logger = logging.Default
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if searchLimit < 1 {
		searchLimit = 20
	}
	return &SocialGraphService{
		rels:        rels,
		feed:        feed,
		profiles:    profiles,
		cache:       cache,
		logger:      logger,
		cacheTTL:    cacheTTL,
		searchLimit: searchLimit,
	}
}

// profileByID is the cache-first profile read. The cached value is the raw
// profile record, shared across viewers; visibility is recomputed by every
// caller on every read, hit or miss, so a privacy change or a new block
// takes effect without waiting for expiry.
func (s *SocialGraphService) profileByID(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error) {
	key := profileCacheKeyPrefix + id.String()
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if data != nil {
			p := &models.AthleteProfile{}
			if err := json.Unmarshal(data, p); err != nil {
				return nil, fmt.Errorf("decoding cached profile: %w", err)
			}
			return p, nil
		}
	}

	p, err := s.profiles.FetchProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encoding profile for cache: %w", err)
		}
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *SocialGraphService) SendFriendRequest(ctx context.Context, from, to uuid.UUID) (Result, error) {
	if from == to {
		return deny(MsgSelfFriendRequest), nil
	}
	// A block in either direction must not reveal the recipient at all.
	if s.rels.IsBlocked(from, to) {
		return deny(MsgCannotSendRequest), nil
	}

	recipient, err := s.profileByID(ctx, to)
	if errors.Is(err, ErrProfileNotFound) {
		return deny(MsgAthleteNotFound), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !recipient.ParentalControls.AllowFriendRequests {
		return deny(MsgRequestNotAllowed), nil
	}

	conn, err := s.rels.SendFriendRequest(ctx, from, to)
	switch {
	case errors.Is(err, ErrSelfReference):
		return deny(MsgSelfFriendRequest), nil
	case errors.Is(err, ErrUserBlocked):
		return deny(MsgCannotSendRequest), nil
	case errors.Is(err, ErrAlreadyFriends):
		return deny(MsgAlreadyFriends), nil
	case errors.Is(err, ErrRequestPending):
		return deny(MsgRequestPending), nil
	case err != nil:
		return Result{}, err
	}

	if _, err := s.feed.Create(ctx, from, models.ActivityFriendAdded,
		"Sent a friend request", "",
		map[string]string{"friend_id": to.String(), "request_id": conn.ID.String()}); err != nil {
		return Result{}, err
	}

	return ok("Friend request sent"), nil
}

func (s *SocialGraphService) AcceptFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (Result, error) {
	conn, err := s.rels.AcceptFriendRequest(ctx, requestID, userID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return deny(MsgRequestNotFound), nil
	case errors.Is(err, ErrNotRequestRecipient):
		return deny(MsgNotRecipient), nil
	case errors.Is(err, ErrRequestNotPending):
		return deny(MsgRequestHandled), nil
	case err != nil:
		return Result{}, err
	}

	if _, err := s.feed.Create(ctx, userID, models.ActivityFriendAdded,
		"Made a new friend", "",
		map[string]string{"friend_id": conn.Other(userID).String()}); err != nil {
		return Result{}, err
	}

	return ok("Friend request accepted"), nil
}

func (s *SocialGraphService) DeclineFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (Result, error) {
	err := s.rels.DeclineFriendRequest(ctx, requestID, userID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return deny(MsgRequestNotFound), nil
	case errors.Is(err, ErrNotRequestRecipient):
		return deny(MsgNotRecipient), nil
	case errors.Is(err, ErrRequestNotPending):
		return deny(MsgRequestHandled), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Friend request declined"), nil
}

func (s *SocialGraphService) CancelFriendRequest(ctx context.Context, requestID, userID uuid.UUID) (Result, error) {
	err := s.rels.CancelFriendRequest(ctx, requestID, userID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return deny(MsgRequestNotFound), nil
	case errors.Is(err, ErrRequestNotPending):
		return deny(MsgRequestHandled), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Friend request cancelled"), nil
}

func (s *SocialGraphService) RemoveFriend(ctx context.Context, userID, connectionID uuid.UUID) (Result, error) {
	err := s.rels.RemoveFriend(ctx, userID, connectionID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return deny(MsgRequestNotFound), nil
	case errors.Is(err, ErrNotFriends):
		return deny(MsgNotFriends), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Friend removed"), nil
}

// FollowAthlete does not consult parental controls: follow has no approval
// step, and the privacy tier gates what a follower can see, not whether the
// edge exists.
func (s *SocialGraphService) FollowAthlete(ctx context.Context, followerID, followingID uuid.UUID) (Result, error) {
	_, err := s.rels.FollowUser(ctx, followerID, followingID)
	switch {
	case errors.Is(err, ErrSelfReference):
		return deny(MsgSelfFollow), nil
	case errors.Is(err, ErrAlreadyFollowing):
		return deny(MsgAlreadyFollowing), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Now following this athlete"), nil
}

func (s *SocialGraphService) UnfollowAthlete(ctx context.Context, followerID, followingID uuid.UUID) (Result, error) {
	err := s.rels.UnfollowUser(ctx, followerID, followingID)
	switch {
	case errors.Is(err, ErrNotFollowing):
		return deny(MsgNotFollowing), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Unfollowed this athlete"), nil
}

func (s *SocialGraphService) BlockAthlete(ctx context.Context, blockerID, blockedID uuid.UUID) (Result, error) {
	err := s.rels.BlockUser(ctx, blockerID, blockedID)
	switch {
	case errors.Is(err, ErrSelfReference):
		return deny(MsgSelfBlock), nil
	case errors.Is(err, ErrAlreadyBlocked):
		return deny(MsgAlreadyBlocked), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Athlete blocked"), nil
}

func (s *SocialGraphService) UnblockAthlete(ctx context.Context, blockerID, blockedID uuid.UUID) (Result, error) {
	err := s.rels.UnblockUser(ctx, blockerID, blockedID)
	switch {
	case errors.Is(err, ErrBlockNotFound):
		return deny(MsgBlockNotFound), nil
	case err != nil:
		return Result{}, err
	}
	return ok("Athlete unblocked"), nil
}

// GetAthleteProfile returns the target's profile view for viewerID. A block
// in either direction behaves as if the profile does not exist; a profile
// the viewer may not see comes back redacted.
func (s *SocialGraphService) GetAthleteProfile(ctx context.Context, viewerID, targetID uuid.UUID) (*models.ProfileView, error) {
	if viewerID != targetID && s.rels.IsBlocked(viewerID, targetID) {
		return nil, ErrProfileNotFound
	}

	profile, err := s.profileByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !CanViewProfile(profile, viewerID, s.rels) {
		return RedactProfile(profile), nil
	}

	view := profileView(profile)
	view.Stats = &models.AthleteStats{
		FriendCount:    len(s.rels.GetFriends(targetID)),
		FollowerCount:  s.rels.FollowerCount(targetID),
		FollowingCount: s.rels.FollowingCount(targetID),
		ActivityCount:  s.feed.CountByUser(targetID),
	}
	view.RecentAchievements = s.recentAchievements(profile, viewerID, 3)
	return view, nil
}

func (s *SocialGraphService) recentAchievements(owner *models.AthleteProfile, viewerID uuid.UUID, n int) []*models.ActivityFeedItem {
	var achievements []*models.ActivityFeedItem
	for _, item := range s.feed.OwnedBy(owner.ID) {
		if item.Type != models.ActivityAchievementUnlocked {
			continue
		}
		if !CanViewActivity(item, owner, viewerID, s.rels) {
			continue
		}
		achievements = append(achievements, item)
		if len(achievements) == n {
			break
		}
	}
	return achievements
}

func (s *SocialGraphService) GetActivityFeed(ctx context.Context, userID uuid.UUID, limit int) ([]models.FeedEntry, error) {
	return s.feed.Compose(ctx, userID, limit, s.rels, s.profiles)
}

func (s *SocialGraphService) GetFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error) {
	friends := s.rels.GetFriends(userID)
	summaries := make([]models.FriendSummary, 0, len(friends))
	for _, friend := range friends {
		profile, err := s.profileByID(ctx, friend.UserID)
		if errors.Is(err, ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.FriendSummary{
			Friend:      friend,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
		})
	}
	return summaries, nil
}

func (s *SocialGraphService) GetPendingFriendRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error) {
	return s.requestSummaries(ctx, s.rels.GetPendingIncoming(userID),
		func(c *models.FriendConnection) uuid.UUID { return c.UserID })
}

func (s *SocialGraphService) GetSentFriendRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestSummary, error) {
	return s.requestSummaries(ctx, s.rels.GetPendingOutgoing(userID),
		func(c *models.FriendConnection) uuid.UUID { return c.FriendID })
}

func (s *SocialGraphService) requestSummaries(ctx context.Context, pending []*models.FriendConnection, other func(*models.FriendConnection) uuid.UUID) ([]models.FriendRequestSummary, error) {
	summaries := make([]models.FriendRequestSummary, 0, len(pending))
	for _, conn := range pending {
		otherID := other(conn)
		profile, err := s.profileByID(ctx, otherID)
		if errors.Is(err, ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.FriendRequestSummary{
			RequestID:   conn.ID,
			UserID:      otherID,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			SentAt:      conn.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *SocialGraphService) GetBlockedAthletes(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.rels.ListBlocked(userID), nil
}

// SearchAthletes matches public profiles by username. The is_public flag is
// a coarse pre-filter; the viewer themself and anyone in a block relation
// with them never appear, and display names of profiles the viewer may not
// see are replaced by the private sentinel.
func (s *SocialGraphService) SearchAthletes(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]models.AthleteSearchResult, error) {
	if limit < 1 || limit > s.searchLimit {
		limit = s.searchLimit
	}

	profiles, err := s.profiles.SearchProfiles(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	results := []models.AthleteSearchResult{}
	for _, p := range profiles {
		if p.ID == viewerID {
			continue
		}
		if s.rels.IsBlocked(viewerID, p.ID) {
			continue
		}
		displayName := p.DisplayName
		if !CanViewProfile(p, viewerID, s.rels) {
			displayName = PrivateProfileName
		}
		results = append(results, models.AthleteSearchResult{
			ID:          p.ID,
			Username:    p.Username,
			DisplayName: displayName,
			Sport:       p.Sport,
		})
	}
	return results, nil
}

// CreateActivity is the single write path into the activity log for other
// feature modules (goals, challenges, photos).
func (s *SocialGraphService) CreateActivity(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, title, description string, metadata map[string]string) (*models.ActivityFeedItem, error) {
	return s.feed.Create(ctx, userID, activityType, title, description, metadata)
}

// AddReaction lets userID react to an activity they can see. An item the
// viewer may not see behaves as if it does not exist.
func (s *SocialGraphService) AddReaction(ctx context.Context, userID, itemID uuid.UUID, emoji string) (Result, error) {
	item, found := s.feed.Get(itemID)
	if !found {
		return deny(MsgActivityNotFound), nil
	}

	owner, err := s.profileByID(ctx, item.UserID)
	if errors.Is(err, ErrProfileNotFound) {
		return deny(MsgActivityNotFound), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !CanViewActivity(item, owner, userID, s.rels) {
		return deny(MsgActivityNotFound), nil
	}

	if _, err := s.feed.AddReaction(ctx, itemID, userID, emoji); err != nil {
		return Result{}, err
	}
	return ok("Reaction added"), nil
}
