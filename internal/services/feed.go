package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/logging"
	"github.com/athletiq/socialgraph/internal/models"
	"github.com/athletiq/socialgraph/internal/queue"
)

var (
	ErrActivityNotFound    = errors.New("activity not found")
	ErrInvalidActivityType = errors.New("invalid activity type")
)

const feedNamespace = "feed"

// DefaultFeedLimit bounds a feed read when the caller passes no limit.
const DefaultFeedLimit = 50

var knownActivityTypes = map[models.ActivityType]struct{}{
	models.ActivityAchievementUnlocked: {},
	models.ActivityGoalCompleted:       {},
	models.ActivityNewPhoto:            {},
	models.ActivityMilestoneReached:    {},
	models.ActivityFriendAdded:         {},
	models.ActivityChallengeCompleted:  {},
}

// ActivityFeed owns the local activity log: an append-only, bounded buffer
// persisted through the key-value store. Items are immutable once written
// except for their reaction list and comment counter.
type ActivityFeed struct {
	kv       KVStore
	queue    MutationQueue
	logger   *logging.Logger
	maxItems int
	items    []*models.ActivityFeedItem
}

func NewActivityFeed(kv KVStore, mq MutationQueue, maxItems int, logger *logging.Logger) *ActivityFeed {
	if logger == nil {
		logger = logging.Default
	}
	if maxItems < 1 {
		maxItems = 200
	}
	return &ActivityFeed{kv: kv, queue: mq, logger: logger, maxItems: maxItems}
}

func (f *ActivityFeed) Load(ctx context.Context) error {
	data, err := f.kv.Load(ctx, feedNamespace)
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, &f.items); err != nil {
		return fmt.Errorf("decoding feed: %w", err)
	}
	return nil
}

func (f *ActivityFeed) save(ctx context.Context) error {
	data, err := json.Marshal(f.items)
	if err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	if err := f.kv.Save(ctx, feedNamespace, data); err != nil {
		return fmt.Errorf("persisting feed: %w", err)
	}
	return nil
}

func (f *ActivityFeed) mirror(ctx context.Context, kind queue.Kind, path string, payload any) {
	if f.queue == nil || !f.queue.IsOffline() {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		f.logger.Warn("Encoding deferred mutation failed", map[string]any{"path": path, "error": err.Error()})
		return
	}
	m := queue.Mutation{Kind: kind, Path: path, Payload: body, Priority: queue.PriorityLow}
	if err := f.queue.Enqueue(ctx, m); err != nil {
		f.logger.Warn("Queueing deferred mutation failed", map[string]any{"path": path, "error": err.Error()})
	}
}

// Create appends one item to the log. Items created through this path are
// always public; callers wanting private system events must not route
// through it. The retention cap evicts the oldest items after a timestamp
// sort so eviction never drops a newer item while keeping an older one.
func (f *ActivityFeed) Create(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, title, description string, metadata map[string]string) (*models.ActivityFeedItem, error) {
	if _, ok := knownActivityTypes[activityType]; !ok {
		return nil, ErrInvalidActivityType
	}

	item := &models.ActivityFeedItem{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        activityType,
		Title:       title,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
		IsPublic:    true,
	}

	prev := f.items
	next := make([]*models.ActivityFeedItem, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, item)
	if len(next) > f.maxItems {
		sort.SliceStable(next, func(i, j int) bool {
			return next[i].CreatedAt.Before(next[j].CreatedAt)
		})
		next = next[len(next)-f.maxItems:]
	}
	f.items = next

	if err := f.save(ctx); err != nil {
		f.items = prev
		return nil, err
	}

	f.mirror(ctx, queue.KindCreate, "/social/activities", item)
	return item, nil
}

// Get returns the item by id, if it is still retained.
func (f *ActivityFeed) Get(itemID uuid.UUID) (*models.ActivityFeedItem, bool) {
	for _, item := range f.items {
		if item.ID == itemID {
			return item, true
		}
	}
	return nil, false
}

// AddReaction records one reaction per user per item; reacting again
// replaces the previous emoji. Visibility is the caller's concern.
func (f *ActivityFeed) AddReaction(ctx context.Context, itemID, userID uuid.UUID, emoji string) (*models.ActivityFeedItem, error) {
	item, ok := f.Get(itemID)
	if !ok {
		return nil, ErrActivityNotFound
	}

	prev := item.Reactions
	next := make([]models.Reaction, 0, len(prev)+1)
	for _, r := range prev {
		if r.UserID != userID {
			next = append(next, r)
		}
	}
	next = append(next, models.Reaction{UserID: userID, Emoji: emoji, CreatedAt: time.Now().UTC()})
	item.Reactions = next

	if err := f.save(ctx); err != nil {
		item.Reactions = prev
		return nil, err
	}

	f.mirror(ctx, queue.KindCreate,
		fmt.Sprintf("/social/activities/%s/reactions", item.ID),
		map[string]any{"user_id": userID, "emoji": emoji})
	return item, nil
}

// OwnedBy returns userID's items newest first.
func (f *ActivityFeed) OwnedBy(userID uuid.UUID) []*models.ActivityFeedItem {
	owned := []*models.ActivityFeedItem{}
	for _, item := range f.items {
		if item.UserID == userID {
			owned = append(owned, item)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return owned
}

func (f *ActivityFeed) CountByUser(userID uuid.UUID) int {
	count := 0
	for _, item := range f.items {
		if item.UserID == userID {
			count++
		}
	}
	return count
}

// Compose builds the bounded, newest-first feed for userID: the union of
// their own activities and their friends', filtered per-item by the
// visibility policy, with each surviving item's owner attached for display.
// Compose never mutates the log; calling it twice with no intervening writes
// yields identical output.
func (f *ActivityFeed) Compose(ctx context.Context, userID uuid.UUID, limit int, rels RelationshipView, profiles ProfileStore) ([]models.FeedEntry, error) {
	if limit < 1 {
		limit = DefaultFeedLimit
	}

	owners := map[uuid.UUID]struct{}{userID: {}}
	for _, friend := range rels.GetFriends(userID) {
		owners[friend.UserID] = struct{}{}
	}

	fetched := make(map[uuid.UUID]*models.AthleteProfile)
	lookup := func(id uuid.UUID) (*models.AthleteProfile, error) {
		if p, ok := fetched[id]; ok {
			return p, nil
		}
		p, err := profiles.FetchProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		fetched[id] = p
		return p, nil
	}

	var visible []*models.ActivityFeedItem
	for _, item := range f.items {
		if _, ok := owners[item.UserID]; !ok {
			continue
		}
		owner, err := lookup(item.UserID)
		if errors.Is(err, ErrProfileNotFound) {
			// Orphaned item; the owner was deleted upstream.
			continue
		}
		if err != nil {
			return nil, err
		}
		if !CanViewActivity(item, owner, userID, rels) {
			continue
		}
		visible = append(visible, item)
	}

	// Stable sort: ties keep insertion order.
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	if len(visible) > limit {
		visible = visible[:limit]
	}

	entries := make([]models.FeedEntry, 0, len(visible))
	for _, item := range visible {
		owner := fetched[item.UserID]
		var view *models.ProfileView
		if CanViewProfile(owner, userID, rels) {
			view = profileView(owner)
		} else {
			view = RedactProfile(owner)
		}
		entries = append(entries, models.FeedEntry{Item: item, Owner: view})
	}
	return entries, nil
}
