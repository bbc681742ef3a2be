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
	ErrSelfReference       = errors.New("cannot target yourself")
	ErrUserBlocked         = errors.New("user is blocked")
	ErrAlreadyFriends      = errors.New("already friends")
	ErrRequestPending      = errors.New("friend request already pending")
	ErrRequestNotFound     = errors.New("friend request not found")
	ErrNotRequestRecipient = errors.New("only the recipient can respond")
	ErrRequestNotPending   = errors.New("friend request is not pending")
	ErrNotFriends          = errors.New("not friends with this user")
	ErrAlreadyFollowing    = errors.New("already following this user")
	ErrNotFollowing        = errors.New("not following this user")
	ErrAlreadyBlocked      = errors.New("user is already blocked")
	ErrBlockNotFound       = errors.New("block not found")
)

const relationshipNamespace = "relationships"

// relationshipState is the persisted snapshot of the store.
type relationshipState struct {
	Friends []*models.FriendConnection `json:"friends"`
	Follows []*models.FollowConnection `json:"follows"`
	Blocks  map[uuid.UUID][]uuid.UUID  `json:"blocks"`
}

// RelationshipStore owns friend edges, follow edges and block lists. Local
// state is authoritative: every mutation is written through to the key-value
// store, and mirrored to the deferred mutation queue while offline so the
// remote side eventually converges. Operations are not safe for concurrent
// use; callers are expected to run them sequentially.
type RelationshipStore struct {
	kv     KVStore
	queue  MutationQueue
	logger *logging.Logger

	friends map[uuid.UUID]*models.FriendConnection
	follows map[uuid.UUID]*models.FollowConnection
	blocks  map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewRelationshipStore(kv KVStore, mq MutationQueue, logger *logging.Logger) *RelationshipStore {
	if logger == nil {
		logger = logging.Default
	}
	return &RelationshipStore{
		kv:      kv,
		queue:   mq,
		logger:  logger,
		friends: make(map[uuid.UUID]*models.FriendConnection),
		follows: make(map[uuid.UUID]*models.FollowConnection),
		blocks:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Load restores the working set from the key-value store. An absent
// namespace loads as an empty store.
func (s *RelationshipStore) Load(ctx context.Context) error {
	data, err := s.kv.Load(ctx, relationshipNamespace)
	if err != nil {
		return fmt.Errorf("loading relationships: %w", err)
	}
	if data == nil {
		return nil
	}

	var state relationshipState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decoding relationships: %w", err)
	}

	s.friends = make(map[uuid.UUID]*models.FriendConnection, len(state.Friends))
	for _, c := range state.Friends {
		s.friends[c.ID] = c
	}
	s.follows = make(map[uuid.UUID]*models.FollowConnection, len(state.Follows))
	for _, f := range state.Follows {
		s.follows[f.ID] = f
	}
	s.blocks = make(map[uuid.UUID]map[uuid.UUID]struct{}, len(state.Blocks))
	for blocker, blocked := range state.Blocks {
		set := make(map[uuid.UUID]struct{}, len(blocked))
		for _, id := range blocked {
			set[id] = struct{}{}
		}
		s.blocks[blocker] = set
	}
	return nil
}

func (s *RelationshipStore) save(ctx context.Context) error {
	state := relationshipState{
		Friends: make([]*models.FriendConnection, 0, len(s.friends)),
		Follows: make([]*models.FollowConnection, 0, len(s.follows)),
		Blocks:  make(map[uuid.UUID][]uuid.UUID, len(s.blocks)),
	}
	for _, c := range s.friends {
		state.Friends = append(state.Friends, c)
	}
	sort.Slice(state.Friends, func(i, j int) bool {
		return state.Friends[i].CreatedAt.Before(state.Friends[j].CreatedAt)
	})
	for _, f := range s.follows {
		state.Follows = append(state.Follows, f)
	}
	sort.Slice(state.Follows, func(i, j int) bool {
		return state.Follows[i].CreatedAt.Before(state.Follows[j].CreatedAt)
	})
	for blocker, set := range s.blocks {
		ids := make([]uuid.UUID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		state.Blocks[blocker] = ids
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding relationships: %w", err)
	}
	if err := s.kv.Save(ctx, relationshipNamespace, data); err != nil {
		return fmt.Errorf("persisting relationships: %w", err)
	}
	return nil
}

// mirror queues the mutation for remote sync while offline. A queue failure
// is logged, never rolled back: the local write already committed.
func (s *RelationshipStore) mirror(ctx context.Context, kind queue.Kind, path string, payload any, priority queue.Priority) {
	if s.queue == nil || !s.queue.IsOffline() {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("Encoding deferred mutation failed", map[string]any{"path": path, "error": err.Error()})
		return
	}
	m := queue.Mutation{Kind: kind, Path: path, Payload: body, Priority: priority}
	if err := s.queue.Enqueue(ctx, m); err != nil {
		s.logger.Warn("Queueing deferred mutation failed", map[string]any{"path": path, "error": err.Error()})
	}
}

// pairConnection returns the single edge for the unordered pair, if any.
func (s *RelationshipStore) pairConnection(a, b uuid.UUID) *models.FriendConnection {
	for _, c := range s.friends {
		if (c.UserID == a && c.FriendID == b) || (c.UserID == b && c.FriendID == a) {
			return c
		}
	}
	return nil
}

func (s *RelationshipStore) SendFriendRequest(ctx context.Context, from, to uuid.UUID) (*models.FriendConnection, error) {
	if from == to {
		return nil, ErrSelfReference
	}
	if s.IsBlocked(from, to) {
		return nil, ErrUserBlocked
	}
	if existing := s.pairConnection(from, to); existing != nil {
		if existing.Status == models.FriendConnectionAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrRequestPending
	}

	conn := &models.FriendConnection{
		ID:        uuid.New(),
		UserID:    from,
		FriendID:  to,
		Status:    models.FriendConnectionPending,
		CreatedAt: time.Now().UTC(),
	}
	s.friends[conn.ID] = conn
	if err := s.save(ctx); err != nil {
		delete(s.friends, conn.ID)
		return nil, err
	}

	s.mirror(ctx, queue.KindCreate, "/social/friend-requests", conn, queue.PriorityHigh)
	return conn, nil
}

func (s *RelationshipStore) AcceptFriendRequest(ctx context.Context, requestID, acceptingUser uuid.UUID) (*models.FriendConnection, error) {
	conn, ok := s.friends[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if conn.FriendID != acceptingUser {
		return nil, ErrNotRequestRecipient
	}
	if conn.Status != models.FriendConnectionPending {
		return nil, ErrRequestNotPending
	}

	now := time.Now().UTC()
	conn.Status = models.FriendConnectionAccepted
	conn.AcceptedAt = &now
	if err := s.save(ctx); err != nil {
		conn.Status = models.FriendConnectionPending
		conn.AcceptedAt = nil
		return nil, err
	}

	s.mirror(ctx, queue.KindUpdate,
		fmt.Sprintf("/social/friend-requests/%s/accept", conn.ID),
		map[string]any{"id": conn.ID, "user_id": acceptingUser, "accepted_at": now},
		queue.PriorityHigh)
	return conn, nil
}

// DeclineFriendRequest deletes the pending record; a rejection is not
// retained.
func (s *RelationshipStore) DeclineFriendRequest(ctx context.Context, requestID, decliningUser uuid.UUID) error {
	conn, ok := s.friends[requestID]
	if !ok {
		return ErrRequestNotFound
	}
	if conn.FriendID != decliningUser {
		return ErrNotRequestRecipient
	}
	if conn.Status != models.FriendConnectionPending {
		return ErrRequestNotPending
	}

	delete(s.friends, requestID)
	if err := s.save(ctx); err != nil {
		s.friends[requestID] = conn
		return err
	}

	s.mirror(ctx, queue.KindUpdate,
		fmt.Sprintf("/social/friend-requests/%s/decline", conn.ID),
		map[string]any{"id": conn.ID, "user_id": decliningUser},
		queue.PriorityHigh)
	return nil
}

// CancelFriendRequest lets the sender withdraw a pending request. A caller
// who is not the sender learns nothing beyond "not found".
func (s *RelationshipStore) CancelFriendRequest(ctx context.Context, requestID, cancellingUser uuid.UUID) error {
	conn, ok := s.friends[requestID]
	if !ok || conn.UserID != cancellingUser {
		return ErrRequestNotFound
	}
	if conn.Status != models.FriendConnectionPending {
		return ErrRequestNotPending
	}

	delete(s.friends, requestID)
	if err := s.save(ctx); err != nil {
		s.friends[requestID] = conn
		return err
	}

	s.mirror(ctx, queue.KindUpdate,
		fmt.Sprintf("/social/friend-requests/%s/cancel", conn.ID),
		map[string]any{"id": conn.ID, "user_id": cancellingUser},
		queue.PriorityHigh)
	return nil
}

// RemoveFriend deletes an accepted connection. Either party may remove it.
func (s *RelationshipStore) RemoveFriend(ctx context.Context, userID, connectionID uuid.UUID) error {
	conn, ok := s.friends[connectionID]
	if !ok || !conn.Touches(userID) {
		return ErrRequestNotFound
	}
	if conn.Status != models.FriendConnectionAccepted {
		return ErrNotFriends
	}

	delete(s.friends, connectionID)
	if err := s.save(ctx); err != nil {
		s.friends[connectionID] = conn
		return err
	}

	s.mirror(ctx, queue.KindUpdate,
		fmt.Sprintf("/social/friends/%s/remove", conn.ID),
		map[string]any{"id": conn.ID, "user_id": userID},
		queue.PriorityHigh)
	return nil
}

func (s *RelationshipStore) FollowUser(ctx context.Context, follower, followee uuid.UUID) (*models.FollowConnection, error) {
	if follower == followee {
		return nil, ErrSelfReference
	}
	if s.followEdge(follower, followee) != nil {
		return nil, ErrAlreadyFollowing
	}

	follow := &models.FollowConnection{
		ID:          uuid.New(),
		FollowerID:  follower,
		FollowingID: followee,
		CreatedAt:   time.Now().UTC(),
	}
	s.follows[follow.ID] = follow
	if err := s.save(ctx); err != nil {
		delete(s.follows, follow.ID)
		return nil, err
	}

	s.mirror(ctx, queue.KindCreate, "/social/follows", follow, queue.PriorityMedium)
	return follow, nil
}

func (s *RelationshipStore) UnfollowUser(ctx context.Context, follower, followee uuid.UUID) error {
	follow := s.followEdge(follower, followee)
	if follow == nil {
		return ErrNotFollowing
	}

	delete(s.follows, follow.ID)
	if err := s.save(ctx); err != nil {
		s.follows[follow.ID] = follow
		return err
	}

	s.mirror(ctx, queue.KindUpdate,
		fmt.Sprintf("/social/follows/%s/remove", follow.ID),
		map[string]any{"id": follow.ID, "follower_id": follower},
		queue.PriorityMedium)
	return nil
}

// BlockUser adds followee to the blocker's block list and tears down any
// existing relationship between the pair, in both directions.
func (s *RelationshipStore) BlockUser(ctx context.Context, blocker, blocked uuid.UUID) error {
	if blocker == blocked {
		return ErrSelfReference
	}
	if _, ok := s.blocks[blocker][blocked]; ok {
		return ErrAlreadyBlocked
	}

	// Capture removed records so a failed save can restore them.
	removedConn := s.pairConnection(blocker, blocked)
	var removedFollows []*models.FollowConnection
	for _, f := range s.follows {
		if (f.FollowerID == blocker && f.FollowingID == blocked) ||
			(f.FollowerID == blocked && f.FollowingID == blocker) {
			removedFollows = append(removedFollows, f)
		}
	}

	if s.blocks[blocker] == nil {
		s.blocks[blocker] = make(map[uuid.UUID]struct{})
	}
	s.blocks[blocker][blocked] = struct{}{}
	if removedConn != nil {
		delete(s.friends, removedConn.ID)
	}
	for _, f := range removedFollows {
		delete(s.follows, f.ID)
	}

	if err := s.save(ctx); err != nil {
		delete(s.blocks[blocker], blocked)
		if removedConn != nil {
			s.friends[removedConn.ID] = removedConn
		}
		for _, f := range removedFollows {
			s.follows[f.ID] = f
		}
		return err
	}

	s.mirror(ctx, queue.KindCreate, "/social/blocks",
		map[string]any{"blocker_id": blocker, "blocked_id": blocked},
		queue.PriorityHigh)
	return nil
}

func (s *RelationshipStore) UnblockUser(ctx context.Context, blocker, blocked uuid.UUID) error {
	if _, ok := s.blocks[blocker][blocked]; !ok {
		return ErrBlockNotFound
	}

	delete(s.blocks[blocker], blocked)
	if err := s.save(ctx); err != nil {
		s.blocks[blocker][blocked] = struct{}{}
		return err
	}

	s.mirror(ctx, queue.KindUpdate, "/social/blocks/remove",
		map[string]any{"blocker_id": blocker, "blocked_id": blocked},
		queue.PriorityHigh)
	return nil
}

func (s *RelationshipStore) followEdge(follower, followee uuid.UUID) *models.FollowConnection {
	for _, f := range s.follows {
		if f.FollowerID == follower && f.FollowingID == followee {
			return f
		}
	}
	return nil
}

// GetFriends returns every accepted connection touching userID, normalized
// to the other side of each edge, oldest friendship first.
func (s *RelationshipStore) GetFriends(userID uuid.UUID) []models.Friend {
	friends := []models.Friend{}
	for _, c := range s.friends {
		if c.Status != models.FriendConnectionAccepted || !c.Touches(userID) {
			continue
		}
		since := c.CreatedAt
		if c.AcceptedAt != nil {
			since = *c.AcceptedAt
		}
		friends = append(friends, models.Friend{
			ConnectionID: c.ID,
			UserID:       c.Other(userID),
			Since:        since,
		})
	}
	sort.Slice(friends, func(i, j int) bool {
		if friends[i].Since.Equal(friends[j].Since) {
			return friends[i].ConnectionID.String() < friends[j].ConnectionID.String()
		}
		return friends[i].Since.Before(friends[j].Since)
	})
	return friends
}

// GetPendingIncoming returns pending requests where userID is the recipient,
// newest first.
func (s *RelationshipStore) GetPendingIncoming(userID uuid.UUID) []*models.FriendConnection {
	return s.pending(func(c *models.FriendConnection) bool { return c.FriendID == userID })
}

// GetPendingOutgoing returns pending requests userID has sent, newest first.
func (s *RelationshipStore) GetPendingOutgoing(userID uuid.UUID) []*models.FriendConnection {
	return s.pending(func(c *models.FriendConnection) bool { return c.UserID == userID })
}

func (s *RelationshipStore) pending(match func(*models.FriendConnection) bool) []*models.FriendConnection {
	pending := []*models.FriendConnection{}
	for _, c := range s.friends {
		if c.Status == models.FriendConnectionPending && match(c) {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID.String() < pending[j].ID.String()
		}
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending
}

func (s *RelationshipStore) IsFriend(a, b uuid.UUID) bool {
	conn := s.pairConnection(a, b)
	return conn != nil && conn.Status == models.FriendConnectionAccepted
}

// IsBlocked reports whether either side has blocked the other.
func (s *RelationshipStore) IsBlocked(a, b uuid.UUID) bool {
	if _, ok := s.blocks[a][b]; ok {
		return true
	}
	_, ok := s.blocks[b][a]
	return ok
}

func (s *RelationshipStore) ListBlocked(blocker uuid.UUID) []uuid.UUID {
	blocked := []uuid.UUID{}
	for id := range s.blocks[blocker] {
		blocked = append(blocked, id)
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].String() < blocked[j].String() })
	return blocked
}

func (s *RelationshipStore) FollowerCount(userID uuid.UUID) int {
	count := 0
	for _, f := range s.follows {
		if f.FollowingID == userID {
			count++
		}
	}
	return count
}

func (s *RelationshipStore) FollowingCount(userID uuid.UUID) int {
	count := 0
	for _, f := range s.follows {
		if f.FollowerID == userID {
			count++
		}
	}
	return count
}

// IsFollowing reports whether the directed edge follower->followee exists.
func (s *RelationshipStore) IsFollowing(follower, followee uuid.UUID) bool {
	return s.followEdge(follower, followee) != nil
}
