// Package queue implements the deferred mutation queue: local writes that
// must eventually reach the remote sync API are parked here while the device
// is offline and drained, at least once each, when connectivity returns.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/athletiq/socialgraph/internal/logging"
)

type Kind string

const (
	KindCreate Kind = "CREATE"
	KindUpdate Kind = "UPDATE"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// drain order: high first
var priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Mutation is one deferred write. Payload is the JSON body the remote sync
// API expects at Path.
type Mutation struct {
	ID         uuid.UUID       `json:"id"`
	Kind       Kind            `json:"kind"`
	Path       string          `json:"path"`
	Payload    json.RawMessage `json:"payload"`
	Priority   Priority        `json:"priority"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// DeliverFunc pushes one mutation to the remote side. A non-nil error leaves
// the mutation queued for the next drain pass.
type DeliverFunc func(ctx context.Context, m Mutation) error

// Client is the subset of redis commands the queue uses. *redis.Client
// satisfies it.
type Client interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	LIndex(ctx context.Context, key string, index int64) *redis.StringCmd
	RPop(ctx context.Context, key string) *redis.StringCmd
}

// RedisQueue stores pending mutations in one redis list per priority so a
// process restart never loses them. Connectivity is a flag maintained by the
// probe loop; the engine only ever asks "am I offline right now".
type RedisQueue struct {
	client  Client
	prefix  string
	offline atomic.Bool
	logger  *logging.Logger
}

func NewRedisQueue(client Client, prefix string, logger *logging.Logger) *RedisQueue {
	if logger == nil {
		logger = logging.Default
	}
	q := &RedisQueue{client: client, prefix: prefix, logger: logger}
	q.offline.Store(true)
	return q
}

func (q *RedisQueue) key(p Priority) string {
	return fmt.Sprintf("%s:pending:%s", q.prefix, string(p))
}

func (q *RedisQueue) IsOffline() bool {
	return q.offline.Load()
}

func (q *RedisQueue) SetOnline(online bool) {
	q.offline.Store(!online)
}

func (q *RedisQueue) Enqueue(ctx context.Context, m Mutation) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.EnqueuedAt.IsZero() {
		m.EnqueuedAt = time.Now().UTC()
	}
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding mutation: %w", err)
	}
	if err := q.client.LPush(ctx, q.key(m.Priority), data).Err(); err != nil {
		return fmt.Errorf("enqueueing mutation: %w", err)
	}
	return nil
}

// Pending returns the number of queued mutations across all priorities.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	var total int64
	for _, p := range priorities {
		n, err := q.client.LLen(ctx, q.key(p)).Result()
		if err != nil {
			return 0, fmt.Errorf("counting pending mutations: %w", err)
		}
		total += n
	}
	return total, nil
}

// Drain delivers queued mutations highest priority first. Each mutation is
// popped only after deliver returns nil, so delivery is at-least-once: a
// crash between deliver and pop replays the mutation.
func (q *RedisQueue) Drain(ctx context.Context, deliver DeliverFunc) error {
	for _, p := range priorities {
		key := q.key(p)
		for {
			data, err := q.client.LIndex(ctx, key, -1).Bytes()
			if errors.Is(err, redis.Nil) {
				break
			}
			if err != nil {
				return fmt.Errorf("reading pending mutation: %w", err)
			}

			var m Mutation
			if err := json.Unmarshal(data, &m); err != nil {
				// Unreadable entry: drop it rather than wedge the queue.
				q.logger.Error("Dropping undecodable mutation", map[string]any{"error": err.Error()})
				q.client.RPop(ctx, key)
				continue
			}

			if err := deliver(ctx, m); err != nil {
				return fmt.Errorf("delivering mutation %s: %w", m.ID, err)
			}
			if err := q.client.RPop(ctx, key).Err(); err != nil {
				return fmt.Errorf("removing delivered mutation: %w", err)
			}
		}
	}
	return nil
}

// RunOptions configures the background connectivity probe and drain loop.
type RunOptions struct {
	ProbeInterval time.Duration
	DrainInterval time.Duration
	Probe         func(ctx context.Context) bool // true when the remote is reachable
	Deliver       DeliverFunc
}

// Run probes connectivity and drains the queue until ctx is cancelled.
func (q *RedisQueue) Run(ctx context.Context, opts RunOptions) {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 30 * time.Second
	}
	if opts.DrainInterval <= 0 {
		opts.DrainInterval = 10 * time.Second
	}

	probe := time.NewTicker(opts.ProbeInterval)
	drain := time.NewTicker(opts.DrainInterval)
	defer probe.Stop()
	defer drain.Stop()

	if opts.Probe != nil {
		q.SetOnline(opts.Probe(ctx))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-probe.C:
			if opts.Probe != nil {
				online := opts.Probe(ctx)
				wasOffline := q.IsOffline()
				q.SetOnline(online)
				if online && wasOffline {
					q.logger.Info("Connectivity restored, draining deferred mutations")
				}
			}
		case <-drain.C:
			if q.IsOffline() || opts.Deliver == nil {
				continue
			}
			if err := q.Drain(ctx, opts.Deliver); err != nil {
				q.logger.Warn("Drain interrupted", map[string]any{"error": err.Error()})
			}
		}
	}
}
