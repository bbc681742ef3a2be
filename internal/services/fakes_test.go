package services

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/models"
	"github.com/athletiq/socialgraph/internal/queue"
)

type fakeDB struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (int64, error)
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if db.QueryFunc == nil {
		return &fakeRows{}, nil
	}
	return db.QueryFunc(ctx, sql, args...)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if db.QueryRowFunc == nil {
		return fakeRow{err: fmt.Errorf("unexpected QueryRow")}
	}
	return db.QueryRowFunc(ctx, sql, args...)
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if db.ExecFunc == nil {
		return 0, nil
	}
	return db.ExecFunc(ctx, sql, args...)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(dest, r.values)
}

func rowFromValues(values ...any) Row {
	return fakeRow{values: values}
}

type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(dest, r.rows[r.idx-1])
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error { return r.err }

func scanInto(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan expected %d destinations, got %d", len(values), len(dest))
	}
	for i, value := range values {
		dv := reflect.ValueOf(dest[i]).Elem()
		if value == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		v := reflect.ValueOf(value)
		if !v.Type().AssignableTo(dv.Type()) {
			if !v.Type().ConvertibleTo(dv.Type()) {
				return fmt.Errorf("cannot scan %T into %s", value, dv.Type())
			}
			v = v.Convert(dv.Type())
		}
		dv.Set(v)
	}
	return nil
}

// fakeKV is an in-memory key-value store with injectable failures.
type fakeKV struct {
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (kv *fakeKV) Load(ctx context.Context, namespace string) ([]byte, error) {
	if kv.loadErr != nil {
		return nil, kv.loadErr
	}
	return kv.data[namespace], nil
}

func (kv *fakeKV) Save(ctx context.Context, namespace string, data []byte) error {
	if kv.saveErr != nil {
		return kv.saveErr
	}
	kv.saves++
	kv.data[namespace] = data
	return nil
}

// fakeQueue records enqueued mutations instead of delivering them.
type fakeQueue struct {
	offline    bool
	enqueueErr error
	mutations  []queue.Mutation
}

func (q *fakeQueue) Enqueue(ctx context.Context, m queue.Mutation) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mutations = append(q.mutations, m)
	return nil
}

func (q *fakeQueue) IsOffline() bool { return q.offline }

type fakeCache struct {
	data   map[string][]byte
	gets   int
	sets   int
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*models.AthleteProfile
	results  []*models.AthleteProfile
	fetches  int
}

func newFakeProfiles(profiles ...*models.AthleteProfile) *fakeProfiles {
	fp := &fakeProfiles{profiles: make(map[uuid.UUID]*models.AthleteProfile)}
	for _, p := range profiles {
		fp.profiles[p.ID] = p
	}
	return fp
}

func (fp *fakeProfiles) FetchProfile(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error) {
	fp.fetches++
	p, ok := fp.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (fp *fakeProfiles) SearchProfiles(ctx context.Context, query string, limit int) ([]*models.AthleteProfile, error) {
	if len(fp.results) > limit {
		return fp.results[:limit], nil
	}
	return fp.results, nil
}

func newProfile(username string, tier models.VisibilityTier) *models.AthleteProfile {
	return &models.AthleteProfile{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
		Sport:       "soccer",
		Bio:         "training hard",
		IsPublic:    true,
		ParentalControls: models.ParentalControls{
			AllowDirectMessages: true,
			AllowFriendRequests: true,
			Visibility:          tier,
			Moderation:          models.ModerationStandard,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func newTestStore() (*RelationshipStore, *fakeKV, *fakeQueue) {
	kv := newFakeKV()
	mq := &fakeQueue{}
	return NewRelationshipStore(kv, mq, nil), kv, mq
}

func newTestFeed(maxItems int) (*ActivityFeed, *fakeKV, *fakeQueue) {
	kv := newFakeKV()
	mq := &fakeQueue{}
	return NewActivityFeed(kv, mq, maxItems, nil), kv, mq
}
