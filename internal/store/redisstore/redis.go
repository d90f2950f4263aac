// Package redisstore implements a Redis storage backend.
// All records live in a single hash: field = path, value = views.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/discochess/pageviews/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// updateIfExists sets a hash field only when it is already present.
var updateIfExists = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// Store is a Redis storage backend.
type Store struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix, e.g. "pageviews:".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store connected to addr.
func New(addr string, db int, password string, opts ...Option) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: password,
	})
	s := NewFromClient(client, opts...)
	s.owned = true
	return s
}

// NewFromClient creates a store using an existing client.
// Close does not close a client supplied this way.
func NewFromClient(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a record for path is present.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key(), path).Result()
	if err != nil {
		return false, fmt.Errorf("checking page: %w", err)
	}
	return ok, nil
}

// Insert creates a record with zero views.
func (s *Store) Insert(ctx context.Context, path string) (*store.Record, error) {
	created, err := s.client.HSetNX(ctx, s.key(), path, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("inserting page: %w", err)
	}
	if !created {
		return nil, store.ErrExists
	}
	return &store.Record{Path: path}, nil
}

// Fetch returns the record for path.
func (s *Store) Fetch(ctx context.Context, path string) (*store.Record, error) {
	views, err := s.client.HGet(ctx, s.key(), path).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	return &store.Record{Path: path, Views: views}, nil
}

// UpdateViews sets the view count for an existing path.
func (s *Store) UpdateViews(ctx context.Context, path string, views int64) error {
	updated, err := updateIfExists.Run(ctx, s.client, []string{s.key()}, path, views).Int()
	if err != nil {
		return fmt.Errorf("updating page: %w", err)
	}
	if updated == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Increment adds one view with HINCRBY, which creates missing fields.
func (s *Store) Increment(ctx context.Context, path string) (*store.Record, error) {
	views, err := s.client.HIncrBy(ctx, s.key(), path, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("incrementing page: %w", err)
	}
	return &store.Record{Path: path, Views: views}, nil
}

// List returns every record ordered by path.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	var records []store.Record
	iter := s.client.HScan(ctx, s.key(), 0, "", 0).Iterator()
	for iter.Next(ctx) {
		path := iter.Val()
		if !iter.Next(ctx) {
			break
		}
		views, err := strconv.ParseInt(iter.Val(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid view count stored for %q: %w", path, err)
		}
		records = append(records, store.Record{Path: path, Views: views})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	// HSCAN may return a field more than once.
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	deduped := records[:0]
	for i, r := range records {
		if i > 0 && r.Path == records[i-1].Path {
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// key returns the hash key holding all pages.
func (s *Store) key() string {
	return s.prefix + "pages"
}
