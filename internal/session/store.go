// Package session keeps per-browser state (identity and the single active
// document) on the server side, keyed by an opaque cookie value.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Store persists sessions by ID.
type Store interface {
	// Get returns the session for id and whether it exists. A hit restarts
	// the session's expiry.
	Get(ctx context.Context, id string) (*models.Session, bool, error)
	// Save stores s under id, refreshing its expiry.
	Save(ctx context.Context, id string, s *models.Session) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between processes.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl and are
// purged every cleanup interval.
func NewMemoryStore(ttl, cleanup time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

// Get returns a copy of the session and restarts its expiry.
func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, bool, error) {
	x, found := m.cache.Get(id)
	if !found {
		return nil, false, nil
	}
	m.cache.Set(id, x, cache.DefaultExpiration)
	// copy so callers never mutate the stored value in place
	s := *x.(*models.Session)
	s.ImageFiles = append([]string(nil), s.ImageFiles...)
	return &s, true, nil
}

// Save stores a copy of s under id.
func (m *MemoryStore) Save(_ context.Context, id string, s *models.Session) error {
	c := *s
	c.ImageFiles = append([]string(nil), s.ImageFiles...)
	m.cache.Set(id, &c, cache.DefaultExpiration)
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// RedisStore keeps JSON-encoded sessions in Redis so they are shared by
// every server process.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore wraps client. Keys are "session:{id}".
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "session:"}
}

// NewRedisClient parses a redis:// URL, falling back to a bare host:port.
func NewRedisClient(rawURL string) *redis.Client {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		opt = &redis.Options{Addr: rawURL}
	}
	return redis.NewClient(opt)
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

// Get decodes the session and restarts its expiry.
func (r *RedisStore) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	data, err := r.client.GetEx(ctx, r.key(id), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	return &s, true, nil
}

// Save encodes s as JSON under id with the store TTL.
func (r *RedisStore) Save(ctx context.Context, id string, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
