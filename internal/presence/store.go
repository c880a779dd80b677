package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker mirrors join and leave times so last-seen survives restarts.
// The in-memory registry stays the source of truth for who is online.
type Tracker interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
	LastSeen(ctx context.Context, userID string) (time.Time, bool, error)
}

type record struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

// RedisStore keeps presence under <prefix>:presence:<user_id>.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore builds a store. A zero ttl keeps records forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *RedisStore) write(ctx context.Context, userID, status string) error {
	body, err := json.Marshal(record{Status: status, LastSeen: s.now().Unix()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), body, s.ttl).Err()
}

func (s *RedisStore) MarkOnline(ctx context.Context, userID string) error {
	return s.write(ctx, userID, "online")
}

func (s *RedisStore) MarkOffline(ctx context.Context, userID string) error {
	return s.write(ctx, userID, "offline")
}

// LastSeen reports false when nothing has been recorded for the user.
func (s *RedisStore) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	body, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	var rec record
	if err := json.Unmarshal(body, &rec); err != nil {
		return time.Time{}, false, fmt.Errorf("decode presence: %w", err)
	}
	return time.Unix(rec.LastSeen, 0).UTC(), true, nil
}

// NoopStore is used when no Redis address is configured.
type NoopStore struct{}

func (NoopStore) MarkOnline(context.Context, string) error  { return nil }
func (NoopStore) MarkOffline(context.Context, string) error { return nil }
func (NoopStore) LastSeen(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
