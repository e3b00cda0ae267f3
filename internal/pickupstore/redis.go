package pickupstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionField marks a hash as an open session even when it has no students
const sessionField = "_session"

// toggleScript flips one student's flag only if the session and the
// student both exist. Returns -1 for no session, -2 for unknown student.
var toggleScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], '` + sessionField + `') == 0 then
	return -1
end
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
	return -2
end
local nxt = '1'
if cur == '1' then
	nxt = '0'
end
redis.call('HSET', KEYS[1], ARGV[1], nxt)
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return tonumber(nxt)
`)

// RedisStore keeps each session in a hash that expires after ttl of inactivity
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses the URL and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Reset replaces the session under key with one where every student is not picked up
func (s *RedisStore) Reset(ctx context.Context, key string, studentIDs []string) error {
	fields := make([]interface{}, 0, 2+2*len(studentIDs))
	fields = append(fields, sessionField, "1")
	for _, id := range studentIDs {
		fields = append(fields, id, "0")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields...)
		pipe.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset pickup session: %w", err)
	}
	return nil
}

// Toggle flips the student's flag and returns the new value
func (s *RedisStore) Toggle(ctx context.Context, key, studentID string) (bool, error) {
	res, err := toggleScript.Run(ctx, s.client, []string{key}, studentID, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to toggle pickup: %w", err)
	}
	switch res {
	case -1:
		return false, ErrNoSession
	case -2:
		return false, ErrUnknownStudent
	default:
		return res == 1, nil
	}
}

// State returns the session's flags and whether the session exists
func (s *RedisStore) State(ctx context.Context, key string) (map[string]bool, bool, error) {
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read pickup session: %w", err)
	}
	if _, ok := raw[sessionField]; !ok {
		return nil, false, nil
	}

	state := make(map[string]bool, len(raw)-1)
	for field, v := range raw {
		if field == sessionField {
			continue
		}
		state[field] = v == "1"
	}
	return state, true, nil
}

// PruneIdle is a no-op; Redis expires idle sessions itself
func (s *RedisStore) PruneIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	return 0, nil
}
