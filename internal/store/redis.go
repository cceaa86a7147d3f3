package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"tubescribe.app/bot/internal/model"
)

// Redis persists sets as space-joined strings and histories as JSON blobs,
// matching the fixed key layout: one "users" key plus one
// "chat_history:<uid>" key per user.
//
// Every operation here is a read-modify-write over a single key, guarded by a
// process-wide mutex so concurrent appends for the same user never lose
// updates. Underlying redis errors degrade to no-op/empty results: each
// exported method wraps an internal fallible one, logs the failure, and
// returns the degraded value so the policy is explicit in code even though
// callers only ever see empty.
type Redis struct {
	client *redis.Client
	mu     sync.Mutex
}

// NewRedis connects to the given redis URL and verifies the connection.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) IsMember(ctx context.Context, set, id string) bool {
	members, err := r.fetchMembers(ctx, set)
	if err != nil {
		degraded(ctx, "IsMember", set, err)
		return false
	}
	for _, m := range members {
		if m == id {
			return true
		}
	}
	return false
}

func (r *Redis) AddMember(ctx context.Context, set, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, err := r.fetchMembers(ctx, set)
	if err != nil {
		degraded(ctx, "AddMember", set, err)
		return
	}
	for _, m := range members {
		if m == id {
			return
		}
	}
	members = append(members, id)
	if err := r.client.Set(ctx, set, joinMembers(members), 0).Err(); err != nil {
		degraded(ctx, "AddMember", set, err)
	}
}

func (r *Redis) AllMembers(ctx context.Context, set string) []string {
	members, err := r.fetchMembers(ctx, set)
	if err != nil {
		degraded(ctx, "AllMembers", set, err)
		return nil
	}
	return members
}

func (r *Redis) RemoveMember(ctx context.Context, set, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, err := r.fetchMembers(ctx, set)
	if err != nil {
		degraded(ctx, "RemoveMember", set, err)
		return
	}
	kept := members[:0]
	for _, m := range members {
		if m != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(members) {
		return
	}
	if err := r.client.Set(ctx, set, joinMembers(kept), 0).Err(); err != nil {
		degraded(ctx, "RemoveMember", set, err)
	}
}

func (r *Redis) History(ctx context.Context, userID string) []model.ChatTurn {
	turns, err := r.fetchHistory(ctx, userID)
	if err != nil {
		degraded(ctx, "History", historyKey(userID), err)
		return nil
	}
	return turns
}

func (r *Redis) AppendHistory(ctx context.Context, userID string, turn model.ChatTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := historyKey(userID)
	turns, err := r.fetchHistory(ctx, userID)
	if err != nil {
		degraded(ctx, "AppendHistory", key, err)
		return
	}
	turns = append(turns, turn)

	blob, err := encodeHistory(turns)
	if err != nil {
		degraded(ctx, "AppendHistory", key, err)
		return
	}
	if err := r.client.Set(ctx, key, blob, 0).Err(); err != nil {
		degraded(ctx, "AppendHistory", key, err)
	}
}

func (r *Redis) ResetHistory(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		degraded(ctx, "ResetHistory", historyKey(userID), err)
	}
}

func (r *Redis) fetchMembers(ctx context.Context, set string) ([]string, error) {
	val, err := r.client.Get(ctx, set).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return splitMembers(val), nil
}

func (r *Redis) fetchHistory(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	val, err := r.client.Get(ctx, historyKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeHistory([]byte(val))
}

// joinMembers/splitMembers encode a membership set as one space-joined string,
// the fixed value layout under set keys like "users".
func joinMembers(members []string) string {
	return strings.Join(members, " ")
}

func splitMembers(val string) []string {
	if val == "" {
		return nil
	}
	return strings.Split(val, " ")
}

// encodeHistory/decodeHistory map a turn sequence to the JSON blob stored
// under "chat_history:<uid>".
func encodeHistory(turns []model.ChatTurn) ([]byte, error) {
	return json.Marshal(turns)
}

func decodeHistory(blob []byte) ([]model.ChatTurn, error) {
	var turns []model.ChatTurn
	if err := json.Unmarshal(blob, &turns); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return turns, nil
}

// degraded records a swallowed store error. The caller proceeds with an empty
// result; this log line is the only place the failure is visible.
func degraded(ctx context.Context, op, key string, err error) {
	slog.WarnContext(ctx, "store operation degraded to empty result",
		"op", op,
		"key", key,
		"error", err)
}
