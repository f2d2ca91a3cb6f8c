package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

const (
	profileKeyPrefix = "pref:profile:"
	socialKeyPrefix  = "pref:social:"
)

// RedisStore 是 Redis 实现的画像/社交存储，生产环境常用。
// 画像以 JSON 整体存储；社交连接强度用 zset 累计，
// 每个用户一个 zset，member 为对端用户。
type RedisStore struct {
	client *redis.Client

	// profileTTL 画像过期时间，0 表示不过期
	profileTTL time.Duration
}

// RedisOption 配置 RedisStore。
type RedisOption func(*RedisStore)

// WithProfileTTL 设置画像过期时间。
func WithProfileTTL(ttl time.Duration) RedisOption {
	return func(r *RedisStore) { r.profileTTL = ttl }
}

func NewRedisStore(addr string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	r := &RedisStore{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Get(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	val, err := r.client.Get(ctx, profileKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeProfile(val)
}

func (r *RedisStore) BatchGet(ctx context.Context, userIDs []string) (map[string]*core.PreferenceProfile, error) {
	if len(userIDs) == 0 {
		return make(map[string]*core.PreferenceProfile), nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = profileKeyPrefix + id
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]*core.PreferenceProfile, len(userIDs))
	for i, id := range userIDs {
		s, ok := vals[i].(string)
		if !ok {
			continue
		}
		p, err := decodeProfile([]byte(s))
		if err != nil {
			// 损坏的记录按缺失处理，消费方走冷启动兜底
			continue
		}
		result[id] = p
	}
	return result, nil
}

func (r *RedisStore) Put(ctx context.Context, profile *core.PreferenceProfile) error {
	if profile == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil profile")
	}

	data, err := json.Marshal(toRecord(profile))
	if err != nil {
		return err
	}
	return r.client.Set(ctx, profileKeyPrefix+profile.UserID, data, r.profileTTL).Err()
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, profileKeyPrefix+userID).Err()
}

// RecordConnection 加强一对用户之间的连接信号（无向，双边 zset 各 +1）。
func (r *RedisStore) RecordConnection(ctx context.Context, userA, userB string) error {
	if userA == userB {
		return nil
	}

	pipe := r.client.Pipeline()
	pipe.ZIncrBy(ctx, socialKeyPrefix+userA, 1, userB)
	pipe.ZIncrBy(ctx, socialKeyPrefix+userB, 1, userA)
	_, err := pipe.Exec(ctx)
	return err
}

// TopConnections 返回与用户连接信号最强的 n 个用户（降序）。
func (r *RedisStore) TopConnections(ctx context.Context, userID string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.client.ZRevRange(ctx, socialKeyPrefix+userID, 0, n-1).Result()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func decodeProfile(data []byte) (*core.PreferenceProfile, error) {
	var rec profileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return fromRecord(&rec), nil
}

var (
	_ core.PreferenceStore  = (*RedisStore)(nil)
	_ core.SocialGraphStore = (*RedisStore)(nil)
)
