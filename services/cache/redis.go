// Package cachesvc keeps hot documents in Redis.
package cachesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
)

// cachedUser is a user.User with its password hash, which user.User never serializes.
type cachedUser struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	PasswordHash []byte     `json:"passwordHash"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// RedisCache implements user.Cache. Redis failures are logged and reported as cache misses.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ user.Cache = (*RedisCache)(nil)

// NewRedisCache connects to the configured Redis server.
// It returns nil when Redis is not configured.
func NewRedisCache(ctx context.Context, conf *core.Config, logger core.Logger) (*RedisCache, error) {
	if !conf.Redis.Enabled() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", conf.Redis.Addr)
	}
	logger.Info("redis cache connected: " + conf.Redis.Addr)
	return &RedisCache{rdb: rdb, ttl: conf.Redis.UserTTL, logger: logger}, nil
}

func userKey(id string) string {
	return fmt.Sprintf("user:%s:data", id)
}

func (c *RedisCache) GetUser(ctx context.Context, id string) (user.User, bool) {
	data, err := c.rdb.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Error("redis GET failed", err, map[string]interface{}{"userId": id})
		}
		return user.User{}, false
	}
	var cu cachedUser
	if err = json.Unmarshal(data, &cu); err != nil {
		c.logger.Warn("invalid cached user data", err, map[string]interface{}{"userId": id})
		return user.User{}, false
	}
	return user.User{
		ID:           cu.ID,
		Username:     cu.Username,
		Email:        cu.Email,
		Role:         cu.Role,
		IsActive:     cu.IsActive,
		PasswordHash: cu.PasswordHash,
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
		LastLogin:    cu.LastLogin,
	}, true
}

func (c *RedisCache) SetUser(ctx context.Context, usr user.User) {
	data, err := json.Marshal(cachedUser{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	})
	if err != nil {
		c.logger.Error("encoding user for cache", err)
		return
	}
	if err = c.rdb.Set(ctx, userKey(usr.ID), data, c.ttl).Err(); err != nil {
		c.logger.Error("redis SET failed", err, map[string]interface{}{"userId": usr.ID})
	}
}

func (c *RedisCache) DeleteUser(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, userKey(id)).Err(); err != nil {
		c.logger.Error("redis DEL failed", err, map[string]interface{}{"userId": id})
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
