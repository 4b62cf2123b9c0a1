package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexusnotes/nexus-notes/internal/model"
)

const keyPrefix = "nexus:profile:"

// RedisConfig holds connection settings for the profile cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is a ProfileCache backed by Redis. Password hashes are never written.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis creates the client. It does not connect until the first command or Ping.
func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{rdb: rdb, ttl: cfg.TTL}
}

// Ping checks that the server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Redis) Close() error {
	return c.rdb.Close()
}

// Get returns the cached profile for userID. A missing or unreadable entry
// is a miss, not an error.
func (c *Redis) Get(ctx context.Context, userID string) (model.User, bool, error) {
	b, err := c.rdb.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}

	user, err := decodeProfile(b)
	if err != nil {
		slog.Warn("dropping unreadable cached profile", "user_id", userID, "error", err)
		_ = c.rdb.Del(ctx, profileKey(userID)).Err()
		return model.User{}, false, nil
	}
	return user, true, nil
}

// Set caches user for the configured TTL. The password hash is never stored.
func (c *Redis) Set(ctx context.Context, user model.User) error {
	b, err := encodeProfile(user)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, profileKey(user.ID), b, c.ttl).Err()
}

// Delete drops the cached profile for userID.
func (c *Redis) Delete(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, profileKey(userID)).Err()
}

type cachedProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	GoogleID  string    `json:"googleId,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func profileKey(userID string) string {
	return keyPrefix + userID
}

func encodeProfile(u model.User) ([]byte, error) {
	return json.Marshal(cachedProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		GoogleID:  u.GoogleID,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

func decodeProfile(b []byte) (model.User, error) {
	var p cachedProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return model.User{}, err
	}
	if p.ID == "" {
		return model.User{}, errors.New("cached profile has no id")
	}
	return model.User{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		GoogleID:  p.GoogleID,
		Avatar:    p.Avatar,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}
