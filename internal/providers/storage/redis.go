package storage

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// Redis keeps account data under prefixed string keys
type Redis struct {
	client *redis.Client
	prefix string
	owned  bool
}

// RedisConfig selects the server and key prefix
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedis connects to the server and checks it answers
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	r := NewRedisClient(client, cfg.Prefix)
	r.owned = true
	return r, nil
}

// NewRedisClient wraps an existing client. Close leaves it open.
func NewRedisClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(account string) string {
	return r.prefix + account
}

func (r *Redis) Load(ctx context.Context, account string) (string, error) {
	if err := ValidateAccount(account); err != nil {
		return "", err
	}
	data, err := r.client.Get(ctx, r.key(account)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return data, err
}

func (r *Redis) Save(ctx context.Context, account, data string) error {
	if err := ValidateAccount(account); err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(account), data, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, account string) error {
	return r.client.Del(ctx, r.key(account)).Err()
}

func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
