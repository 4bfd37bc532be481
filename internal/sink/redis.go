package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the redis sink. An empty ListKey disables the
// history list.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Channel     string
	ListKey     string
	ListLen     int64
	DialTimeout time.Duration
}

// Redis publishes readings as JSON on a pub/sub channel and keeps the newest
// ListLen of them in a list.
type Redis struct {
	client *redis.Client
	cfg    RedisConfig
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client, cfg: cfg}, nil
}

func (r *Redis) Name() string {
	return "redis"
}

func (r *Redis) Write(ctx context.Context, reading Reading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Publish(ctx, r.cfg.Channel, body)
	if r.cfg.ListKey != "" {
		pipe.LPush(ctx, r.cfg.ListKey, body)
		if r.cfg.ListLen > 0 {
			pipe.LTrim(ctx, r.cfg.ListKey, 0, r.cfg.ListLen-1)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
