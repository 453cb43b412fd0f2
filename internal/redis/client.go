package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options carries the connection tuning the caller resolved from its
// environment. Zero values fall back to the go-redis defaults.
type Options struct {
	Addr      string
	Username  string
	Password  string
	PoolSize  int
	OpTimeout time.Duration
}

// NewRedisClient connects and pings before returning, so a bad address is
// a startup failure instead of a failed first booking.
func NewRedisClient(opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           0,
		ReadTimeout:  opts.OpTimeout,
		WriteTimeout: opts.OpTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
