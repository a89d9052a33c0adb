package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect builds the Redis client backing the evaluation queue and verifies
// the connection. The caller owns the handle and is responsible for Close.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("queue.Connect ping: %w", err)
	}
	return rdb, nil
}
