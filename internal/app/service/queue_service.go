package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EvalQueue pushes submission ids onto the Redis list the worker drains.
type EvalQueue struct {
	rdb  *redis.Client
	name string
}

func NewEvalQueue(rdb *redis.Client, name string) *EvalQueue {
	return &EvalQueue{rdb: rdb, name: name}
}

func (q *EvalQueue) Enqueue(ctx context.Context, submissionID string) error {
	if err := q.rdb.LPush(ctx, q.name, submissionID).Err(); err != nil {
		return fmt.Errorf("failed to push submission %s to eval queue: %w", submissionID, err)
	}
	return nil
}
