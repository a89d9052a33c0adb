package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"gradersmith/internal/app/service"

	"github.com/redis/go-redis/v9"
)

// EvalWorker drains the evaluation queue and runs each submission through
// the evaluator. Submissions are independent, so there is no cross-worker
// locking; a second worker process just increases throughput.
type EvalWorker struct {
	rdb       *redis.Client
	queueName string
	evaluator *service.Evaluator
}

func NewEvalWorker(rdb *redis.Client, queueName string, evaluator *service.Evaluator) *EvalWorker {
	return &EvalWorker{rdb: rdb, queueName: queueName, evaluator: evaluator}
}

func (w *EvalWorker) Start(ctx context.Context) {
	log.Println("Evaluation worker started, listening to queue:", w.queueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Evaluation worker stopping...")
			return
		default:
			popped, err := w.rdb.BRPop(ctx, 5*time.Second, w.queueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue // queue idle
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				log.Printf("ERROR: BRPop on queue %q: %v", w.queueName, err)
				time.Sleep(5 * time.Second)
				continue
			}
			if len(popped) < 2 || popped[1] == "" {
				log.Println("WARN: BRPop returned empty submission id.")
				continue
			}
			submissionID := popped[1]
			log.Printf("Worker picked up submission %s", submissionID)

			if _, err := w.evaluator.Evaluate(ctx, submissionID); err != nil {
				// The evaluator already moved the row to Error where it
				// could; nothing to requeue.
				log.Printf("ERROR: evaluation of submission %s: %v", submissionID, err)
			}
		}
	}
}
