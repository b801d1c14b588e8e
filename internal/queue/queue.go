package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// delayedKey is the sorted set holding pending jobs, scored by fire time
// in epoch seconds.
const delayedKey = "queue:delayed"

// DelayedQueue schedules jobs for future execution in Redis.
//
// Thread Safety: safe for concurrent use.
type DelayedQueue struct {
	rdb *goredis.Client

	// now is the clock used for scoring and due checks. Injectable for tests.
	now func() time.Time
}

// NewDelayedQueue creates a delayed queue on the given Redis client.
func NewDelayedQueue(rdb *goredis.Client) *DelayedQueue {
	return &DelayedQueue{rdb: rdb, now: time.Now}
}

// Submit schedules a job to fire after the given delay.
func (q *DelayedQueue) Submit(ctx context.Context, job Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshalling delayed job %s: %w", job.ID, err)
	}

	fireAt := q.now().Add(delay)
	err = q.rdb.ZAdd(ctx, delayedKey, &goredis.Z{
		Score:  float64(fireAt.Unix()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: scheduling job %s: %v", ErrQueueUnavailable, job.ID, err)
	}
	return nil
}

// Due returns the jobs whose fire time has passed, claiming each one by
// removing it from the set. A job another consumer claimed first is
// skipped. Members that fail to decode are dropped with the claim, so a
// poisoned entry cannot wedge the queue.
func (q *DelayedQueue) Due(ctx context.Context) ([]Job, error) {
	members, err := q.rdb.ZRangeByScore(ctx, delayedKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", q.now().Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: reading due jobs: %v", ErrQueueUnavailable, err)
	}

	var jobs []Job
	for _, member := range members {
		removed, err := q.rdb.ZRem(ctx, delayedKey, member).Result()
		if err != nil {
			return jobs, fmt.Errorf("%w: claiming job: %v", ErrQueueUnavailable, err)
		}
		if removed == 0 {
			continue // claimed by a sibling consumer
		}

		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Pending returns the number of jobs waiting in the queue, due or not.
func (q *DelayedQueue) Pending(ctx context.Context) (int64, error) {
	n, err := q.rdb.ZCard(ctx, delayedKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: counting pending jobs: %v", ErrQueueUnavailable, err)
	}
	return n, nil
}
