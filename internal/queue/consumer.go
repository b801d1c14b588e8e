package queue

import (
	"context"
	"sync"
	"time"
)

// Handler processes a claimed delayed job.
type Handler interface {
	HandleDelayed(ctx context.Context, job Job) error
}

// Logger is the minimal logging interface the consumer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Consumer polls the delayed queue and runs due jobs on a fixed-size
// worker pool. Jobs are independent of each other, so the pool imposes no
// ordering between them.
type Consumer struct {
	queue        *DelayedQueue
	handler      Handler
	logger       Logger
	concurrency  int
	pollInterval time.Duration
}

// NewConsumer creates a consumer with the given pool size and poll interval.
func NewConsumer(queue *DelayedQueue, handler Handler, concurrency int, pollInterval time.Duration, logger Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		queue:        queue,
		handler:      handler,
		logger:       logger,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

// Run polls for due jobs until the context is cancelled. It blocks, so
// callers start it in its own goroutine. Workers drain before Run returns.
func (c *Consumer) Run(ctx context.Context) {
	jobs := make(chan Job)

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				c.runJob(ctx, job)
			}
		}()
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			c.poll(ctx, jobs)
		}
	}
}

// poll claims due jobs and feeds them to the workers.
func (c *Consumer) poll(ctx context.Context, jobs chan<- Job) {
	due, err := c.queue.Due(ctx)
	if err != nil {
		c.logger.Warn("delayed queue poll failed", "error", err)
		return
	}
	for _, job := range due {
		select {
		case jobs <- job:
		case <-ctx.Done():
			return
		}
	}
}

// runJob executes one job, absorbing handler panics so a bad job cannot
// take down its worker.
func (c *Consumer) runJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("delayed job handler panicked", "job_id", job.ID, "rule_id", job.RuleID, "panic", r)
		}
	}()

	if err := c.handler.HandleDelayed(ctx, job); err != nil {
		c.logger.Warn("delayed job failed", "job_id", job.ID, "rule_id", job.RuleID, "error", err)
		return
	}
	c.logger.Debug("delayed job completed", "job_id", job.ID, "rule_id", job.RuleID)
}
