package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finbot/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeFetch   TaskType = "fetch"
	TaskTypeAnalyze TaskType = "analyze"
)

// DefaultMaxAttempts bounds task redelivery when MaxAttempts is unset.
const DefaultMaxAttempts = 5

// Task represents a unit of work shared across services.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// FinalAttempt reports whether the task has no retries left after this
// delivery. Handlers use it to take terminal action (e.g. marking the
// underlying record failed) before the queue drops the task.
func (t Task) FinalAttempt() bool {
	max := t.MaxAttempts
	if max == 0 {
		max = DefaultMaxAttempts
	}
	return t.Attempts >= max-1
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Enqueue(ctx, task); err == nil {
			return nil
		} else if attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base)):
		}
	}
	return nil
}
