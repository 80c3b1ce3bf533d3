package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"wordoff/internal/repository"
)

// Retrier wraps a read-modify-write cycle against the session store,
// retrying on version conflicts with a randomized backoff. The operation
// closure must re-fetch the session on every invocation: replaying a
// mutation computed from a stale snapshot would silently drop the
// concurrent writer's change.
type Retrier struct {
	attempts   int
	backoffMax time.Duration
}

func NewRetrier(attempts int, backoffMax time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if backoffMax <= 0 {
		backoffMax = 150 * time.Millisecond
	}
	return &Retrier{
		attempts:   attempts,
		backoffMax: backoffMax,
	}
}

// Do runs op until it succeeds, fails with a non-conflict error, or the
// attempt budget runs out. Non-conflict errors abort immediately.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || !errors.Is(err, repository.ErrConflict) {
			return err
		}
		if attempt >= r.attempts {
			log.Printf("Retry budget exhausted after %d version conflicts", attempt)
			return fmt.Errorf("%w (%d attempts)", ErrRetryExhausted, attempt)
		}

		backoff := time.Millisecond + time.Duration(rand.Int63n(int64(r.backoffMax)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
