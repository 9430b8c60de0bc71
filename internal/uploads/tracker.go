// Package uploads tracks featured-image uploads that are still in flight
// for each signed-in session. The editor refuses to save a post while its
// session has an upload running, so a post is never stored with a
// half-finished image. Counters live in Valkey so every app instance sees
// the same state.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "uploads:"

	// DefaultTTL bounds how long a counter survives a crashed upload.
	DefaultTTL = 2 * time.Minute

	releaseTimeout = 5 * time.Second
)

// Tracker counts in-flight uploads per session ID.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker creates a tracker on the given Valkey client.
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client, ttl: DefaultTTL}
}

// Begin marks an upload as started for sessionID. The returned release
// func must be called when the upload ends, successfully or not; it is
// safe to call more than once.
func (t *Tracker) Begin(ctx context.Context, sessionID string) (release func(), err error) {
	key := keyPrefix + sessionID
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, t.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload begin: %w", err)
	}

	done := false
	return func() {
		if done {
			return
		}
		done = true
		// The request context may already be cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := t.release(rctx, key); err != nil {
			slog.Warn("upload release failed", "error", err)
		}
	}, nil
}

func (t *Tracker) release(ctx context.Context, key string) error {
	n, err := t.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("upload release: %w", err)
	}
	if n <= 0 {
		if err := t.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("upload release cleanup: %w", err)
		}
	}
	return nil
}

// InFlight reports whether sessionID has an upload running.
func (t *Tracker) InFlight(ctx context.Context, sessionID string) (bool, error) {
	n, err := t.client.Get(ctx, keyPrefix+sessionID).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("upload in flight: %w", err)
	}
	return n > 0, nil
}
