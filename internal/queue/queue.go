// Package queue carries capture events from the API edge to the worker that
// turns them into presence records.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Capture is a frame captured by a classroom camera, queued for
// identification. The recognizer resolves it to a student downstream.
type Capture struct {
	ID          string    `json:"id"`
	InstituteID string    `json:"institute_id"`
	ImageURL    string    `json:"image_url"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, c Capture) error
	Consume(ctx context.Context) (<-chan Capture, error)
}

// Memory is a minimal channel-backed queue for dev/testing.
type Memory struct {
	ch chan Capture
}

// NewMemory creates a bounded in-memory queue.
func NewMemory(size int) *Memory {
	return &Memory{ch: make(chan Capture, size)}
}

// Publish enqueues a capture.
func (q *Memory) Publish(ctx context.Context, c Capture) error {
	select {
	case q.ch <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *Memory) Consume(ctx context.Context) (<-chan Capture, error) {
	out := make(chan Capture)
	go func() {
		defer close(out)
		for {
			select {
			case c := <-q.ch:
				out <- c
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "presence:captures"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a capture as JSON.
func (q *RedisQueue) Publish(ctx context.Context, c Capture) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Consume streams captures using BRPOP. Malformed payloads are dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Capture, error) {
	out := make(chan Capture)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				var c Capture
				if err := json.Unmarshal([]byte(res[1]), &c); err == nil {
					out <- c
				}
			}
		}
	}()
	return out, nil
}
