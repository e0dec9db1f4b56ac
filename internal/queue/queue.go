package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job kinds carried on the queue.
const (
	KindGeneration = "generation"
	KindValidation = "validation"
)

// DefaultKey is the Redis list the worker drains.
const DefaultKey = "photoshoot:jobs"

// GenerationPayload describes a queued generation run.
type GenerationPayload struct {
	UserID           string   `json:"user_id"`
	PhotoIDs         []string `json:"photo_ids"`
	Scenarios        []string `json:"scenarios"`
	PaymentReference string   `json:"payment_reference,omitempty"`
	Sample           bool     `json:"sample,omitempty"`
}

// ValidationPayload describes a queued photo validation.
type ValidationPayload struct {
	PhotoID string `json:"photo_id"`
}

// Envelope is the wire format for queued jobs.
type Envelope struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
	Generation *GenerationPayload `json:"generation,omitempty"`
	Validation *ValidationPayload `json:"validation,omitempty"`
}

// Queue is a Redis list shared by the API and the worker. The API pushes
// with LPUSH and the worker blocks on BRPOP, so jobs come off in FIFO order.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a queue on the given Redis client. An empty key selects
// DefaultKey.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{client: client, key: key}
}

// NewClient dials Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Enqueue pushes one envelope.
func (q *Queue) Enqueue(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}

// Dequeue blocks until an envelope is available or the timeout elapses.
// A zero timeout blocks indefinitely. When the timeout elapses with no job,
// Dequeue returns redis.Nil.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (Envelope, error) {
	var env Envelope
	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		return env, err
	}
	if len(vals) != 2 {
		return env, errors.New("brpop: unexpected reply shape")
	}
	if err := json.Unmarshal([]byte(vals[1]), &env); err != nil {
		return env, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}
