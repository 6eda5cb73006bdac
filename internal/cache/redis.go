// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "undercover_actions"

// ErrQueueFull is returned by Record when the publisher cannot keep up.
var ErrQueueFull = errors.New("action queue full")

// Connect creates a Redis client for addr/db and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Pusher is the part of a Redis client the queue needs.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ActionQueue publishes action records to a Redis list in the order they
// were recorded. Record never blocks; a single worker started with Run does
// the network writes.
type ActionQueue struct {
	rdb       Pusher
	queueName string
	logger    logrus.FieldLogger
	records   chan models.ActionRecord
}

// NewActionQueue creates a queue holding up to buffer unsent records.
func NewActionQueue(rdb Pusher, queueName string, buffer int, logger logrus.FieldLogger) *ActionQueue {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if buffer <= 0 {
		buffer = 1024
	}
	return &ActionQueue{
		rdb:       rdb,
		queueName: queueName,
		logger:    logger,
		records:   make(chan models.ActionRecord, buffer),
	}
}

// Record queues rec for publishing.
func (q *ActionQueue) Record(_ context.Context, rec models.ActionRecord) error {
	select {
	case q.records <- rec:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run publishes queued records until ctx is done, then flushes what is left.
func (q *ActionQueue) Run(ctx context.Context) {
	for {
		select {
		case rec := <-q.records:
			q.publish(rec)
		case <-ctx.Done():
			q.drain()
			return
		}
	}
}

func (q *ActionQueue) drain() {
	for {
		select {
		case rec := <-q.records:
			q.publish(rec)
		default:
			return
		}
	}
}

// publish uses its own timeout so records queued before shutdown still go out.
func (q *ActionQueue) publish(rec models.ActionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := PublishAction(ctx, q.rdb, q.queueName, rec); err != nil {
		q.logger.WithFields(logrus.Fields{
			"session": rec.SessionCode,
			"action":  rec.ActionType,
			"index":   rec.ActionIndex,
		}).WithError(err).Error("failed to publish action")
	}
}

// PublishAction serializes rec to JSON and pushes it onto queueName.
func PublishAction(ctx context.Context, rdb Pusher, queueName string, rec models.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}
