// internal/historian/historian.go
//
// Package historian drains the Redis action queue into PostgreSQL and marks
// games abandoned once they stop receiving actions.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/undercover/internal/cache"
	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source is the part of a Redis client the historian reads from.
type Source interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Sink persists batches of actions.
type Sink interface {
	SaveActions(ctx context.Context, batch []models.ActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Options tunes a Service. Zero values take the defaults below.
type Options struct {
	QueueName     string
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration
	// PopTimeout bounds each BLPOP so cancellation is noticed.
	PopTimeout    time.Duration
	CheckInterval time.Duration
	Logger        logrus.FieldLogger
	Now           func() time.Time
}

// Service batches queued action records and writes them to a Sink.
type Service struct {
	source Source
	sink   Sink
	opts   Options
	logger logrus.FieldLogger

	lastActivity sync.Map // uuid.UUID -> time.Time

	// flushMu keeps batches reaching the sink in queue order.
	flushMu sync.Mutex
	batchMu sync.Mutex
	batch   []models.ActionRecord
}

// New creates a historian reading from source and writing to sink.
func New(source Source, sink Sink, opts Options) *Service {
	if opts.QueueName == "" {
		opts.QueueName = cache.DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source: source,
		sink:   sink,
		opts:   opts,
		logger: opts.Logger.WithField("component", "historian"),
		batch:  make([]models.ActionRecord, 0, opts.BatchSize),
	}
}

// Run reads the queue until ctx is done, then flushes what it holds.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()

	s.logger.WithField("queue", s.opts.QueueName).Info("historian started")

	flush := time.NewTicker(s.opts.FlushInterval)
	defer flush.Stop()
	check := time.NewTicker(s.opts.CheckInterval)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.Flush(flushCtx)
			cancel()
			s.logger.Info("historian stopped")
			return
		case <-flush.C:
			s.Flush(ctx)
		case <-check.C:
			s.MarkInactive(ctx)
		}
	}
}

func (s *Service) readLoop(ctx context.Context) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 250 * time.Millisecond
	retry.MaxInterval = 30 * time.Second

	for ctx.Err() == nil {
		res, err := s.source.BLPop(ctx, s.opts.PopTimeout, s.opts.QueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				retry.Reset()
				continue
			}
			wait := retry.NextBackOff()
			if wait == backoff.Stop {
				wait = retry.MaxInterval
			}
			s.logger.WithError(err).WithField("retry_in", wait).Error("BLPOP failed")
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()
		// res[0] is the list name, res[1] the payload.
		if len(res) < 2 {
			continue
		}
		var rec models.ActionRecord
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			s.logger.WithError(err).Warn("invalid action record")
			continue
		}
		s.Add(ctx, rec)
	}
}

// Add buffers one record, flushing once the batch is full.
func (s *Service) Add(ctx context.Context, rec models.ActionRecord) {
	if rec.ActionType == models.ActionGameFinished {
		s.lastActivity.Delete(rec.GameID)
	} else if rec.GameID != uuid.Nil {
		s.lastActivity.Store(rec.GameID, s.opts.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the buffered records in one call to the sink and returns how
// many were written. A failed batch is logged and dropped.
func (s *Service) Flush(ctx context.Context) int {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return 0
	}
	batch := make([]models.ActionRecord, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.SaveActions(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("count", len(batch)).Error("failed to flush actions")
		return 0
	}
	s.logger.WithField("count", len(batch)).Debug("flushed actions")
	return len(batch)
}

// MarkInactive abandons every tracked game idle longer than the inactivity
// timeout and returns how many it marked.
func (s *Service) MarkInactive(ctx context.Context) int {
	now := s.opts.Now()
	marked := 0
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		s.lastActivity.Delete(gameID)
		ok, err := s.sink.MarkAbandoned(ctx, gameID)
		if err != nil {
			s.logger.WithError(err).WithField("game", gameID).Error("failed to mark game abandoned")
			return true
		}
		if ok {
			marked++
			s.logger.WithField("game", gameID).Info("marked game abandoned")
		}
		return true
	})
	return marked
}

// Pending returns the number of buffered records.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
