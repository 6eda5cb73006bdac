// internal/historian/historian_test.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue serves BLPOP from an in-memory channel. The first failures
// calls return a connection error.
type fakeQueue struct {
	items    chan string
	failures atomic.Int32
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	if q.failures.Add(-1) >= 0 {
		return redis.NewStringSliceResult(nil, errors.New("connection refused"))
	}
	select {
	case item := <-q.items:
		return redis.NewStringSliceResult([]string{keys[0], item}, nil)
	case <-time.After(timeout):
		return redis.NewStringSliceResult(nil, redis.Nil)
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	}
}

func (q *fakeQueue) push(t *testing.T, rec models.ActionRecord) {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	q.items <- string(data)
}

type fakeSink struct {
	mu        sync.Mutex
	saved     [][]models.ActionRecord
	abandoned []uuid.UUID
	err       error
}

func (f *fakeSink) SaveActions(_ context.Context, batch []models.ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, batch)
	return nil
}

func (f *fakeSink) MarkAbandoned(_ context.Context, gameID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, gameID)
	return true, nil
}

func (f *fakeSink) records() []models.ActionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActionRecord
	for _, b := range f.saved {
		out = append(out, b...)
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestFlushOnFullBatch(t *testing.T) {
	sink := &fakeSink{}
	s := New(&fakeQueue{}, sink, Options{BatchSize: 3, Logger: quietLogger()})
	gameID := uuid.New()

	s.Add(context.Background(), models.ActionRecord{GameID: gameID, ActionIndex: 1})
	s.Add(context.Background(), models.ActionRecord{GameID: gameID, ActionIndex: 2})
	assert.Empty(t, sink.records())
	assert.Equal(t, 2, s.Pending())

	s.Add(context.Background(), models.ActionRecord{GameID: gameID, ActionIndex: 3})
	require.Len(t, sink.saved, 1)
	assert.Len(t, sink.saved[0], 3)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, s.Flush(context.Background()))
}

func TestFlushDropsFailedBatch(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	s := New(&fakeQueue{}, sink, Options{BatchSize: 10, Logger: quietLogger()})
	s.Add(context.Background(), models.ActionRecord{ActionIndex: 1})

	assert.Equal(t, 0, s.Flush(context.Background()))
	assert.Equal(t, 0, s.Pending())
}

func TestRunDrainsQueueInOrder(t *testing.T) {
	q := &fakeQueue{items: make(chan string, 16)}
	sink := &fakeSink{}
	s := New(q, sink, Options{
		BatchSize:     4,
		FlushInterval: 10 * time.Millisecond,
		PopTimeout:    10 * time.Millisecond,
		Logger:        quietLogger(),
	})

	gameID := uuid.New()
	for i := 1; i <= 6; i++ {
		q.push(t, models.ActionRecord{SessionCode: "ABC234", GameID: gameID, ActionIndex: i})
	}
	q.items <- "not json"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sink.records()) == 6 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	for i, rec := range sink.records() {
		assert.Equal(t, i+1, rec.ActionIndex)
		assert.Equal(t, "ABC234", rec.SessionCode)
	}
}

func TestRunRecoversFromQueueErrors(t *testing.T) {
	q := &fakeQueue{items: make(chan string, 4)}
	q.failures.Store(2)
	sink := &fakeSink{}
	s := New(q, sink, Options{
		BatchSize:     1,
		FlushInterval: 10 * time.Millisecond,
		PopTimeout:    10 * time.Millisecond,
		Logger:        quietLogger(),
	})
	q.push(t, models.ActionRecord{ActionIndex: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool { return len(sink.records()) == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestRunFlushesOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	s := New(&fakeQueue{}, sink, Options{
		BatchSize:     100,
		FlushInterval: time.Hour,
		PopTimeout:    5 * time.Millisecond,
		Logger:        quietLogger(),
	})
	s.Add(context.Background(), models.ActionRecord{ActionIndex: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	assert.Len(t, sink.records(), 1)
}

func TestMarkInactive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sink := &fakeSink{}
	s := New(&fakeQueue{}, sink, Options{
		BatchSize:  100,
		Inactivity: 10 * time.Minute,
		Logger:     quietLogger(),
		Now:        func() time.Time { return now },
	})

	stale, fresh, finished := uuid.New(), uuid.New(), uuid.New()
	s.Add(context.Background(), models.ActionRecord{GameID: stale, ActionType: models.ActionGameStarted})
	s.Add(context.Background(), models.ActionRecord{GameID: finished, ActionType: models.ActionGameStarted})
	s.Add(context.Background(), models.ActionRecord{GameID: finished, ActionType: models.ActionGameFinished})

	now = now.Add(8 * time.Minute)
	s.Add(context.Background(), models.ActionRecord{GameID: fresh, ActionType: models.ActionVoteCast})

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, s.MarkInactive(context.Background()))
	assert.Equal(t, []uuid.UUID{stale}, sink.abandoned)

	assert.Equal(t, 0, s.MarkInactive(context.Background()), "abandoned games are forgotten")
}
