package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"framework-search/internal/common/config"
	"framework-search/internal/common/logger"
	"framework-search/internal/models"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	tasks   []*asynq.Task
	opts    [][]asynq.Option
	err     error
	release chan struct{}
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

type fakeEventStore struct {
	calls []models.SearchEvent
	err   error
}

func (f *fakeEventStore) InsertEvents(_ context.Context, kind models.EventKind, userID int64, ids []int64, at time.Time) error {
	f.calls = append(f.calls, models.SearchEvent{Kind: kind, UserID: userID, FrameworkIDs: ids, OccurredAt: at})
	return f.err
}

var testAnalyticsConfig = config.AnalyticsConfig{Queue: "analytics", EnqueueTimeout: 1000, MaxRetry: 3}

func TestRecorder_RecordSearch(t *testing.T) {
	enq := &fakeEnqueuer{}
	rec := NewRecorder(enq, testAnalyticsConfig, createTestLogger(t))
	at := time.Date(2024, time.May, 4, 10, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return at }

	rec.RecordSearch(context.Background(), 7, []int64{3, 1})
	rec.Wait()

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskRecordEvents, enq.tasks[0].Type())
	assert.Len(t, enq.opts[0], 3)

	event, err := ParseRecordEventsPayload(enq.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, models.SearchEvent{
		Kind:         models.EventSearch,
		UserID:       7,
		FrameworkIDs: []int64{3, 1},
		OccurredAt:   at,
	}, event)
}

func TestRecorder_RecordView(t *testing.T) {
	enq := &fakeEnqueuer{}
	rec := NewRecorder(enq, testAnalyticsConfig, createTestLogger(t))

	rec.RecordView(context.Background(), 7, 12)
	rec.Wait()

	require.Len(t, enq.tasks, 1)
	event, err := ParseRecordEventsPayload(enq.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, models.EventView, event.Kind)
	assert.Equal(t, []int64{12}, event.FrameworkIDs)
}

func TestRecorder_DoesNotBlockCaller(t *testing.T) {
	enq := &fakeEnqueuer{release: make(chan struct{})}
	rec := NewRecorder(enq, testAnalyticsConfig, createTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.RecordSearch(ctx, 7, []int64{1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecordSearch blocked on the queue")
	}

	// The request finishing must not cancel the enqueue.
	cancel()
	close(enq.release)
	rec.Wait()
	assert.Len(t, enq.tasks, 1)
}

func TestRecorder_DropsOnQueueError(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis: connection refused")}
	rec := NewRecorder(enq, testAnalyticsConfig, createTestLogger(t))

	assert.NotPanics(t, func() {
		rec.RecordSearch(context.Background(), 7, []int64{1, 2})
		rec.Wait()
	})
	assert.Empty(t, enq.tasks)
}

func TestRecorder_SkipsEmptyBatches(t *testing.T) {
	enq := &fakeEnqueuer{}
	rec := NewRecorder(enq, testAnalyticsConfig, createTestLogger(t))

	rec.RecordSearch(context.Background(), 7, nil)
	rec.Wait()
	assert.Empty(t, enq.tasks)

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.RecordSearch(context.Background(), 1, []int64{1}) })
}

func TestProcessor_HandleRecordEvents(t *testing.T) {
	st := &fakeEventStore{}
	p := NewProcessor(st, createTestLogger(t))
	at := time.Date(2024, time.May, 4, 10, 0, 0, 0, time.UTC)

	task, err := NewRecordEventsTask(models.SearchEvent{
		Kind: models.EventSearch, UserID: 7, FrameworkIDs: []int64{1, 2}, OccurredAt: at,
	})
	require.NoError(t, err)

	require.NoError(t, p.HandleRecordEvents(context.Background(), task))
	require.Len(t, st.calls, 1)
	assert.Equal(t, []int64{1, 2}, st.calls[0].FrameworkIDs)
	assert.True(t, at.Equal(st.calls[0].OccurredAt))
}

func TestProcessor_StoreErrorIsRetried(t *testing.T) {
	st := &fakeEventStore{err: errors.New("deadlock detected")}
	p := NewProcessor(st, createTestLogger(t))

	task, err := NewRecordEventsTask(models.SearchEvent{Kind: models.EventView, UserID: 1, FrameworkIDs: []int64{5}})
	require.NoError(t, err)

	err = p.HandleRecordEvents(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestProcessor_MalformedPayloadSkipsRetry(t *testing.T) {
	p := NewProcessor(&fakeEventStore{}, createTestLogger(t))

	err := p.HandleRecordEvents(context.Background(), asynq.NewTask(TaskRecordEvents, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
