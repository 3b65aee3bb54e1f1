// Package analytics records which frameworks users searched for and viewed.
// Events are queued on Redis with asynq and written to PostgreSQL by the
// Processor, so recording never blocks or fails a request.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"framework-search/internal/common/config"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/models"
)

// Enqueuer is the part of *asynq.Client the recorder uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Recorder struct {
	client   Enqueuer
	queue    string
	timeout  time.Duration
	maxRetry int
	logger   logger.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

func NewRecorder(client Enqueuer, cfg config.AnalyticsConfig, log logger.Logger) *Recorder {
	timeout := config.GetDuration(cfg.EnqueueTimeout)
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	return &Recorder{
		client:   client,
		queue:    queue,
		timeout:  timeout,
		maxRetry: cfg.MaxRetry,
		logger:   log,
		now:      time.Now,
	}
}

// RecordSearch queues one search event per framework shown to the user.
func (r *Recorder) RecordSearch(ctx context.Context, userID int64, frameworkIDs []int64) {
	r.record(ctx, models.EventSearch, userID, frameworkIDs)
}

// RecordView queues a framework detail view.
func (r *Recorder) RecordView(ctx context.Context, userID, frameworkID int64) {
	r.record(ctx, models.EventView, userID, []int64{frameworkID})
}

// Wait blocks until every queued enqueue attempt has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) record(ctx context.Context, kind models.EventKind, userID int64, frameworkIDs []int64) {
	if r == nil || r.client == nil || len(frameworkIDs) == 0 {
		return
	}

	event := models.SearchEvent{
		Kind:         kind,
		UserID:       userID,
		FrameworkIDs: append([]int64(nil), frameworkIDs...),
		OccurredAt:   r.now().UTC(),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		if err := r.enqueue(ctx, event); err != nil {
			metrics.AnalyticsEvents.WithLabelValues(string(kind), "dropped").Inc()
			r.logger.Warn("Dropping analytics event", map[string]interface{}{
				"kind":   string(kind),
				"userId": userID,
				"count":  len(event.FrameworkIDs),
				"error":  err,
			})
			return
		}
		metrics.AnalyticsEvents.WithLabelValues(string(kind), "enqueued").Inc()
	}()
}

func (r *Recorder) enqueue(ctx context.Context, event models.SearchEvent) error {
	task, err := NewRecordEventsTask(event)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(r.queue), asynq.TaskID(uuid.NewString())}
	if r.maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(r.maxRetry))
	}
	_, err = r.client.EnqueueContext(ctx, task, opts...)
	return err
}
