package analytics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"framework-search/internal/common/config"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/models"
)

// EventStore persists analytics rows.
type EventStore interface {
	InsertEvents(ctx context.Context, kind models.EventKind, userID int64, frameworkIDs []int64, at time.Time) error
}

// Processor writes queued events to the store.
type Processor struct {
	store  EventStore
	logger logger.Logger
}

func NewProcessor(store EventStore, log logger.Logger) *Processor {
	return &Processor{store: store, logger: log}
}

// HandleRecordEvents is the asynq handler for TaskRecordEvents. Malformed
// payloads are not retried.
func (p *Processor) HandleRecordEvents(ctx context.Context, task *asynq.Task) error {
	event, err := ParseRecordEventsPayload(task)
	if err != nil {
		return fmt.Errorf("parse analytics payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.store.InsertEvents(ctx, event.Kind, event.UserID, event.FrameworkIDs, event.OccurredAt); err != nil {
		metrics.AnalyticsEvents.WithLabelValues(string(event.Kind), "failed").Inc()
		p.logger.Error("Failed to store analytics events", map[string]interface{}{
			"kind":   string(event.Kind),
			"userId": event.UserID,
			"error":  err,
		})
		return err
	}

	metrics.AnalyticsEvents.WithLabelValues(string(event.Kind), "stored").Inc()
	return nil
}

func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskRecordEvents, p.HandleRecordEvents)
}

// RedisClientOpt converts the shared Redis settings to asynq's.
func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Server runs the Processor on the analytics queue.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger logger.Logger
}

func NewServer(redis config.RedisConfig, cfg config.AnalyticsConfig, processor *Processor, log logger.Logger) *Server {
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(RedisClientOpt(redis), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      asynqLogger{log: log},
	})

	mux := asynq.NewServeMux()
	processor.Register(mux)

	return &Server{server: server, mux: mux, logger: log}
}

// Run processes tasks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("start analytics processor: %w", err)
	}
	s.logger.Info("Analytics processor started", nil)

	<-ctx.Done()
	s.server.Shutdown()
	s.logger.Info("Analytics processor stopped", nil)
	return nil
}

// asynqLogger routes asynq's own logging through the service logger.
type asynqLogger struct {
	log logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...), nil) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...), nil) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...), nil) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...), nil) }

func (l asynqLogger) Fatal(args ...interface{}) {
	l.log.Error(fmt.Sprint(args...), nil)
	_ = l.log.Sync()
	os.Exit(1)
}
