package camunda

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"framework-search/internal/common/logger"
)

// JobHandler processes one activated job and completes, fails or throws it.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type Worker struct {
	client        zbc.Client
	taskType      string
	maxJobsActive int
	handler       JobHandler
	logger        logger.Logger
}

func NewWorker(client zbc.Client, taskType string, maxJobsActive int, handler JobHandler, log logger.Logger) *Worker {
	return &Worker{
		client:        client,
		taskType:      taskType,
		maxJobsActive: maxJobsActive,
		handler:       handler,
		logger:        log.WithFields(map[string]interface{}{"taskType": taskType}),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	jobWorker := w.client.NewJobWorker().
		JobType(w.taskType).
		Handler(w.handler.Handle).
		MaxJobsActive(w.maxJobsActive).
		Open()
	w.logger.Info("Worker started", nil)

	<-ctx.Done()

	w.logger.Info("Stopping worker", nil)
	jobWorker.Close()
	jobWorker.AwaitClose()
	return nil
}
