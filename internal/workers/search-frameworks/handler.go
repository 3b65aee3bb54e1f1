// Package searchframeworks is the Zeebe worker that runs framework searches
// for BPMN processes.
package searchframeworks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/models"
	"framework-search/internal/search"
)

const TaskType = "search-frameworks"

type Searcher interface {
	Search(ctx context.Context, user models.User, raw []byte) (*search.Page, error)
	AdminSearch(ctx context.Context, user models.User, raw []byte) (*search.Page, error)
}

type Handler struct {
	config       *Config
	searcher     Searcher
	logger       logger.Logger
	errorHandler *apperrors.JobErrorHandler
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		logger:       log,
		errorHandler: apperrors.NewJobErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewBadRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.logger.Info("Job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"totalCount": output.Result.TotalCount,
	})
}

// Execute runs the requested search. Processes are trusted callers, so the
// survey gate does not apply; admin searches still need a staff user.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID <= 0 {
		return nil, apperrors.NewValidationError(map[string]string{"userId": "This field is required."})
	}
	raw := []byte(input.Request)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	user := models.User{ID: input.UserID, IsStaff: input.IsStaff, IsSurveyCompleted: true}

	var (
		page *search.Page
		err  error
	)
	if input.Admin {
		if !input.IsStaff {
			return nil, apperrors.NewForbiddenError("admin search requires a staff user")
		}
		page, err = h.searcher.AdminSearch(ctx, user, raw)
	} else {
		page, err = h.searcher.Search(ctx, user, raw)
	}
	if err != nil {
		return nil, err
	}
	return &Output{Result: page}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}
