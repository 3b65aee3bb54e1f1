package analytics

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"framework-search/internal/models"
)

const TaskRecordEvents = "analytics.record"

func NewRecordEventsTask(event models.SearchEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordEvents, data), nil
}

func ParseRecordEventsPayload(task *asynq.Task) (models.SearchEvent, error) {
	var event models.SearchEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return models.SearchEvent{}, err
	}
	return event, nil
}
