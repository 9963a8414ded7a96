package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCollaborationReminder = "connections.collaboration.reminder"

type CollaborationReminderPayload struct {
	ConnectionID string `json:"connectionId"`
	RecipientID  string `json:"recipientId"`
}

func NewCollaborationReminderTask(payload CollaborationReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCollaborationReminder, data), nil
}

func ParseCollaborationReminderPayload(task *asynq.Task) (CollaborationReminderPayload, error) {
	var payload CollaborationReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CollaborationReminderPayload{}, err
	}
	return payload, nil
}
