package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAuditRepair = "requests.audit.repair"

type AuditRepairPayload struct {
	BatchSize int `json:"batchSize"`
}

func NewAuditRepairTask(payload AuditRepairPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRepair, data), nil
}

func ParseAuditRepairPayload(task *asynq.Task) (AuditRepairPayload, error) {
	var payload AuditRepairPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AuditRepairPayload{}, err
	}
	return payload, nil
}
