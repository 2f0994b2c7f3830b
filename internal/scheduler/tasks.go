package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names. Queue routing lives in the client; handlers live in
// the worker.
const (
	TaskScanAnalyze    = "scan:analyze"
	TaskScanSweepStuck = "scan:sweep_stuck"
	TaskLeadRevalue    = "lead:revalue"
)

// Queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type ScanAnalyzePayload struct {
	ScanID string `json:"scanId"`
}

type LeadRevaluePayload struct {
	LeadID string `json:"leadId"`
}

func NewScanAnalyzeTask(payload ScanAnalyzePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScanAnalyze, data), nil
}

func ParseScanAnalyzePayload(task *asynq.Task) (ScanAnalyzePayload, error) {
	var payload ScanAnalyzePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScanAnalyzePayload{}, err
	}
	return payload, nil
}

func NewScanSweepTask() *asynq.Task {
	return asynq.NewTask(TaskScanSweepStuck, nil)
}

func NewLeadRevalueTask(payload LeadRevaluePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRevalue, data), nil
}

func ParseLeadRevaluePayload(task *asynq.Task) (LeadRevaluePayload, error) {
	var payload LeadRevaluePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRevaluePayload{}, err
	}
	return payload, nil
}
