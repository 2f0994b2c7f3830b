package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testRedisConfig struct {
	url string
}

func (c testRedisConfig) GetRedisURL() string { return c.url }

func newTestClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := NewClient(testRedisConfig{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { inspector.Close() })

	return client, inspector
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testRedisConfig{url: ""}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestEnqueueScanAnalyzeGoesToCriticalQueue(t *testing.T) {
	client, inspector := newTestClient(t)

	scanID := uuid.New()
	if err := client.EnqueueScanAnalyze(context.Background(), scanID); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	tasks, err := inspector.ListPendingTasks(QueueCritical)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task in %s, got %d", QueueCritical, len(tasks))
	}
	if tasks[0].Type != TaskScanAnalyze {
		t.Errorf("expected task type %s, got %s", TaskScanAnalyze, tasks[0].Type)
	}

	payload, err := ParseScanAnalyzePayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.ScanID != scanID.String() {
		t.Errorf("expected scan ID %s, got %s", scanID, payload.ScanID)
	}
}

func TestEnqueueLeadRevalueGoesToLowQueue(t *testing.T) {
	client, inspector := newTestClient(t)

	leadID := uuid.New()
	if err := client.EnqueueLeadRevalue(context.Background(), leadID); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	tasks, err := inspector.ListPendingTasks(QueueLow)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task in %s, got %d", QueueLow, len(tasks))
	}
	if tasks[0].Type != TaskLeadRevalue {
		t.Errorf("expected task type %s, got %s", TaskLeadRevalue, tasks[0].Type)
	}
}

func TestEnqueueScanSweep(t *testing.T) {
	client, inspector := newTestClient(t)

	if err := client.EnqueueScanSweep(context.Background()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	tasks, err := inspector.ListPendingTasks(QueueLow)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Type != TaskScanSweepStuck {
		t.Fatalf("expected one %s task, got %+v", TaskScanSweepStuck, tasks)
	}
}
