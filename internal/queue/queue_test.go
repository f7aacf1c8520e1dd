package queue

import (
	"testing"

	"github.com/hibiken/asynq"
)

func TestCountQueueWorkers(t *testing.T) {
	servers := []*asynq.ServerInfo{
		{Host: "worker-1", Queues: map[string]int{Name: 1}},
		{Host: "mailer-1", Queues: map[string]int{"email": 1}},
		{Host: "worker-2", Queues: map[string]int{Name: 1, "email": 1}},
	}
	if got := countQueueWorkers(servers); got != 2 {
		t.Fatalf("countQueueWorkers = %d, want 2", got)
	}
}

func TestCountQueueWorkersEmpty(t *testing.T) {
	if got := countQueueWorkers(nil); got != 0 {
		t.Fatalf("countQueueWorkers(nil) = %d, want 0", got)
	}
}
