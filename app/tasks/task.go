package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeProcessCompetition TaskType = "process_competition"
)

// TaskInterface is a unit of work owned by the Supervisor. At most one task
// per id is alive at any time.
type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() uuid.UUID
	GetType() TaskType
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID        uuid.UUID
	Type      TaskType
	StartedAt *time.Time
}

func (t *Task) GetID() uuid.UUID {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, id uuid.UUID) Task {
	return Task{
		ID:   id,
		Type: taskType,
	}
}
