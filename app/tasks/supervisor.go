package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartyg/competitionnotify/app/metrics"
)

const DefaultCancelGrace = time.Second

type entry struct {
	task   TaskInterface
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns the set of running competition tasks. ReplaceAll and
// CancelAll never overlap, and a new batch is only started once every task
// of the previous batch has exited.
type Supervisor struct {
	grace time.Duration

	cycleMu sync.Mutex

	mu      sync.Mutex
	running map[uuid.UUID]*entry
}

func NewSupervisor(grace time.Duration) *Supervisor {
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	return &Supervisor{
		grace:   grace,
		running: make(map[uuid.UUID]*entry),
	}
}

// ReplaceAll cancels and joins every running task, then starts tasks. Tasks
// with an id already present earlier in the batch are dropped. Task
// contexts derive from ctx.
func (s *Supervisor) ReplaceAll(ctx context.Context, tasks []TaskInterface) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	s.drain()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		id := task.GetID()
		if _, ok := s.running[id]; ok {
			slog.Warn("Dropping duplicate task", "type", task.GetType(), "id", id)
			continue
		}

		taskCtx, cancel := context.WithCancel(ctx)
		e := &entry{task: task, cancel: cancel, done: make(chan struct{})}
		s.running[id] = e
		go s.run(taskCtx, e)
	}

	metrics.RunningTasks.Set(float64(len(s.running)))
	slog.Debug("Tasks started", "count", len(s.running))
}

// CancelAll cancels and joins every running task.
func (s *Supervisor) CancelAll() {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	s.drain()
}

func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

func (s *Supervisor) RunningIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	return ids
}

// drain must be called with cycleMu held.
func (s *Supervisor) drain() {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.running))
	for _, e := range s.running {
		e.cancel()
		entries = append(entries, e)
	}
	s.mu.Unlock()

	if len(entries) == 0 {
		return
	}

	allDone := make(chan struct{})
	go func() {
		for _, e := range entries {
			<-e.done
		}
		close(allDone)
	}()

	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case <-allDone:
	case <-timer.C:
		var stragglers []uuid.UUID
		for _, e := range entries {
			select {
			case <-e.done:
			default:
				stragglers = append(stragglers, e.task.GetID())
			}
		}
		slog.Warn("Tasks still running after cancel grace period, waiting", "grace", s.grace, "tasks", stragglers)
		<-allDone
	}

	slog.Debug("Tasks drained", "count", len(entries))
}

func (s *Supervisor) run(ctx context.Context, e *entry) {
	defer func() {
		s.mu.Lock()
		if current, ok := s.running[e.task.GetID()]; ok && current == e {
			delete(s.running, e.task.GetID())
		}
		metrics.RunningTasks.Set(float64(len(s.running)))
		s.mu.Unlock()

		e.cancel()
		close(e.done)
	}()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "type", e.task.GetType(), "id", e.task.GetID(), "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	e.task.Start()
	if err := e.task.Execute(ctx); err != nil {
		slog.Error("Task execution failed", "type", e.task.GetType(), "id", e.task.GetID(), "duration", e.task.GetDuration(), "error", err)
	}
}
