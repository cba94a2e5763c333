package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/professor/internal/domain"
	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/port/messagequeue"
)

// Runner executes a research pipeline for one task.
type Runner interface {
	Run(ctx context.Context, t *research.Task)
}

// Scheduler runs jobs in the background.
type Scheduler interface {
	Go(fn func()) error
}

// TaskSummary is the diagnostic view of a task in ListTasks.
type TaskSummary struct {
	TaskID    string          `json:"task_id"`
	Topic     string          `json:"topic"`
	Status    research.Status `json:"status"`
	Progress  int             `json:"progress"`
	StartTime time.Time       `json:"start_time"`
}

// Health is the liveness report.
type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveTasks int       `json:"active_tasks"`
}

// ResearchService is the task API: it creates tasks, schedules their pipelines
// and serves read-only views of the registry.
type ResearchService struct {
	registry *Registry
	runner   Runner
	pool     Scheduler
	newID    func() string
	now      func() time.Time
}

// NewResearchService creates a ResearchService.
func NewResearchService(registry *Registry, runner Runner, pool Scheduler) *ResearchService {
	return &ResearchService{
		registry: registry,
		runner:   runner,
		pool:     pool,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Start validates req, registers a new task and schedules its pipeline.
// It returns without waiting for the pipeline.
func (s *ResearchService) Start(ctx context.Context, req research.Request) (*research.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := research.NewTask(s.newID(), req, s.now())
	s.registry.Add(t)

	// The run outlives the caller's request but keeps its request id for logging.
	runCtx := context.WithoutCancel(ctx)
	if err := s.pool.Go(func() { s.runner.Run(runCtx, t) }); err != nil {
		s.registry.Remove(t.ID())
		return nil, fmt.Errorf("schedule research task: %w", err)
	}

	slog.InfoContext(ctx, "research task scheduled", "task_id", t.ID(), "topic", req.Topic)
	return t, nil
}

// Status returns a snapshot of the task.
func (s *ResearchService) Status(id string) (research.Snapshot, error) {
	t, ok := s.registry.Get(id)
	if !ok {
		return research.Snapshot{}, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return t.Snapshot(), nil
}

// Result returns the snapshot of a completed task. For a task that has not
// completed it returns the current snapshot together with domain.ErrNotReady.
func (s *ResearchService) Result(id string) (research.Snapshot, error) {
	snap, err := s.Status(id)
	if err != nil {
		return snap, err
	}
	if snap.Status != research.StatusCompleted {
		return snap, fmt.Errorf("task %s is %s: %w", id, snap.Status, domain.ErrNotReady)
	}
	return snap, nil
}

// List returns summaries of every registered task, oldest first.
func (s *ResearchService) List() []TaskSummary {
	tasks := s.registry.List()
	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		snap := t.Snapshot()
		out = append(out, TaskSummary{
			TaskID:    snap.TaskID,
			Topic:     snap.Topic,
			Status:    snap.Status,
			Progress:  snap.Progress,
			StartTime: snap.StartTime,
		})
	}
	return out
}

// Health reports liveness and the registry size.
func (s *ResearchService) Health() Health {
	return Health{
		Status:      "healthy",
		Timestamp:   s.now(),
		ActiveTasks: s.registry.Len(),
	}
}

// HandleRequestMessage starts a task from a research.request queue message.
func (s *ResearchService) HandleRequestMessage(ctx context.Context, _ string, data []byte) error {
	var payload messagequeue.ResearchRequestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode research request: %w", err)
	}

	req := research.Request{
		Topic:          payload.Topic,
		Style:          research.Style(payload.ResponseStyle),
		IncludeSources: true,
	}
	if payload.IncludeSources != nil {
		req.IncludeSources = *payload.IncludeSources
	}

	t, err := s.Start(ctx, req)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "research task started from queue", "task_id", t.ID())
	return nil
}
