// Package execution implements the Execution Service (4.F): the worker-facing queue protocol
// surface — poll, ack, and the two requeue sweeps that recover stale reservations. It is grounded
// on the teacher's workflowTaskPoller/activityTaskPoller shape: a small struct holding its
// collaborators and a logger, with one method per protocol operation.
package execution

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/metrics"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/queue"
)

// TaskStore is the narrow execution-store capability the service needs for task reads/writes. The
// full ExecutionStore (store package) satisfies this.
type TaskStore interface {
	GetTask(ctx context.Context, taskID string) (*model.TaskInstance, error)
	PutTask(ctx context.Context, task *model.TaskInstance) error
}

// WorkflowLister is the narrow capability requeuePendingTasks needs: enumerate every running
// workflow instance across every workflow definition, so pending tasks can be swept for staleness.
type WorkflowLister interface {
	ListRunningWorkflows(ctx context.Context) ([]*model.WorkflowInstance, error)
}

// ConcurrencyLimiter reports the current in-progress count for a task-def name, enforcing 4.F's
// back-pressure rule ("skip if the task's in-progress count for its def already exceeds the
// configured concurrency limit").
type ConcurrencyLimiter interface {
	InProgressCount(taskDefName string) int
}

// TaskDefLoader resolves a TaskDef by name, mirroring decider.TaskDefLoader so the same
// MetadataStore-backed closure can back both collaborators.
type TaskDefLoader func(name string) *model.TaskDef

// Service is the Execution Service. Build with New; all collaborators are required except Metrics,
// Limiter, and TaskDefs, which default to no-ops/unlimited.
type Service struct {
	Queue          queue.Queue
	Store          TaskStore
	Workflows      WorkflowLister
	Limiter        ConcurrencyLimiter
	TaskDefs       TaskDefLoader
	Metrics        metrics.Recorder
	Logger         *zap.Logger
	Now            func() time.Time
	RequeueTimeout time.Duration

	mu       sync.Mutex
	lastPoll map[string]time.Time // keyed by taskType|domain|workerId
}

// New builds a Service. A nil logger falls back to zap.NewNop(); Metrics starts as
// metrics.Noop().
func New(q queue.Queue, store TaskStore, workflows WorkflowLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Queue:          q,
		Store:          store,
		Workflows:      workflows,
		Metrics:        metrics.Noop(),
		Logger:         logger,
		Now:            time.Now,
		RequeueTimeout: 60 * time.Second,
		lastPoll:       make(map[string]time.Time),
	}
}

// PollRequest is the input to Poll (4.F).
type PollRequest struct {
	TaskType  string
	WorkerID  string
	Domain    string
	Count     int
	TimeoutMs int
}

// Poll implements 4.F's poll. It rejects TimeoutMs>5000 as invalid input, mirroring the Worker
// API's INVALID_INPUT contract (§6).
func (s *Service) Poll(ctx context.Context, req PollRequest) ([]*model.TaskInstance, error) {
	if req.TimeoutMs > 5000 {
		return nil, corerrors.NewInvalidInput("poll timeoutMs %d exceeds maximum of 5000", req.TimeoutMs)
	}

	queueName := model.QueueName(req.TaskType, req.Domain)
	ids, err := s.Queue.Pop(ctx, queueName, req.Count, req.TimeoutMs)
	if err != nil {
		return nil, corerrors.NewTransientIO("queue pop", err)
	}

	var out []*model.TaskInstance
	for _, id := range ids {
		task, err := s.Store.GetTask(ctx, id)
		if err != nil {
			s.Logger.Warn("polled task missing from store", zap.String("taskId", id), zap.Error(err))
			continue
		}
		if task == nil {
			continue
		}

		if s.Limiter != nil {
			if limit := s.concurrencyLimitFor(task); limit > 0 && s.Limiter.InProgressCount(task.TaskDefName) >= limit {
				continue
			}
		}

		now := s.Now()
		if task.StartTime.IsZero() {
			task.StartTime = now
		}
		task.Status = model.TaskStatusInProgress
		task.WorkerID = req.WorkerID
		task.PollCount++

		if err := s.Store.PutTask(ctx, task); err != nil {
			return nil, corerrors.NewTransientIO("persist polled task", err)
		}
		out = append(out, task)
	}

	s.recordLastPoll(req.TaskType, req.Domain, req.WorkerID, s.Now())
	s.Metrics.IncPoll(req.TaskType, len(out))

	return out, nil
}

// concurrencyLimitFor reads TaskDef.ConcurrentExecLimit for task's task-def (4.D step 8b's lookup,
// reused here for back-pressure rather than retry/timeout policy). 0 means unlimited.
func (s *Service) concurrencyLimitFor(task *model.TaskInstance) int {
	if s.TaskDefs == nil || task.TaskDefName == "" {
		return 0
	}
	td := s.TaskDefs(task.TaskDefName)
	if td == nil {
		return 0
	}
	return td.ConcurrentExecLimit
}

func (s *Service) recordLastPoll(taskType, domain, workerID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPoll[taskType+"|"+domain+"|"+workerID] = at
}

// Ack implements 4.F's ack.
func (s *Service) Ack(ctx context.Context, taskID string) (bool, error) {
	task, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return false, corerrors.NewTransientIO("load task for ack", err)
	}
	if task == nil {
		return false, nil
	}
	queueName := model.QueueName(task.TaskDefName, "")
	return s.Queue.Ack(ctx, queueName, taskID)
}
