package execution

import (
	"context"

	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/decider"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/queue"
)

// WorkflowStore is the narrow write capability Applier needs to persist a workflow instance after
// folding a Decide outcome into it. The full ExecutionStore (store package) satisfies this.
type WorkflowStore interface {
	PutWorkflow(ctx context.Context, w *model.WorkflowInstance) error
}

// Applier folds a decider.Outcome back into durable state: newly scheduled tasks are appended to
// the workflow, every touched task is persisted, SCHEDULED tasks are pushed onto their queue, and
// a completed workflow is marked terminal. This is the one place in the module that turns the
// Decider's pure-function output into side effects, matching the way the teacher's replayer
// applies decision events only after the workflow task completes.
type Applier struct {
	Queue     queue.Queue
	Tasks     TaskStore
	Workflows WorkflowStore
	Logger    *zap.Logger
}

// NewApplier builds an Applier. A nil logger falls back to zap.NewNop().
func NewApplier(q queue.Queue, tasks TaskStore, workflows WorkflowStore, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{Queue: q, Tasks: tasks, Workflows: workflows, Logger: logger}
}

// Apply implements tick.OutcomeApplier.
func (a *Applier) Apply(ctx context.Context, w *model.WorkflowInstance, outcome decider.Outcome) error {
	for _, t := range outcome.TasksToBeScheduled {
		putTask(w, t)
		if err := a.Tasks.PutTask(ctx, t); err != nil {
			return err
		}
		if t.Status == model.TaskStatusScheduled {
			queueName := model.QueueName(t.TaskDefName, "")
			if err := a.Queue.Push(ctx, queueName, t.TaskID, t.StartDelaySeconds); err != nil {
				a.Logger.Warn("push scheduled task failed", zap.String("taskId", t.TaskID), zap.Error(err))
			}
		}
	}

	for _, t := range outcome.TasksToBeUpdated {
		if err := a.Tasks.PutTask(ctx, t); err != nil {
			return err
		}
	}

	if outcome.IsComplete {
		w.Status = model.WorkflowStatusCompleted
	}

	return a.Workflows.PutWorkflow(ctx, w)
}

// putTask replaces w.Tasks' entry for t.TaskID in place if already present, else appends it. A
// pending non-terminal system task (DECISION/FORK/JOIN) is re-seeded into every Decide outcome
// (4.D step 8a), so repeated sweeps over the same workflow must not keep appending duplicates.
func putTask(w *model.WorkflowInstance, t *model.TaskInstance) {
	for i, existing := range w.Tasks {
		if existing.TaskID == t.TaskID {
			w.Tasks[i] = t
			return
		}
	}
	w.Tasks = append(w.Tasks, t)
}
