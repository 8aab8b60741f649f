// Package decider implements the Decider (4.D): a pure function that inspects a workflow instance
// against its definition and decides what to schedule, update, or complete next. It holds no state
// of its own — every call is independent and side-effect free, the same contract the teacher's
// decisionsHelper gives its replayer: fold a snapshot forward, never reach outside it.
package decider

import (
	"time"

	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/mapper"
	"github.com/conductor-oss/decider-go/metrics"
	"github.com/conductor-oss/decider-go/model"
)

// QueueChecker is the narrow queue capability the response-timeout check needs: whether a task id
// is currently sitting in its queue (a pending callback, not an active worker hold).
type QueueChecker interface {
	Exists(queueName, taskID string) bool
}

// PayloadResolver is the narrow payload-gateway capability updateWorkflowOutput and retry
// production need: downloading an externalized payload and (re-)uploading one that may now be
// oversized.
type PayloadResolver interface {
	Download(path string) (map[string]interface{}, error)
	VerifyAndUpload(name string, kind model.PayloadKind, data *map[string]interface{}, externalPath *string) error
}

// TaskDefLoader resolves a TaskDef by name; the Decider itself holds no metadata-store state, it
// only consults this on every lookup (4.D step 8b: "Load TD by T.taskDefName").
type TaskDefLoader func(name string) *model.TaskDef

// Outcome is the Decider's public contract (4.D): what the caller must schedule, persist, and
// whether the workflow has completed.
type Outcome struct {
	TasksToBeScheduled []*model.TaskInstance
	TasksToBeUpdated   []*model.TaskInstance
	TasksToBeRequeued  []*model.TaskInstance
	IsComplete         bool
}

// Decider evaluates (W, WD) pairs. Its collaborators are all injected so the evaluation itself
// stays a pure function of its arguments; Now is overridable for deterministic tests.
type Decider struct {
	Mappers   *mapper.Registry
	Queue     QueueChecker
	Payload   PayloadResolver
	TaskDefs  TaskDefLoader
	NewTaskID mapper.IDGenerator
	Metrics   metrics.Recorder
	Logger    *zap.Logger
	Now       func() time.Time
}

// New builds a Decider. A nil logger falls back to zap.NewNop(), mirroring the teacher's
// nil-logger convention for constructors that accept one; Metrics defaults to metrics.Noop(),
// matching the Execution Service's default.
func New(mappers *mapper.Registry, queue QueueChecker, payload PayloadResolver, taskDefs TaskDefLoader, newTaskID mapper.IDGenerator, logger *zap.Logger) *Decider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decider{
		Mappers:   mappers,
		Queue:     queue,
		Payload:   payload,
		TaskDefs:  taskDefs,
		NewTaskID: newTaskID,
		Metrics:   metrics.Noop(),
		Logger:    logger,
		Now:       time.Now,
	}
}

type orderedTasks struct {
	order []string
	byRef map[string]*model.TaskInstance
}

func newOrderedTasks() *orderedTasks {
	return &orderedTasks{byRef: make(map[string]*model.TaskInstance)}
}

// putIfAbsent inserts task under refName unless one is already present; matches step 7's
// "later insertions do not overwrite earlier ones".
func (o *orderedTasks) putIfAbsent(refName string, task *model.TaskInstance) {
	if _, exists := o.byRef[refName]; exists {
		return
	}
	o.order = append(o.order, refName)
	o.byRef[refName] = task
}

func (o *orderedTasks) has(refName string) bool {
	_, ok := o.byRef[refName]
	return ok
}

func (o *orderedTasks) values() []*model.TaskInstance {
	out := make([]*model.TaskInstance, 0, len(o.order))
	for _, ref := range o.order {
		out = append(out, o.byRef[ref])
	}
	return out
}

// Decide runs the full algorithm of 4.D over w against wd. It never mutates the caller's maps
// outside of the TaskInstance pointers also referenced from w.Tasks (whose field mutations the
// caller must persist via the returned TasksToBeUpdated).
func (d *Decider) Decide(w *model.WorkflowInstance, wd *model.WorkflowDef) (Outcome, error) {
	w.SchemaVersion = wd.SchemaVersion

	if w.Status == model.WorkflowStatusPaused {
		d.Logger.Debug("workflow paused, skipping decide", zap.String("workflowId", w.ID))
		return Outcome{}, nil
	}
	if w.IsTerminal() {
		d.Logger.Warn("decide called on terminal workflow", zap.String("workflowId", w.ID), zap.String("status", string(w.Status)))
		return Outcome{}, nil
	}

	toSchedule := newOrderedTasks()

	executedTasks := executedTasksOf(w)
	if len(executedTasks) == 0 {
		seeded, err := d.startWorkflow(w, wd)
		if err != nil {
			return Outcome{}, err
		}
		for _, t := range seeded {
			toSchedule.putIfAbsent(t.ReferenceTaskName, t)
		}
	}

	pendingTasks := pendingTasksOf(w)
	executedRefNames := make(map[string]bool)
	for _, t := range w.Tasks {
		if t.Executed {
			executedRefNames[t.ReferenceTaskName] = true
		}
	}

	var tasksToBeUpdated []*model.TaskInstance

	for _, t := range pendingTasks {
		if t.TaskType.IsSystemTask() && !t.Status.IsTerminal() {
			toSchedule.putIfAbsent(t.ReferenceTaskName, t)
			delete(executedRefNames, t.ReferenceTaskName)
		}

		d.evaluateJoin(t, wd, w)

		td := d.taskDefFor(wd, t)

		if err := d.checkTimeout(t, td); err != nil {
			return Outcome{}, err
		}
		d.checkResponseTimeout(t, td)

		if t.Status.IsTerminal() && !t.Status.IsSuccessful() {
			wt := wd.TaskByRefName(t.ReferenceTaskName)
			if wt != nil && wt.Optional {
				t.Status = model.TaskStatusCompletedWithErrs
			} else {
				retried, err := d.retry(w, wd, t, td, wt)
				if err != nil {
					return Outcome{}, err
				}
				toSchedule.putIfAbsent(retried.ReferenceTaskName, retried)
				delete(executedRefNames, retried.ReferenceTaskName)
				tasksToBeUpdated = append(tasksToBeUpdated, t)
			}
		}

		if t.Status.IsTerminal() && !t.Executed && !t.Retried {
			t.Executed = true
			next, err := d.getNextTask(wd, w, t)
			if err != nil {
				return Outcome{}, err
			}
			for _, nt := range next {
				toSchedule.putIfAbsent(nt.ReferenceTaskName, nt)
			}
			tasksToBeUpdated = append(tasksToBeUpdated, t)
		}
	}

	var tasksToBeScheduled []*model.TaskInstance
	for _, t := range toSchedule.values() {
		if !executedRefNames[t.ReferenceTaskName] {
			tasksToBeScheduled = append(tasksToBeScheduled, t)
		}
	}

	outcome := Outcome{
		TasksToBeScheduled: tasksToBeScheduled,
		TasksToBeUpdated:   tasksToBeUpdated,
	}

	if len(tasksToBeScheduled) == 0 {
		complete, err := d.checkForCompletion(wd, w)
		if err != nil {
			return Outcome{}, err
		}
		outcome.IsComplete = complete
	}

	return outcome, nil
}

func executedTasksOf(w *model.WorkflowInstance) []*model.TaskInstance {
	var out []*model.TaskInstance
	for _, t := range w.Tasks {
		if t.Status == model.TaskStatusSkipped || t.Status == model.TaskStatusReadyForRerun {
			continue
		}
		if t.Executed {
			continue
		}
		out = append(out, t)
	}
	return out
}

func pendingTasksOf(w *model.WorkflowInstance) []*model.TaskInstance {
	var out []*model.TaskInstance
	for _, t := range w.Tasks {
		if t.TaskType.IsSystemTask() {
			out = append(out, t)
			continue
		}
		if !t.Retried && t.Status != model.TaskStatusSkipped && !t.Executed {
			out = append(out, t)
		}
	}
	return out
}

func (d *Decider) taskDefFor(wd *model.WorkflowDef, t *model.TaskInstance) *model.TaskDef {
	if t.TaskDefName == "" || d.TaskDefs == nil {
		return nil
	}
	return d.TaskDefs(t.TaskDefName)
}
