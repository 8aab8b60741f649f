package decider

import (
	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/model"
)

// startWorkflow implements 4.D.vi: seed the first schedulable task(s) of a fresh workflow, or
// resume a rerun from its READY_FOR_RERUN task.
func (d *Decider) startWorkflow(w *model.WorkflowInstance, wd *model.WorkflowDef) ([]*model.TaskInstance, error) {
	if w.RerunFromWorkflowID == "" || len(w.Tasks) == 0 {
		if len(wd.Tasks) == 0 {
			return nil, corerrors.NewTerminateWorkflow("No tasks found", model.WorkflowStatusCompleted, nil)
		}

		for _, wt := range wd.Tasks {
			if existing := w.TaskByRefName(wt.TaskReferenceName); existing != nil && existing.Status == model.TaskStatusSkipped {
				continue
			}
			return d.mapTask(wd, w, wt, w.Input)
		}
		return nil, corerrors.NewTerminateWorkflow("No tasks found", model.WorkflowStatusCompleted, nil)
	}

	for _, t := range w.Tasks {
		if t.Status == model.TaskStatusReadyForRerun {
			t.Status = model.TaskStatusScheduled
			t.Retried = true
			t.RetryCount = 0
			return []*model.TaskInstance{t}, nil
		}
	}

	return nil, corerrors.NewTerminateWorkflow("rerun requested but no READY_FOR_RERUN task found", model.WorkflowStatusFailed, nil)
}
