package decider

import "github.com/conductor-oss/decider-go/model"

// evaluateJoin checks a pending JOIN task against its WorkflowTask.JoinOn reference names: once
// every one of them has reached a terminal status, the join itself is marked terminal (COMPLETED
// if all were successful, FAILED otherwise). Until then the join stays IN_PROGRESS and is
// re-seeded into toSchedule every decide call by the system-task rule (step 8a).
func (d *Decider) evaluateJoin(t *model.TaskInstance, wd *model.WorkflowDef, w *model.WorkflowInstance) {
	if t.TaskType != model.TaskTypeJoin || t.Status.IsTerminal() {
		return
	}
	wt := wd.TaskByRefName(t.ReferenceTaskName)
	if wt == nil {
		return
	}

	allSuccessful := true
	for _, ref := range wt.JoinOn {
		dep := w.TaskByRefName(ref)
		if dep == nil || !dep.Status.IsTerminal() {
			return
		}
		if !dep.Status.IsSuccessful() {
			allSuccessful = false
		}
	}

	if allSuccessful {
		t.Status = model.TaskStatusCompleted
	} else {
		t.Status = model.TaskStatusFailed
		t.ReasonForIncompletion = "one or more joined branches did not complete successfully"
	}
}
