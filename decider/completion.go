package decider

import "github.com/conductor-oss/decider-go/model"

// checkForCompletion implements 4.D.iv. All three conditions must hold for the workflow to be
// considered complete; an empty task list is vacuously incomplete, not complete.
func (d *Decider) checkForCompletion(wd *model.WorkflowDef, w *model.WorkflowInstance) (bool, error) {
	if len(w.Tasks) == 0 {
		return false, nil
	}

	statusByRef := make(map[string]model.TaskStatus, len(w.Tasks))
	for _, t := range w.Tasks {
		statusByRef[t.ReferenceTaskName] = t.Status
	}

	for _, wt := range wd.Tasks {
		status, ok := statusByRef[wt.TaskReferenceName]
		if !ok || !status.IsTerminal() || !status.IsSuccessful() {
			return false, nil
		}
	}

	for _, status := range statusByRef {
		if !status.IsTerminal() {
			return false, nil
		}
	}

	for _, t := range w.Tasks {
		nextRef := nextSchedulableRef(wd, t.ReferenceTaskName, statusByRef)
		if nextRef == "" {
			continue
		}
		if _, known := statusByRef[nextRef]; !known {
			return false, nil
		}
	}

	return true, nil
}

// nextSchedulableRef walks WD forward from refName, skipping over any template whose recorded
// instance status is SKIPPED, matching getNextTask's traversal rule (4.D.v).
func nextSchedulableRef(wd *model.WorkflowDef, refName string, statusByRef map[string]model.TaskStatus) string {
	for {
		next := wd.NextTaskRefName(refName)
		if next == "" {
			return ""
		}
		if statusByRef[next] == model.TaskStatusSkipped {
			refName = next
			continue
		}
		return next
	}
}
