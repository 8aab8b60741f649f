package decider

import (
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/resolver"
)

// retry implements 4.D.iii. On success it mutates t.Retried in place (the caller must persist that
// mutation, which is why t is also added to tasksToBeUpdated by the caller) and returns the new
// successor task. When retry is not possible it raises TerminateWorkflow after first refreshing
// the workflow output via updateWorkflowOutput, per the spec's explicit ordering.
func (d *Decider) retry(w *model.WorkflowInstance, wd *model.WorkflowDef, t *model.TaskInstance, td *model.TaskDef, wt *model.WorkflowTask) (*model.TaskInstance, error) {
	eligible := t.Status.IsRetriable() && !t.TaskType.IsSystemTask() && td != nil && t.RetryCount < td.RetryCount
	if !eligible {
		status := model.WorkflowStatusFailed
		if t.Status == model.TaskStatusTimedOut {
			status = model.WorkflowStatusTimedOut
		}
		reason := "exhausted retries for task " + t.ReferenceTaskName
		if td == nil {
			reason = "no task definition for " + t.ReferenceTaskName
		}

		if err := d.updateWorkflowOutput(w, wd, t); err != nil {
			d.Logger.Warn("failed to update workflow output before terminating", zap.Error(err))
		}
		return nil, corerrors.NewTerminateWorkflow(reason, status, t)
	}

	delaySeconds := td.RetryDelaySeconds
	if td.RetryLogic == model.RetryLogicExponentialBackoff {
		delaySeconds = td.RetryDelaySeconds * (1 + t.RetryCount)
	}

	t.Retried = true

	successor := t.Clone()
	successor.TaskID = d.NewTaskID()
	successor.RetriedTaskID = t.TaskID
	successor.Status = model.TaskStatusScheduled
	successor.PollCount = 0
	successor.RetryCount = t.RetryCount + 1
	successor.Retried = false
	successor.StartDelaySeconds = delaySeconds
	successor.CallbackAfterSeconds = delaySeconds
	successor.WorkerID = ""
	successor.ReasonForIncompletion = ""

	if successor.ExternalInputPath == "" {
		successor.Input = t.Input
	}

	if wt != nil && wd.SchemaVersion >= 2 {
		ctx := resolver.Context{WorkflowInput: w.Input, Tasks: ioContextFor(w)}
		overlaid := make(map[string]interface{}, len(successor.Input))
		for k, v := range successor.Input {
			overlaid[k] = v
		}
		for k, v := range resolver.ResolveV2(wt.InputParameters, ctx) {
			overlaid[k] = v
		}
		successor.Input = overlaid
	}

	if d.Payload != nil {
		if err := d.Payload.VerifyAndUpload(successor.TaskID, model.PayloadKindTaskInput, &successor.Input, &successor.ExternalInputPath); err != nil {
			return nil, err
		}
	}

	return successor, nil
}

// ioContextFor builds the resolver task-IO context from every task instance seen so far, keyed by
// reference name (last write wins, matching WorkflowInstance.TaskByRefName).
func ioContextFor(w *model.WorkflowInstance) map[string]resolver.TaskIO {
	out := make(map[string]resolver.TaskIO, len(w.Tasks))
	for _, t := range w.Tasks {
		out[t.ReferenceTaskName] = resolver.TaskIO{Input: t.Input, Output: t.Output}
	}
	return out
}
