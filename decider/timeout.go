package decider

import (
	"time"

	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/model"
)

// checkTimeout implements 4.D.i: lazily evaluate whether an IN_PROGRESS task has overrun
// TD.timeoutSeconds, and react per TD.timeoutPolicy. A TIME_OUT_WF policy raises
// TerminateWorkflow, the Decider's only side channel for aborting evaluation mid-call.
func (d *Decider) checkTimeout(t *model.TaskInstance, td *model.TaskDef) error {
	if td == nil {
		d.Logger.Warn("no task definition found for timeout check", zap.String("taskId", t.TaskID), zap.String("refName", t.ReferenceTaskName))
		return nil
	}
	if t.Status.IsTerminal() || td.TimeoutSeconds <= 0 || t.Status != model.TaskStatusInProgress {
		return nil
	}

	startedAt := t.StartTime.Add(time.Duration(t.StartDelaySeconds) * time.Second)
	elapsed := d.Now().Sub(startedAt)
	timeout := time.Duration(td.TimeoutSeconds) * time.Second
	if elapsed < timeout {
		return nil
	}

	reason := "task timed out after " + timeout.String()

	switch td.TimeoutPolicy {
	case model.TimeoutPolicyAlertOnly:
		d.Logger.Warn("task exceeded timeout, alert-only policy", zap.String("taskId", t.TaskID))
		d.Metrics.IncTimeout(t.TaskDefName, string(model.TimeoutPolicyAlertOnly))
		return nil
	case model.TimeoutPolicyRetry:
		t.Status = model.TaskStatusTimedOut
		t.ReasonForIncompletion = reason
		return nil
	case model.TimeoutPolicyTimeOutWf:
		t.Status = model.TaskStatusTimedOut
		t.ReasonForIncompletion = reason
		return corerrors.NewTerminateWorkflow(reason, model.WorkflowStatusTimedOut, t)
	default:
		d.Logger.Warn("unknown timeout policy", zap.String("policy", string(td.TimeoutPolicy)))
		return nil
	}
}

// checkResponseTimeout implements 4.D.ii. It never raises TerminateWorkflow directly; a timed-out
// task is handed to the retry step later in the same Decide pass, like any other FAILED/TIMED_OUT task.
func (d *Decider) checkResponseTimeout(t *model.TaskInstance, td *model.TaskDef) {
	if td == nil || t.Status != model.TaskStatusInProgress || td.ResponseTimeoutSecs <= 0 {
		return
	}

	queueName := model.QueueName(t.TaskDefName, "")
	if d.Queue != nil && d.Queue.Exists(queueName, t.TaskID) {
		return
	}

	responseTimeout := time.Duration(td.ResponseTimeoutSecs) * time.Second
	if d.Now().Sub(t.UpdateTime) >= responseTimeout {
		t.Status = model.TaskStatusTimedOut
		t.ReasonForIncompletion = "response timeout after " + responseTimeout.String()
	}
}
