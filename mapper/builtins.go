package mapper

import (
	"fmt"

	"github.com/conductor-oss/decider-go/model"
)

// MapUserDefined is the simple 1-to-1 mapper: one WorkflowTask produces one SCHEDULED
// TaskInstance with no further expansion.
func MapUserDefined(ctx Context) ([]*model.TaskInstance, error) {
	return []*model.TaskInstance{newBaseTask(ctx, model.TaskStatusScheduled)}, nil
}

// MapWait produces a single SCHEDULED task that only a worker (or an external signal, out of
// core) can complete; structurally identical to a user-defined task.
func MapWait(ctx Context) ([]*model.TaskInstance, error) {
	return []*model.TaskInstance{newBaseTask(ctx, model.TaskStatusScheduled)}, nil
}

// MapSubWorkflow produces a single SCHEDULED marker task; the executor (out of core) is
// responsible for starting the child workflow instance and relaying its terminal status back
// onto this task.
func MapSubWorkflow(ctx Context) ([]*model.TaskInstance, error) {
	return []*model.TaskInstance{newBaseTask(ctx, model.TaskStatusScheduled)}, nil
}

// MapEvent produces a task that completes immediately, carrying the resolved input forward as
// its output — EVENT tasks exist to publish a payload onto an event bus (out of core scope) and
// have no worker-held execution phase.
func MapEvent(ctx Context) ([]*model.TaskInstance, error) {
	task := newBaseTask(ctx, model.TaskStatusCompleted)
	task.Output = ctx.ResolvedInput
	task.Executed = false // the decider still needs to run getNextTask over it
	return []*model.TaskInstance{task}, nil
}

// MapDecision evaluates WorkflowTask.CaseValueParam against ResolvedInput, selects the matching
// branch (or DefaultCase), recursively maps that branch's first task, and marks the decision
// instance HasChildren so getNextTask (4.D.v) does not also treat it as a linear predecessor.
func MapDecision(ctx Context) ([]*model.TaskInstance, error) {
	decisionTask := newBaseTask(ctx, model.TaskStatusCompleted)

	caseValue := fmt.Sprintf("%v", ctx.ResolvedInput[ctx.WorkflowTask.CaseValueParam])
	branch, ok := ctx.WorkflowTask.DecisionCases[caseValue]
	if !ok {
		branch = ctx.WorkflowTask.DefaultCase
	}

	out := []*model.TaskInstance{decisionTask}
	if len(branch) > 0 {
		children, err := ctx.MapRecursive(branch[0], ctx.ResolvedInput)
		if err != nil {
			return nil, fmt.Errorf("mapping decision branch %q: %w", branch[0].TaskReferenceName, err)
		}
		out = append(out, children...)
		decisionTask.HasChildren = true
	}
	decisionTask.Output = map[string]interface{}{"caseValue": caseValue}
	return out, nil
}

// MapFork produces the fork marker (COMPLETED — forking is instantaneous) followed by the first
// task of every static parallel branch, recursively mapped.
func MapFork(ctx Context) ([]*model.TaskInstance, error) {
	forkTask := newBaseTask(ctx, model.TaskStatusCompleted)
	out := []*model.TaskInstance{forkTask}

	for _, branch := range ctx.WorkflowTask.ForkTasks {
		if len(branch) == 0 {
			continue
		}
		children, err := ctx.MapRecursive(branch[0], ctx.ResolvedInput)
		if err != nil {
			return nil, fmt.Errorf("mapping fork branch %q: %w", branch[0].TaskReferenceName, err)
		}
		out = append(out, children...)
	}
	return out, nil
}

// MapForkJoinDynamic resolves the runtime fan-out list from
// ResolvedInput[WorkflowTask.DynamicForkTasksParam] — a list of {referenceName, taskDefName,
// input} specs — and maps each as an ad hoc user-defined task. It returns the fork marker
// followed by every dynamically generated branch task.
func MapForkJoinDynamic(ctx Context) ([]*model.TaskInstance, error) {
	forkTask := newBaseTask(ctx, model.TaskStatusCompleted)
	out := []*model.TaskInstance{forkTask}

	specs, _ := ctx.ResolvedInput[ctx.WorkflowTask.DynamicForkTasksParam].([]interface{})
	generatedRefNames := make([]string, 0, len(specs))

	for _, raw := range specs {
		spec, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		refName, _ := spec["referenceName"].(string)
		taskDefName, _ := spec["taskDefName"].(string)
		specInput, _ := spec["input"].(map[string]interface{})
		if refName == "" {
			continue
		}

		dynWT := &model.WorkflowTask{
			Name:              refName,
			TaskReferenceName: refName,
			Type:              model.TaskTypeUserDefined,
			TaskDefName:       taskDefName,
		}
		children, err := ctx.MapRecursive(dynWT, specInput)
		if err != nil {
			return nil, fmt.Errorf("mapping dynamic fork branch %q: %w", refName, err)
		}
		out = append(out, children...)
		generatedRefNames = append(generatedRefNames, refName)
	}

	forkTask.Output = map[string]interface{}{"generatedRefNames": generatedRefNames}
	return out, nil
}

// MapJoin produces the join marker as IN_PROGRESS; it stays non-terminal (a system task, so the
// decider re-seeds it on every decide call per 4.D step 8a) until the decider's join-completion
// check observes every WorkflowTask.JoinOn reference terminal; it then becomes COMPLETED, or FAILED
// if any joined reference was unsuccessful.
func MapJoin(ctx Context) ([]*model.TaskInstance, error) {
	joinTask := newBaseTask(ctx, model.TaskStatusInProgress)
	return []*model.TaskInstance{joinTask}, nil
}
