package decider

import (
	"github.com/conductor-oss/decider-go/mapper"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/resolver"
)

// getNextTask implements 4.D.v. A DECISION system task whose branch has already been produced
// (HasChildren) yields nothing further; otherwise it walks WD forward from t's reference name,
// skipping any template whose corresponding instance is SKIPPED, and maps the first one found.
func (d *Decider) getNextTask(wd *model.WorkflowDef, w *model.WorkflowInstance, t *model.TaskInstance) ([]*model.TaskInstance, error) {
	if t.TaskType == model.TaskTypeDecision && t.HasChildren {
		return nil, nil
	}

	refName := t.ReferenceTaskName
	for {
		next := wd.NextTaskRefName(refName)
		if next == "" {
			return nil, nil
		}
		if existing := w.TaskByRefName(next); existing != nil && existing.Status == model.TaskStatusSkipped {
			refName = next
			continue
		}
		wt := wd.TaskByRefName(next)
		if wt == nil {
			return nil, nil
		}
		return d.mapTask(wd, w, wt, w.Input)
	}
}

// mapTask resolves wt's input parameters (per wd.SchemaVersion) and dispatches to the mapper
// registry, wiring MapRecursive back into mapTask itself so system-task mappers (DECISION, FORK,
// FORK_JOIN_DYNAMIC) can expand nested branches without reimplementing resolution.
func (d *Decider) mapTask(wd *model.WorkflowDef, w *model.WorkflowInstance, wt *model.WorkflowTask, parentInput map[string]interface{}) ([]*model.TaskInstance, error) {
	resolvedInput := d.resolveTaskInput(wd, w, wt, parentInput)

	var td *model.TaskDef
	if wt.TaskDefName != "" && d.TaskDefs != nil {
		td = d.TaskDefs(wt.TaskDefName)
	}

	ctx := mapper.Context{
		WorkflowDef:   wd,
		Workflow:      w,
		TaskDef:       td,
		WorkflowTask:  wt,
		ResolvedInput: resolvedInput,
		NewTaskID:     d.NewTaskID,
		MapRecursive: func(child *model.WorkflowTask, input map[string]interface{}) ([]*model.TaskInstance, error) {
			return d.mapTask(wd, w, child, input)
		},
	}

	tasks, err := d.Mappers.Map(ctx)
	if err != nil {
		return nil, err
	}

	if d.Payload != nil {
		for _, task := range tasks {
			if err := d.Payload.VerifyAndUpload(task.TaskID, model.PayloadKindTaskInput, &task.Input, &task.ExternalInputPath); err != nil {
				return nil, err
			}
		}
	}

	return tasks, nil
}

func (d *Decider) resolveTaskInput(wd *model.WorkflowDef, w *model.WorkflowInstance, wt *model.WorkflowTask, parentInput map[string]interface{}) map[string]interface{} {
	ctx := resolver.Context{
		WorkflowInput:  w.Input,
		WorkflowFields: map[string]interface{}{"workflowId": w.ID, "status": string(w.Status)},
		Tasks:          ioContextFor(w),
	}
	if len(wt.InputParameters) == 0 {
		return parentInput
	}
	return resolver.Resolve(wd.SchemaVersion, wt.InputParameters, ctx)
}
