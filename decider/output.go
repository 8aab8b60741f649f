package decider

import (
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/resolver"
)

// updateWorkflowOutput implements 4.D.vii. lastTask may be nil, in which case the last task in
// w.Tasks (by slice order) stands in for it.
func (d *Decider) updateWorkflowOutput(w *model.WorkflowInstance, wd *model.WorkflowDef, lastTask *model.TaskInstance) error {
	if len(w.Tasks) == 0 {
		return nil
	}
	last := lastTask
	if last == nil {
		last = w.Tasks[len(w.Tasks)-1]
	}

	var output map[string]interface{}

	switch {
	case len(wd.OutputParameters) > 0:
		ctx := resolver.Context{
			WorkflowInput:  w.Input,
			WorkflowFields: map[string]interface{}{"workflowId": w.ID, "status": string(w.Status)},
			Tasks:          ioContextFor(w),
		}
		output = resolver.ResolveV2(wd.OutputParameters, ctx)
	case last.ExternalOutputPath != "":
		if d.Payload == nil {
			return nil
		}
		downloaded, err := d.Payload.Download(last.ExternalOutputPath)
		if err != nil {
			return err
		}
		output = downloaded
	default:
		output = last.Output
	}

	w.Output = output
	w.ExternalOutputPath = ""

	if d.Payload != nil {
		if err := d.Payload.VerifyAndUpload(w.ID, model.PayloadKindWorkflowOutput, &w.Output, &w.ExternalOutputPath); err != nil {
			return err
		}
	}

	return nil
}
