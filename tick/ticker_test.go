package tick

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-oss/decider-go/decider"
	"github.com/conductor-oss/decider-go/execution"
	"github.com/conductor-oss/decider-go/mapper"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/queue"
	"github.com/conductor-oss/decider-go/store"
)

type fakePayload struct{}

func (fakePayload) Download(string) (map[string]interface{}, error) { return nil, nil }
func (fakePayload) VerifyAndUpload(string, model.PayloadKind, *map[string]interface{}, *string) error {
	return nil
}

type recordingApplier struct {
	applied int
}

func (a *recordingApplier) Apply(context.Context, *model.WorkflowInstance, decider.Outcome) error {
	a.applied++
	return nil
}

func newTestTicker(t *testing.T, workflows store.ExecutionStore, wd *model.WorkflowDef, apply OutcomeApplier) *Ticker {
	t.Helper()
	q := queue.NewMemQueue()
	ids := 0
	d := decider.New(mapper.NewRegistry(), q, fakePayload{}, func(string) *model.TaskDef { return nil }, func() string {
		ids++
		return "gen-task"
	}, nil)

	execStore := store.NewMemExecutionStore()
	svc := execution.New(q, execStore, workflows.(execution.WorkflowLister), nil)

	defs := func(context.Context, string, int) (*model.WorkflowDef, error) { return wd, nil }

	return New(d, svc, workflows, defs, apply, nil)
}

func TestTicker_RunDecideSweep_AppliesOutcomeForEachRunningWorkflow(t *testing.T) {
	execStore := store.NewMemExecutionStore()
	ctx := context.Background()

	wd := &model.WorkflowDef{
		Name:    "wf",
		Version: 1,
		Tasks: []*model.WorkflowTask{
			{Name: "t1", TaskReferenceName: "t1", Type: model.TaskTypeUserDefined, TaskDefName: "td1"},
		},
	}
	w := &model.WorkflowInstance{ID: "w1", WorkflowName: "wf", Version: 1, Status: model.WorkflowStatusRunning}
	require.NoError(t, execStore.PutWorkflow(ctx, w))

	applier := &recordingApplier{}
	tk := newTestTicker(t, execStore, wd, applier)

	tk.runDecideSweep(ctx)

	assert.Equal(t, 1, applier.applied)
}

func TestTicker_RunRequeueSweep_DoesNotPanicWithNoWorkflows(t *testing.T) {
	execStore := store.NewMemExecutionStore()
	wd := &model.WorkflowDef{Name: "wf", Version: 1}
	tk := newTestTicker(t, execStore, wd, &recordingApplier{})

	tk.runRequeueSweep(context.Background())
}

func TestScheduleDecideSweep_RejectsInvalidCronSpec(t *testing.T) {
	execStore := store.NewMemExecutionStore()
	wd := &model.WorkflowDef{Name: "wf", Version: 1}
	tk := newTestTicker(t, execStore, wd, &recordingApplier{})

	err := tk.ScheduleDecideSweep("not a cron spec")

	require.Error(t, err)
}
