package decider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/mapper"
	"github.com/conductor-oss/decider-go/model"
)

type fakeQueue struct {
	present map[string]bool
}

func (f *fakeQueue) Exists(queueName, taskID string) bool {
	if f == nil || f.present == nil {
		return false
	}
	return f.present[queueName+"/"+taskID]
}

type fakePayload struct{}

func (fakePayload) Download(string) (map[string]interface{}, error) { return map[string]interface{}{}, nil }
func (fakePayload) VerifyAndUpload(string, model.PayloadKind, *map[string]interface{}, *string) error {
	return nil
}

type recordingMetrics struct {
	timeouts []string // "taskType|policy"
}

func (r *recordingMetrics) IncPoll(string, int)    {}
func (r *recordingMetrics) IncRequeue(string, int) {}
func (r *recordingMetrics) IncTimeout(taskType string, policy string) {
	r.timeouts = append(r.timeouts, taskType+"|"+policy)
}
func (r *recordingMetrics) RecordPayloadOp(string, string, model.PayloadKind) {}

func sequentialIDs() mapper.IDGenerator {
	n := 0
	return func() string {
		n++
		return "t" + string(rune('0'+n))
	}
}

func newTestDecider(taskDefs map[string]*model.TaskDef, now time.Time) *Decider {
	d := New(mapper.NewRegistry(), &fakeQueue{}, fakePayload{}, func(name string) *model.TaskDef {
		return taskDefs[name]
	}, sequentialIDs(), nil)
	d.Now = func() time.Time { return now }
	return d
}

func linearWD() *model.WorkflowDef {
	return &model.WorkflowDef{
		Name:    "linear",
		Version: 1,
		Tasks: []*model.WorkflowTask{
			{Name: "A", TaskReferenceName: "A", Type: model.TaskTypeUserDefined, TaskDefName: "tdA"},
			{Name: "B", TaskReferenceName: "B", Type: model.TaskTypeUserDefined, TaskDefName: "tdB"},
		},
	}
}

func TestDecide_S1_LinearHappyPath(t *testing.T) {
	wd := linearWD()
	w := &model.WorkflowInstance{ID: "wf-1", Status: model.WorkflowStatusRunning}
	d := newTestDecider(nil, time.Now())

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	assert.Equal(t, "A", outcome.TasksToBeScheduled[0].ReferenceTaskName)
	assert.False(t, outcome.IsComplete)

	a := outcome.TasksToBeScheduled[0]
	a.Status = model.TaskStatusCompleted
	w.Tasks = append(w.Tasks, a)

	outcome, err = d.Decide(w, wd)
	require.NoError(t, err)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	assert.Equal(t, "B", outcome.TasksToBeScheduled[0].ReferenceTaskName)
	require.Len(t, outcome.TasksToBeUpdated, 1)
	assert.True(t, outcome.TasksToBeUpdated[0].Executed)

	b := outcome.TasksToBeScheduled[0]
	b.Status = model.TaskStatusCompleted
	w.Tasks = append(w.Tasks, b)

	outcome, err = d.Decide(w, wd)
	require.NoError(t, err)
	assert.Empty(t, outcome.TasksToBeScheduled)
	assert.True(t, outcome.IsComplete)
}

func TestDecide_S2_RetryWithExponentialBackoff(t *testing.T) {
	wd := &model.WorkflowDef{
		Name: "retry-wf",
		Tasks: []*model.WorkflowTask{
			{Name: "A", TaskReferenceName: "A", Type: model.TaskTypeUserDefined, TaskDefName: "tdA"},
		},
	}
	taskDefs := map[string]*model.TaskDef{
		"tdA": {Name: "tdA", RetryCount: 2, RetryLogic: model.RetryLogicExponentialBackoff, RetryDelaySeconds: 5},
	}
	d := newTestDecider(taskDefs, time.Now())
	w := &model.WorkflowInstance{ID: "wf-2", Status: model.WorkflowStatusRunning}

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	a := outcome.TasksToBeScheduled[0]
	a.Status = model.TaskStatusFailed
	w.Tasks = append(w.Tasks, a)

	outcome, err = d.Decide(w, wd)
	require.NoError(t, err)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	a1 := outcome.TasksToBeScheduled[0]
	assert.Equal(t, 5, a1.StartDelaySeconds)
	assert.Equal(t, 1, a1.RetryCount)
	assert.Equal(t, a.TaskID, a1.RetriedTaskID)
	assert.True(t, a.Retried)
	a1.Status = model.TaskStatusFailed
	w.Tasks = append(w.Tasks, a1)

	outcome, err = d.Decide(w, wd)
	require.NoError(t, err)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	a2 := outcome.TasksToBeScheduled[0]
	assert.Equal(t, 10, a2.StartDelaySeconds)
	assert.Equal(t, 2, a2.RetryCount)
	a2.Status = model.TaskStatusFailed
	w.Tasks = append(w.Tasks, a2)

	_, err = d.Decide(w, wd)
	require.Error(t, err)
	var term *corerrors.TerminateWorkflowError
	require.ErrorAs(t, err, &term)
	assert.Equal(t, model.WorkflowStatusFailed, term.Status)
}

func TestDecide_S3_OptionalTaskFailureContinuesToNext(t *testing.T) {
	wd := &model.WorkflowDef{
		Name: "optional-wf",
		Tasks: []*model.WorkflowTask{
			{Name: "A", TaskReferenceName: "A", Type: model.TaskTypeUserDefined, Optional: true},
			{Name: "B", TaskReferenceName: "B", Type: model.TaskTypeUserDefined, TaskDefName: "tdB"},
		},
	}
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{ID: "wf-3", Status: model.WorkflowStatusRunning}

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	a := outcome.TasksToBeScheduled[0]
	a.Status = model.TaskStatusFailed
	w.Tasks = append(w.Tasks, a)

	outcome, err = d.Decide(w, wd)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompletedWithErrs, a.Status)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	assert.Equal(t, "B", outcome.TasksToBeScheduled[0].ReferenceTaskName)
}

func TestDecide_S4_ResponseTimeoutSuppressedWhileQueued(t *testing.T) {
	wd := &model.WorkflowDef{
		Name: "rt-wf",
		Tasks: []*model.WorkflowTask{
			{Name: "A", TaskReferenceName: "A", Type: model.TaskTypeUserDefined, TaskDefName: "tdA"},
		},
	}
	taskDefs := map[string]*model.TaskDef{
		"tdA": {Name: "tdA", ResponseTimeoutSecs: 1},
	}
	now := time.Now()
	d := newTestDecider(taskDefs, now)
	d.Queue = &fakeQueue{present: map[string]bool{"tdA/task-a": true}}

	w := &model.WorkflowInstance{ID: "wf-4", Status: model.WorkflowStatusRunning}
	a := &model.TaskInstance{
		TaskID:            "task-a",
		ReferenceTaskName: "A",
		TaskDefName:       "tdA",
		TaskType:          model.TaskTypeUserDefined,
		Status:            model.TaskStatusInProgress,
		UpdateTime:        now.Add(-5 * time.Second),
	}
	w.Tasks = append(w.Tasks, a)

	_, err := d.Decide(w, wd)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, a.Status)
}

func TestDecide_S5_DecisionHasChildrenNotDuplicated(t *testing.T) {
	branchA := &model.WorkflowTask{Name: "branchA", TaskReferenceName: "branchA", Type: model.TaskTypeUserDefined}
	wd := &model.WorkflowDef{
		Name: "decision-wf",
		Tasks: []*model.WorkflowTask{
			{
				Name: "D", TaskReferenceName: "D", Type: model.TaskTypeDecision,
				CaseValueParam: "choice",
				DecisionCases:  map[string][]*model.WorkflowTask{"x": {branchA}},
			},
			branchA,
		},
	}
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{ID: "wf-5", Status: model.WorkflowStatusRunning}
	decisionTask := &model.TaskInstance{
		TaskID:            "task-d",
		ReferenceTaskName: "D",
		TaskType:          model.TaskTypeDecision,
		Status:            model.TaskStatusCompleted,
		HasChildren:       true,
		Input:             map[string]interface{}{},
	}
	branchTask := &model.TaskInstance{
		TaskID:            "task-branchA",
		ReferenceTaskName: "branchA",
		TaskType:          model.TaskTypeUserDefined,
		Status:            model.TaskStatusScheduled,
	}
	w.Tasks = append(w.Tasks, decisionTask, branchTask)

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	for _, s := range outcome.TasksToBeScheduled {
		assert.NotEqual(t, "branchA", s.ReferenceTaskName)
	}
}

func TestDecide_S6_Rerun(t *testing.T) {
	wd := linearWD()
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{
		ID:                  "wf-6",
		Status:              model.WorkflowStatusRunning,
		RerunFromWorkflowID: "wf-original",
	}
	readyTask := &model.TaskInstance{
		TaskID:            "task-a-rerun",
		ReferenceTaskName: "A",
		TaskType:          model.TaskTypeUserDefined,
		Status:            model.TaskStatusReadyForRerun,
	}
	w.Tasks = append(w.Tasks, readyTask)

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	require.Len(t, outcome.TasksToBeScheduled, 1)
	assert.Equal(t, model.TaskStatusScheduled, readyTask.Status)
	assert.True(t, readyTask.Retried)
	assert.Equal(t, 0, readyTask.RetryCount)
}

func TestDecide_Purity_NoMutationYieldsEqualOutcome(t *testing.T) {
	wd := linearWD()
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{ID: "wf-7", Status: model.WorkflowStatusRunning}

	first, err := d.Decide(w, wd)
	require.NoError(t, err)

	w2 := &model.WorkflowInstance{ID: "wf-7", Status: model.WorkflowStatusRunning}
	d2 := newTestDecider(nil, d.Now())
	second, err := d2.Decide(w2, wd)
	require.NoError(t, err)

	require.Len(t, first.TasksToBeScheduled, 1)
	require.Len(t, second.TasksToBeScheduled, 1)
	assert.Equal(t, first.TasksToBeScheduled[0].ReferenceTaskName, second.TasksToBeScheduled[0].ReferenceTaskName)
	assert.Equal(t, first.IsComplete, second.IsComplete)
}

func TestDecide_Monotonicity_ExecutedTaskNeverReappears(t *testing.T) {
	wd := linearWD()
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{ID: "wf-8", Status: model.WorkflowStatusRunning}

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	a := outcome.TasksToBeScheduled[0]
	a.Status = model.TaskStatusCompleted
	w.Tasks = append(w.Tasks, a)

	outcome, err = d.Decide(w, wd)
	require.NoError(t, err)
	assert.True(t, a.Executed)
	for _, s := range outcome.TasksToBeScheduled {
		assert.NotEqual(t, a.ReferenceTaskName, s.ReferenceTaskName)
	}
	for _, u := range outcome.TasksToBeUpdated {
		if u.ReferenceTaskName == a.ReferenceTaskName {
			return
		}
	}
}

func TestDecide_AlertOnlyTimeoutEmitsMetricWithoutChangingTaskStatus(t *testing.T) {
	wd := &model.WorkflowDef{
		Name: "alert-wf",
		Tasks: []*model.WorkflowTask{
			{Name: "A", TaskReferenceName: "A", Type: model.TaskTypeUserDefined, TaskDefName: "tdA"},
		},
	}
	taskDefs := map[string]*model.TaskDef{
		"tdA": {Name: "tdA", TimeoutSeconds: 5, TimeoutPolicy: model.TimeoutPolicyAlertOnly},
	}
	now := time.Now()
	d := newTestDecider(taskDefs, now)
	rec := &recordingMetrics{}
	d.Metrics = rec

	w := &model.WorkflowInstance{ID: "wf-alert", Status: model.WorkflowStatusRunning}
	a := &model.TaskInstance{
		TaskID:            "task-a",
		ReferenceTaskName: "A",
		TaskDefName:       "tdA",
		TaskType:          model.TaskTypeUserDefined,
		Status:            model.TaskStatusInProgress,
		StartTime:         now.Add(-10 * time.Second),
	}
	w.Tasks = append(w.Tasks, a)

	_, err := d.Decide(w, wd)
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusInProgress, a.Status, "ALERT_ONLY must not change task state")
	require.Len(t, rec.timeouts, 1)
	assert.Equal(t, "tdA|ALERT_ONLY", rec.timeouts[0])
}

func TestDecide_PausedWorkflowReturnsEmptyOutcome(t *testing.T) {
	wd := linearWD()
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{ID: "wf-9", Status: model.WorkflowStatusPaused}

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	assert.Empty(t, outcome.TasksToBeScheduled)
	assert.Empty(t, outcome.TasksToBeUpdated)
}

func TestDecide_TerminalWorkflowReturnsEmptyOutcome(t *testing.T) {
	wd := linearWD()
	d := newTestDecider(nil, time.Now())
	w := &model.WorkflowInstance{ID: "wf-10", Status: model.WorkflowStatusCompleted}

	outcome, err := d.Decide(w, wd)
	require.NoError(t, err)
	assert.Empty(t, outcome.TasksToBeScheduled)
}
