package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-oss/decider-go/model"
)

func TestMemMetadataStore_PutAndGetWorkflowDef(t *testing.T) {
	s := NewMemMetadataStore()
	ctx := context.Background()
	wd := &model.WorkflowDef{Name: "wf", Version: 2}

	require.NoError(t, s.PutWorkflowDef(ctx, wd))

	got, err := s.GetWorkflowDef(ctx, "wf", 2)
	require.NoError(t, err)
	assert.Same(t, wd, got)
}

func TestMemMetadataStore_GetUnknownWorkflowDefReturnsNotFound(t *testing.T) {
	s := NewMemMetadataStore()

	_, err := s.GetWorkflowDef(context.Background(), "missing", 1)

	require.Error(t, err)
}

func TestMemMetadataStore_PutAndGetTaskDef(t *testing.T) {
	s := NewMemMetadataStore()
	ctx := context.Background()
	td := &model.TaskDef{Name: "td1", RetryCount: 3}

	require.NoError(t, s.PutTaskDef(ctx, td))

	got, err := s.GetTaskDef(ctx, "td1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.RetryCount)
}

func TestMemExecutionStore_ListRunningWorkflowsFiltersByStatus(t *testing.T) {
	s := NewMemExecutionStore()
	ctx := context.Background()

	require.NoError(t, s.PutWorkflow(ctx, &model.WorkflowInstance{ID: "running-1", Status: model.WorkflowStatusRunning}))
	require.NoError(t, s.PutWorkflow(ctx, &model.WorkflowInstance{ID: "done-1", Status: model.WorkflowStatusCompleted}))

	running, err := s.ListRunningWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "running-1", running[0].ID)
}

func TestMemExecutionStore_GetTaskUnknownReturnsNilNoError(t *testing.T) {
	s := NewMemExecutionStore()

	task, err := s.GetTask(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestMemExecutionStore_InProgressCountCountsOnlyMatchingTaskDefAndStatus(t *testing.T) {
	s := NewMemExecutionStore()
	ctx := context.Background()

	require.NoError(t, s.PutTask(ctx, &model.TaskInstance{TaskID: "t1", TaskDefName: "tdA", Status: model.TaskStatusInProgress}))
	require.NoError(t, s.PutTask(ctx, &model.TaskInstance{TaskID: "t2", TaskDefName: "tdA", Status: model.TaskStatusInProgress}))
	require.NoError(t, s.PutTask(ctx, &model.TaskInstance{TaskID: "t3", TaskDefName: "tdA", Status: model.TaskStatusCompleted}))
	require.NoError(t, s.PutTask(ctx, &model.TaskInstance{TaskID: "t4", TaskDefName: "tdB", Status: model.TaskStatusInProgress}))

	assert.Equal(t, 2, s.InProgressCount("tdA"))
	assert.Equal(t, 1, s.InProgressCount("tdB"))
	assert.Equal(t, 0, s.InProgressCount("tdC"))
}

func TestMemIndexStore_SearchWorkflowsFiltersByQueryAndCapsAtMaxSize(t *testing.T) {
	executions := NewMemExecutionStore()
	ctx := context.Background()
	require.NoError(t, executions.PutWorkflow(ctx, &model.WorkflowInstance{ID: "wf-order-1", WorkflowName: "order"}))
	require.NoError(t, executions.PutWorkflow(ctx, &model.WorkflowInstance{ID: "wf-order-2", WorkflowName: "order"}))
	require.NoError(t, executions.PutWorkflow(ctx, &model.WorkflowInstance{ID: "wf-refund-1", WorkflowName: "refund"}))

	idx := NewMemIndexStore(executions)

	all, err := idx.SearchWorkflows(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	orders, err := idx.SearchWorkflows(ctx, "order", 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	capped, err := idx.SearchWorkflows(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}
