// Package mapper implements the Task Mapper Registry (4.A): given a workflow-task template, it
// materializes one or more concrete TaskInstances. Dispatch is a tagged-variant lookup by
// model.TaskType, the same shape the teacher's decisionsHelper uses to dispatch by decisionType,
// rather than a class hierarchy.
package mapper

import (
	"fmt"

	"github.com/conductor-oss/decider-go/model"
)

// IDGenerator produces a globally unique task id for a newly materialized TaskInstance.
type IDGenerator func() string

// Context is the full input to a single mapper invocation (4.A).
type Context struct {
	WorkflowDef   *model.WorkflowDef
	Workflow      *model.WorkflowInstance
	TaskDef       *model.TaskDef // nil for pure system tasks with no backing TaskDef
	WorkflowTask  *model.WorkflowTask
	ResolvedInput map[string]interface{}
	RetryCount    int
	RetriedTaskID string // predecessor task id, empty unless this is a retry

	NewTaskID   IDGenerator
	MapRecursive func(wt *model.WorkflowTask, resolvedInput map[string]interface{}) ([]*model.TaskInstance, error)
}

// Mapper materializes zero or more TaskInstances for a workflow-task template. A mapper must be
// deterministic given its Context and must never mutate ctx.Workflow.
type Mapper func(ctx Context) ([]*model.TaskInstance, error)

// Registry dispatches to a Mapper by model.TaskType. It is built once at construction and closed
// over the set of supported tags, mirroring the teacher's decisionsHelper constructor family.
type Registry struct {
	mappers map[model.TaskType]Mapper
}

// NewRegistry returns a Registry pre-populated with the built-in system and user-defined mappers.
func NewRegistry() *Registry {
	r := &Registry{mappers: make(map[model.TaskType]Mapper)}
	r.Register(model.TaskTypeUserDefined, MapUserDefined)
	r.Register(model.TaskTypeDecision, MapDecision)
	r.Register(model.TaskTypeFork, MapFork)
	r.Register(model.TaskTypeForkJoinDynamic, MapForkJoinDynamic)
	r.Register(model.TaskTypeJoin, MapJoin)
	r.Register(model.TaskTypeSubWorkflow, MapSubWorkflow)
	r.Register(model.TaskTypeWait, MapWait)
	r.Register(model.TaskTypeEvent, MapEvent)
	return r
}

// Register installs or overrides the Mapper for taskType.
func (r *Registry) Register(taskType model.TaskType, m Mapper) {
	r.mappers[taskType] = m
}

// Map dispatches ctx to the Mapper registered for ctx.WorkflowTask.Type.
func (r *Registry) Map(ctx Context) ([]*model.TaskInstance, error) {
	m, ok := r.mappers[ctx.WorkflowTask.Type]
	if !ok {
		return nil, fmt.Errorf("no task mapper registered for type %q", ctx.WorkflowTask.Type)
	}
	return m(ctx)
}

// newBaseTask builds the common TaskInstance fields shared by every mapper.
func newBaseTask(ctx Context, status model.TaskStatus) *model.TaskInstance {
	return &model.TaskInstance{
		TaskID:               ctx.NewTaskID(),
		ReferenceTaskName:    ctx.WorkflowTask.TaskReferenceName,
		TaskDefName:          ctx.WorkflowTask.TaskDefName,
		TaskType:             ctx.WorkflowTask.Type,
		Status:               status,
		Input:                ctx.ResolvedInput,
		Output:               map[string]interface{}{},
		RetryCount:           ctx.RetryCount,
		RetriedTaskID:        ctx.RetriedTaskID,
		StartDelaySeconds:    0,
		CallbackAfterSeconds: 0,
	}
}
