// Package store defines the three persistence abstractions the Decider's caller and the Execution
// Service depend on (§1's explicit out-of-core collaborators) plus in-memory reference adapters
// for tests and the standalone executable: MetadataStore (workflow/task definitions),
// ExecutionStore (running instances), and IndexStore (search/list, a thin passthrough per 4.F).
package store

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/conductor-oss/decider-go/corerrors"
	"github.com/conductor-oss/decider-go/model"
)

// MetadataStore resolves workflow and task definitions.
type MetadataStore interface {
	GetWorkflowDef(ctx context.Context, name string, version int) (*model.WorkflowDef, error)
	GetTaskDef(ctx context.Context, name string) (*model.TaskDef, error)
	PutWorkflowDef(ctx context.Context, wd *model.WorkflowDef) error
	PutTaskDef(ctx context.Context, td *model.TaskDef) error
}

// ExecutionStore holds running/terminal workflow and task instances, read-your-writes per
// workflow id (§5's shared-resource policy).
type ExecutionStore interface {
	GetWorkflow(ctx context.Context, id string) (*model.WorkflowInstance, error)
	PutWorkflow(ctx context.Context, w *model.WorkflowInstance) error
	GetTask(ctx context.Context, id string) (*model.TaskInstance, error)
	PutTask(ctx context.Context, t *model.TaskInstance) error
	ListRunningWorkflows(ctx context.Context) ([]*model.WorkflowInstance, error)
}

// IndexStore backs search/list operations; a thin passthrough per 4.F ("not part of the hard
// core"). SearchWorkflows caps its result at maxSize (the `workflow.max_search_size` config key).
type IndexStore interface {
	SearchWorkflows(ctx context.Context, query string, maxSize int) ([]string, error)
}

// MemMetadataStore is an in-memory MetadataStore.
type MemMetadataStore struct {
	mu          sync.RWMutex
	workflowDef map[string]*model.WorkflowDef // keyed by "name@version"
	taskDef     map[string]*model.TaskDef
}

// NewMemMetadataStore returns an empty MemMetadataStore.
func NewMemMetadataStore() *MemMetadataStore {
	return &MemMetadataStore{
		workflowDef: make(map[string]*model.WorkflowDef),
		taskDef:     make(map[string]*model.TaskDef),
	}
}

func wdKey(name string, version int) string {
	return name + "@" + strconv.Itoa(version)
}

func (s *MemMetadataStore) GetWorkflowDef(_ context.Context, name string, version int) (*model.WorkflowDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wd, ok := s.workflowDef[wdKey(name, version)]
	if !ok {
		return nil, corerrors.NewNotFound("workflow definition", wdKey(name, version))
	}
	return wd, nil
}

func (s *MemMetadataStore) PutWorkflowDef(_ context.Context, wd *model.WorkflowDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflowDef[wdKey(wd.Name, wd.Version)] = wd
	return nil
}

func (s *MemMetadataStore) GetTaskDef(_ context.Context, name string) (*model.TaskDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.taskDef[name]
	if !ok {
		return nil, corerrors.NewNotFound("task definition", name)
	}
	return td, nil
}

func (s *MemMetadataStore) PutTaskDef(_ context.Context, td *model.TaskDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskDef[td.Name] = td
	return nil
}

// MemExecutionStore is an in-memory ExecutionStore.
type MemExecutionStore struct {
	mu        sync.RWMutex
	workflows map[string]*model.WorkflowInstance
	tasks     map[string]*model.TaskInstance
}

// NewMemExecutionStore returns an empty MemExecutionStore.
func NewMemExecutionStore() *MemExecutionStore {
	return &MemExecutionStore{
		workflows: make(map[string]*model.WorkflowInstance),
		tasks:     make(map[string]*model.TaskInstance),
	}
}

func (s *MemExecutionStore) GetWorkflow(_ context.Context, id string) (*model.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, corerrors.NewNotFound("workflow", id)
	}
	return w, nil
}

func (s *MemExecutionStore) PutWorkflow(_ context.Context, w *model.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[w.ID] = w
	return nil
}

func (s *MemExecutionStore) GetTask(_ context.Context, id string) (*model.TaskInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks[id], nil
}

func (s *MemExecutionStore) PutTask(_ context.Context, t *model.TaskInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.TaskID] = t
	return nil
}

func (s *MemExecutionStore) ListRunningWorkflows(_ context.Context) ([]*model.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.WorkflowInstance
	for _, w := range s.workflows {
		if w.Status == model.WorkflowStatusRunning {
			out = append(out, w)
		}
	}
	return out, nil
}

// InProgressCount satisfies execution.ConcurrencyLimiter: the number of tasks for taskDefName
// currently held by a worker (4.F back-pressure).
func (s *MemExecutionStore) InProgressCount(taskDefName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, t := range s.tasks {
		if t.TaskDefName == taskDefName && t.Status == model.TaskStatusInProgress {
			count++
		}
	}
	return count
}

// MemIndexStore is an in-memory IndexStore: a linear scan over an ExecutionStore's workflows,
// matching query against the workflow name and id. Good enough for the reference executable and
// tests; a real deployment would back this with an actual search index instead.
type MemIndexStore struct {
	workflows *MemExecutionStore
}

// NewMemIndexStore builds a MemIndexStore over an existing MemExecutionStore, so search sees
// whatever workflows the execution store already holds.
func NewMemIndexStore(workflows *MemExecutionStore) *MemIndexStore {
	return &MemIndexStore{workflows: workflows}
}

// SearchWorkflows returns up to maxSize workflow ids whose name or id contains query. An empty
// query matches everything.
func (s *MemIndexStore) SearchWorkflows(_ context.Context, query string, maxSize int) ([]string, error) {
	s.workflows.mu.RLock()
	defer s.workflows.mu.RUnlock()

	var out []string
	for _, w := range s.workflows.workflows {
		if query != "" && !strings.Contains(w.WorkflowName, query) && !strings.Contains(w.ID, query) {
			continue
		}
		out = append(out, w.ID)
		if maxSize > 0 && len(out) >= maxSize {
			break
		}
	}
	return out, nil
}
