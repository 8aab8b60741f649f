package model

// WorkflowTask is a single node in a WorkflowDef (WT in §3): a template, not a running attempt.
type WorkflowTask struct {
	Name              string         // template name; TaskReferenceName is the unique reference within the WorkflowDef
	TaskReferenceName string         // correlates TaskInstance back to this template
	Type              TaskType
	TaskDefName       string         // name of the TaskDef to load, empty for pure system tasks
	InputParameters   map[string]interface{}
	Next              string // declared successor reference; NextTaskRefName does not read it and follows definition order
	Optional          bool
	JoinOn            []string // reference names this JOIN waits on (TaskTypeJoin)
	ForkTasks         [][]*WorkflowTask // static parallel branches (TaskTypeFork)
	DynamicForkTasksParam string        // input key holding the runtime fan-out list (TaskTypeForkJoinDynamic)

	// DECISION support: CaseValueParam names the resolved-input key holding the case value;
	// DecisionCases maps a case value to the branch of WorkflowTasks to run; DefaultCase runs
	// when no case matches.
	CaseValueParam string
	DecisionCases  map[string][]*WorkflowTask
	DefaultCase    []*WorkflowTask
}

// WorkflowDef is the parsed, ordered workflow definition the Decider evaluates against (WD).
type WorkflowDef struct {
	Name             string
	Version          int
	SchemaVersion    int
	Tasks            []*WorkflowTask
	OutputParameters map[string]interface{}
}

// TaskByRefName returns the WorkflowTask with the given reference name, or nil.
func (wd *WorkflowDef) TaskByRefName(refName string) *WorkflowTask {
	for _, t := range wd.Tasks {
		if t.TaskReferenceName == refName {
			return t
		}
	}
	return nil
}

// NextTaskRefName returns the reference name immediately following refName in definition order,
// or "" if refName is last or not found. It does not account for SKIPPED templates; callers that
// need skip-aware traversal use getNextTask in the decider package.
func (wd *WorkflowDef) NextTaskRefName(refName string) string {
	for i, t := range wd.Tasks {
		if t.TaskReferenceName == refName {
			if i+1 < len(wd.Tasks) {
				return wd.Tasks[i+1].TaskReferenceName
			}
			return ""
		}
	}
	return ""
}

// TaskDef is the static retry/timeout configuration for a task-def name (TD in §3).
type TaskDef struct {
	Name                 string
	RetryCount           int
	RetryDelaySeconds    int
	RetryLogic           RetryLogic
	TimeoutSeconds       int
	TimeoutPolicy        TimeoutPolicy
	ResponseTimeoutSecs  int
	ConcurrentExecLimit  int // ambient addition (SPEC_FULL §3): 0 means unlimited
}

// WorkflowInstance is the mutable runtime record of a running WorkflowDef execution (W in §3).
type WorkflowInstance struct {
	ID                    string
	WorkflowName          string
	Version               int
	Status                WorkflowStatus
	Input                 map[string]interface{}
	Output                map[string]interface{}
	RerunFromWorkflowID   string // empty means "not a rerun"
	ReasonForIncompletion string
	Tasks                 []*TaskInstance
	SchemaVersion         int
	ExternalInputPath     string
	ExternalOutputPath    string
}

// TaskByRefName returns the most recently added TaskInstance with the given reference name, or nil.
func (w *WorkflowInstance) TaskByRefName(refName string) *TaskInstance {
	var found *TaskInstance
	for _, t := range w.Tasks {
		if t.ReferenceTaskName == refName {
			found = t
		}
	}
	return found
}

// IsTerminal reports whether the workflow has reached a terminal status (invariant 4).
func (w *WorkflowInstance) IsTerminal() bool { return w.Status.IsTerminal() }
