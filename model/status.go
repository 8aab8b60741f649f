// Package model holds the wire-level data types the Decider and Execution Service operate on:
// workflow/task definitions, workflow/task runtime instances, and their status algebra.
package model

// TaskStatus is the wire status of a task instance (§6).
type TaskStatus string

const (
	TaskStatusScheduled         TaskStatus = "SCHEDULED"
	TaskStatusInProgress        TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted         TaskStatus = "COMPLETED"
	TaskStatusCompletedWithErrs TaskStatus = "COMPLETED_WITH_ERRORS"
	TaskStatusFailed            TaskStatus = "FAILED"
	TaskStatusCanceled          TaskStatus = "CANCELED"
	TaskStatusTimedOut          TaskStatus = "TIMED_OUT"
	TaskStatusSkipped           TaskStatus = "SKIPPED"
	TaskStatusReadyForRerun     TaskStatus = "READY_FOR_RERUN"
)

var terminalStatuses = map[TaskStatus]bool{
	TaskStatusCompleted:         true,
	TaskStatusCompletedWithErrs: true,
	TaskStatusFailed:            true,
	TaskStatusTimedOut:          true,
	TaskStatusSkipped:           true,
	TaskStatusCanceled:          true,
}

var successfulStatuses = map[TaskStatus]bool{
	TaskStatusCompleted:         true,
	TaskStatusCompletedWithErrs: true,
	TaskStatusSkipped:           true,
}

var retriableStatuses = map[TaskStatus]bool{
	TaskStatusFailed:   true,
	TaskStatusTimedOut: true,
}

// IsTerminal reports whether s is one of the terminal statuses (§3).
func (s TaskStatus) IsTerminal() bool { return terminalStatuses[s] }

// IsSuccessful reports whether s is a terminal status that counts as success.
func (s TaskStatus) IsSuccessful() bool { return successfulStatuses[s] }

// IsRetriable reports whether a task in status s is eligible for retry production (4.D.iii).
func (s TaskStatus) IsRetriable() bool { return retriableStatuses[s] }

// WorkflowStatus is the wire status of a workflow instance (§6).
type WorkflowStatus string

const (
	WorkflowStatusRunning    WorkflowStatus = "RUNNING"
	WorkflowStatusPaused     WorkflowStatus = "PAUSED"
	WorkflowStatusCompleted  WorkflowStatus = "COMPLETED"
	WorkflowStatusFailed     WorkflowStatus = "FAILED"
	WorkflowStatusTimedOut   WorkflowStatus = "TIMED_OUT"
	WorkflowStatusTerminated WorkflowStatus = "TERMINATED"
)

var terminalWorkflowStatuses = map[WorkflowStatus]bool{
	WorkflowStatusCompleted:  true,
	WorkflowStatusFailed:     true,
	WorkflowStatusTimedOut:   true,
	WorkflowStatusTerminated: true,
}

// IsTerminal reports whether a workflow in status s no longer accepts task transitions (invariant 4).
func (s WorkflowStatus) IsTerminal() bool { return terminalWorkflowStatuses[s] }

// TimeoutPolicy controls how the Decider reacts to a task exceeding TaskDef.TimeoutSeconds.
type TimeoutPolicy string

const (
	TimeoutPolicyAlertOnly TimeoutPolicy = "ALERT_ONLY"
	TimeoutPolicyRetry     TimeoutPolicy = "RETRY"
	TimeoutPolicyTimeOutWf TimeoutPolicy = "TIME_OUT_WF"
)

// RetryLogic controls how the Decider computes the delay before a retried task becomes visible.
type RetryLogic string

const (
	RetryLogicFixed               RetryLogic = "FIXED"
	RetryLogicExponentialBackoff  RetryLogic = "EXPONENTIAL_BACKOFF"
)

// TaskType tags a workflow-task template with the mapper that materializes it (4.A).
type TaskType string

const (
	TaskTypeUserDefined     TaskType = "SIMPLE"
	TaskTypeDecision        TaskType = "DECISION"
	TaskTypeFork            TaskType = "FORK"
	TaskTypeForkJoinDynamic TaskType = "FORK_JOIN_DYNAMIC"
	TaskTypeJoin            TaskType = "JOIN"
	TaskTypeSubWorkflow     TaskType = "SUB_WORKFLOW"
	TaskTypeWait            TaskType = "WAIT"
	TaskTypeEvent           TaskType = "EVENT"
)

// systemTaskTypes are built-in control-flow task types the Decider treats specially in step 8a
// of 4.D (re-seeded into toSchedule on every decide call regardless of executed/retried flags).
var systemTaskTypes = map[TaskType]bool{
	TaskTypeDecision:        true,
	TaskTypeFork:            true,
	TaskTypeForkJoinDynamic: true,
	TaskTypeJoin:            true,
}

// IsSystemTask reports whether t is a built-in control-flow task type (decision/fork/join).
func (t TaskType) IsSystemTask() bool { return systemTaskTypes[t] }

// PayloadKind tags which entity/slot an external payload upload or download applies to (4.C).
type PayloadKind string

const (
	PayloadKindWorkflowInput  PayloadKind = "WORKFLOW_INPUT"
	PayloadKindWorkflowOutput PayloadKind = "WORKFLOW_OUTPUT"
	PayloadKindTaskInput      PayloadKind = "TASK_INPUT"
	PayloadKindTaskOutput     PayloadKind = "TASK_OUTPUT"
)
