// Package corerrors defines the error taxonomy shared by the Decider and Execution Service (§7):
// InvalidInput, NotFound, TerminateWorkflow, TransientIO, and Internal.
//
// Callers distinguish these with errors.As, the same way a Temporal workflow distinguishes
// *ApplicationError from *TimeoutError from *PanicError:
//
//	_, err := exec.Poll(ctx, req)
//	var invalid *InvalidInputError
//	if errors.As(err, &invalid) {
//		// the caller passed a bad request, not a system failure
//	}
package corerrors

import (
	"fmt"

	"github.com/conductor-oss/decider-go/model"
)

// InvalidInputError signals a caller-side precondition violation (e.g. poll timeoutMs > 5000).
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Message }

// NewInvalidInput builds an *InvalidInputError with a formatted message.
func NewInvalidInput(format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals an unknown workflow, task, or definition on a read path.
type NotFoundError struct {
	Kind string // "workflow", "task", "workflow definition", "task definition"
	ID   string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found: " + e.ID }

// NewNotFound builds a *NotFoundError.
func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// TransientIOError wraps a store/queue/payload failure the caller should retry.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransientIOError) Unwrap() error { return e.Err }

// NewTransientIO builds a *TransientIOError.
func NewTransientIO(op string, err error) *TransientIOError {
	return &TransientIOError{Op: op, Err: err}
}

// InternalError signals a violated invariant; fatal for the current request.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "internal error: " + e.Message }

// NewInternal builds an *InternalError with a formatted message.
func NewInternal(format string, args ...interface{}) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// TerminateWorkflowError is the Decider's signal to abort a workflow (4.D). The executor (out of
// core) catches this and finalizes the workflow with Status and Reason, recording OffendingTask
// when one caused the termination (e.g. exhausted retries, a timeout with TIME_OUT_WF policy).
type TerminateWorkflowError struct {
	Reason        string
	Status        model.WorkflowStatus
	OffendingTask *model.TaskInstance
}

func (e *TerminateWorkflowError) Error() string {
	if e.OffendingTask != nil {
		return fmt.Sprintf("terminate workflow (%s): %s (task %s)", e.Status, e.Reason, e.OffendingTask.TaskID)
	}
	return fmt.Sprintf("terminate workflow (%s): %s", e.Status, e.Reason)
}

// NewTerminateWorkflow builds a *TerminateWorkflowError.
func NewTerminateWorkflow(reason string, status model.WorkflowStatus, offendingTask *model.TaskInstance) *TerminateWorkflowError {
	return &TerminateWorkflowError{Reason: reason, Status: status, OffendingTask: offendingTask}
}
