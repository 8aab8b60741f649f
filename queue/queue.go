// Package queue implements the Queue Protocol (4.E): an abstract FIFO with named queues, delayed
// visibility on push, and a visibility-timer-backed unacked area between pop and ack, the same
// shape the teacher's basePoller gives its shutdown channel and polling loop.
package queue

import "context"

// Queue is the abstract FIFO the Execution Service polls and the Decider inspects for response-
// timeout suppression.
type Queue interface {
	// Pop blocks up to timeoutMs or until count items are available, whichever comes first. Items
	// returned become unacked with a visibility-timeout deadline recorded; an unacked item is not
	// made visible again when that deadline passes. A shorter-than-count result on timeout is not
	// an error.
	Pop(ctx context.Context, queueName string, count int, timeoutMs int) ([]string, error)

	// Push appends id to queueName, visible after delaySec.
	Push(ctx context.Context, queueName, id string, delaySec int) error

	// PushIfNotExists is an idempotent Push: it reports whether it actually inserted.
	PushIfNotExists(ctx context.Context, queueName, id string, delaySec int) (bool, error)

	// Ack removes id from the unacked area; false if id was not unacked.
	Ack(ctx context.Context, queueName, id string) (bool, error)

	// Remove deletes id from both the visible and unacked areas.
	Remove(ctx context.Context, queueName, id string) error

	// Exists reports whether id is currently present in queueName (visible or unacked).
	Exists(queueName, id string) bool

	// GetSize reports the number of visible-or-unacked items in queueName.
	GetSize(queueName string) (int, error)

	// QueuesDetail reports every known queue name and its current size.
	QueuesDetail() (map[string]int, error)
}
