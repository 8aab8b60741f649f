package queue

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultVisibilityTimeout = 60 * time.Second

type entry struct {
	id        string
	visibleAt time.Time
}

type namedQueue struct {
	mu      sync.Mutex
	visible *list.List // ordered FIFO of *entry not yet popped
	unacked map[string]time.Time // id -> visibility deadline while held by a consumer
}

func newNamedQueue() *namedQueue {
	return &namedQueue{visible: list.New(), unacked: make(map[string]time.Time)}
}

// MemQueue is an in-memory Queue used by tests. Time comes from Now
// so tests can control visibility-timer behavior deterministically.
type MemQueue struct {
	mu     sync.Mutex
	queues map[string]*namedQueue
	Now    func() time.Time
}

// NewMemQueue returns an empty MemQueue.
func NewMemQueue() *MemQueue {
	return &MemQueue{queues: make(map[string]*namedQueue), Now: time.Now}
}

func (q *MemQueue) queueFor(name string) *namedQueue {
	q.mu.Lock()
	defer q.mu.Unlock()
	nq, ok := q.queues[name]
	if !ok {
		nq = newNamedQueue()
		q.queues[name] = nq
	}
	return nq
}

func (q *MemQueue) Push(_ context.Context, queueName, id string, delaySec int) error {
	nq := q.queueFor(queueName)
	nq.mu.Lock()
	defer nq.mu.Unlock()
	nq.visible.PushBack(&entry{id: id, visibleAt: q.Now().Add(time.Duration(delaySec) * time.Second)})
	return nil
}

func (q *MemQueue) PushIfNotExists(ctx context.Context, queueName, id string, delaySec int) (bool, error) {
	if q.Exists(queueName, id) {
		return false, nil
	}
	return true, q.Push(ctx, queueName, id, delaySec)
}

// Pop blocks in small increments until count items are ready or timeoutMs elapses, mirroring the
// teacher's poller loop structure (poll, check shutdown/deadline, sleep, repeat) without an actual
// background goroutine per queue.
func (q *MemQueue) Pop(ctx context.Context, queueName string, count int, timeoutMs int) ([]string, error) {
	deadline := q.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	const pollInterval = 10 * time.Millisecond

	for {
		ids := q.popReady(queueName, count)
		if len(ids) > 0 || q.Now().After(deadline) {
			return ids, nil
		}
		select {
		case <-ctx.Done():
			return ids, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (q *MemQueue) popReady(queueName string, count int) []string {
	nq := q.queueFor(queueName)
	nq.mu.Lock()
	defer nq.mu.Unlock()

	now := q.Now()
	var out []string
	var next *list.Element
	for e := nq.visible.Front(); e != nil && len(out) < count; e = next {
		next = e.Next()
		en := e.Value.(*entry)
		if en.visibleAt.After(now) {
			continue
		}
		nq.visible.Remove(e)
		nq.unacked[en.id] = now.Add(defaultVisibilityTimeout)
		out = append(out, en.id)
	}
	return out
}

func (q *MemQueue) Ack(_ context.Context, queueName, id string) (bool, error) {
	nq := q.queueFor(queueName)
	nq.mu.Lock()
	defer nq.mu.Unlock()
	if _, ok := nq.unacked[id]; !ok {
		return false, nil
	}
	delete(nq.unacked, id)
	return true, nil
}

func (q *MemQueue) Remove(_ context.Context, queueName, id string) error {
	nq := q.queueFor(queueName)
	nq.mu.Lock()
	defer nq.mu.Unlock()
	delete(nq.unacked, id)
	for e := nq.visible.Front(); e != nil; e = e.Next() {
		if e.Value.(*entry).id == id {
			nq.visible.Remove(e)
			break
		}
	}
	return nil
}

func (q *MemQueue) Exists(queueName, id string) bool {
	nq := q.queueFor(queueName)
	nq.mu.Lock()
	defer nq.mu.Unlock()
	if _, ok := nq.unacked[id]; ok {
		return true
	}
	for e := nq.visible.Front(); e != nil; e = e.Next() {
		if e.Value.(*entry).id == id {
			return true
		}
	}
	return false
}

func (q *MemQueue) GetSize(queueName string) (int, error) {
	nq := q.queueFor(queueName)
	nq.mu.Lock()
	defer nq.mu.Unlock()
	return nq.visible.Len() + len(nq.unacked), nil
}

func (q *MemQueue) QueuesDetail() (map[string]int, error) {
	q.mu.Lock()
	names := make([]string, 0, len(q.queues))
	for name := range q.queues {
		names = append(names, name)
	}
	q.mu.Unlock()

	out := make(map[string]int, len(names))
	for _, name := range names {
		size, _ := q.GetSize(name)
		out[name] = size
	}
	return out, nil
}
