package execution

import (
	"context"

	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/model"
)

// RequeuePendingTasks implements 4.F's no-argument requeuePendingTasks: a sweep over every
// running workflow's pending (non-system, non-terminal) tasks that pushes a stale reservation
// back onto its queue, guarding against a worker that died holding a task past RequeueTimeout.
func (s *Service) RequeuePendingTasks(ctx context.Context) (int, error) {
	workflows, err := s.Workflows.ListRunningWorkflows(ctx)
	if err != nil {
		return 0, err
	}

	threshold := s.Now().Add(-s.RequeueTimeout)
	count := 0

	for _, w := range workflows {
		for _, t := range w.Tasks {
			if t.TaskType.IsSystemTask() || t.Status.IsTerminal() {
				continue
			}
			if t.UpdateTime.After(threshold) {
				continue
			}

			queueName := model.QueueName(t.TaskDefName, "")
			delay := t.CallbackAfterSeconds
			if delay < 0 {
				delay = 0
			}
			inserted, err := s.Queue.PushIfNotExists(ctx, queueName, t.TaskID, delay)
			if err != nil {
				s.Logger.Warn("requeue failed", zap.String("taskId", t.TaskID), zap.Error(err))
				continue
			}
			if inserted {
				count++
			}
		}
	}

	s.Metrics.IncRequeue("all", count)
	return count, nil
}

// RequeuePendingTasksOfType implements 4.F's requeuePendingTasks(taskType): it bumps every
// pending task of taskDefName back to visible, adjusting its remaining callback delay by however
// much time has already elapsed since its last update, floored at zero.
func (s *Service) RequeuePendingTasksOfType(ctx context.Context, taskDefName string) (int, error) {
	workflows, err := s.Workflows.ListRunningWorkflows(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	now := s.Now()

	for _, w := range workflows {
		for _, t := range w.Tasks {
			if t.TaskDefName != taskDefName || t.Status.IsTerminal() || t.TaskType.IsSystemTask() {
				continue
			}

			queueName := model.QueueName(taskDefName, "")
			if err := s.Queue.Remove(ctx, queueName, t.TaskID); err != nil {
				s.Logger.Warn("requeue-by-type remove failed", zap.String("taskId", t.TaskID), zap.Error(err))
				continue
			}

			elapsedSec := int(now.Sub(t.UpdateTime).Seconds())
			delay := t.CallbackAfterSeconds - elapsedSec
			if delay < 0 {
				delay = 0
			}

			inserted, err := s.Queue.PushIfNotExists(ctx, queueName, t.TaskID, delay)
			if err != nil {
				s.Logger.Warn("requeue-by-type push failed", zap.String("taskId", t.TaskID), zap.Error(err))
				continue
			}
			if inserted {
				count++
			}
		}
	}

	s.Metrics.IncRequeue(taskDefName, count)
	return count, nil
}
