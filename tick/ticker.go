// Package tick implements the cooperative timeout requirement from §9: because the Decider only
// runs when something hands it a workflow snapshot, a workflow with no pending worker activity
// would never notice it had timed out unless something periodically re-decides it. Ticker is that
// something, grounded on the pack's cron.New(cron.WithSeconds())-based scheduler shape.
package tick

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/decider"
	"github.com/conductor-oss/decider-go/execution"
	"github.com/conductor-oss/decider-go/model"
	"github.com/conductor-oss/decider-go/store"
)

// WorkflowDefLoader resolves the WorkflowDef for a running WorkflowInstance's decide sweep.
type WorkflowDefLoader func(ctx context.Context, name string, version int) (*model.WorkflowDef, error)

// Outcome applier persists a Decide outcome: schedules new tasks onto their queues, persists
// updated tasks, and marks the workflow complete when the outcome says so. Kept narrow and
// out-of-package so cmd/deciderctl can wire whatever store/queue pairing it has assembled.
type OutcomeApplier interface {
	Apply(ctx context.Context, w *model.WorkflowInstance, outcome decider.Outcome) error
}

// Ticker owns a cron.Cron that periodically sweeps running workflows through the Decider and
// sweeps stale task reservations back onto their queues.
type Ticker struct {
	cron *cron.Cron

	Decider      *decider.Decider
	Execution    *execution.Service
	Workflows    store.ExecutionStore
	WorkflowDefs WorkflowDefLoader
	Apply        OutcomeApplier
	Logger       *zap.Logger
}

// New builds a Ticker with seconds-precision cron scheduling. A nil logger falls back to
// zap.NewNop().
func New(d *decider.Decider, svc *execution.Service, workflows store.ExecutionStore, defs WorkflowDefLoader, apply OutcomeApplier, logger *zap.Logger) *Ticker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{
		cron:         cron.New(cron.WithSeconds()),
		Decider:      d,
		Execution:    svc,
		Workflows:    workflows,
		WorkflowDefs: defs,
		Apply:        apply,
		Logger:       logger,
	}
}

// ScheduleDecideSweep registers a periodic re-decide pass over every running workflow at the
// given cron spec (e.g. "*/5 * * * * *" for every five seconds).
func (t *Ticker) ScheduleDecideSweep(spec string) error {
	_, err := t.cron.AddFunc(spec, func() {
		t.runDecideSweep(context.Background())
	})
	return err
}

// ScheduleRequeueSweep registers a periodic stale-reservation requeue pass at the given cron
// spec.
func (t *Ticker) ScheduleRequeueSweep(spec string) error {
	_, err := t.cron.AddFunc(spec, func() {
		t.runRequeueSweep(context.Background())
	})
	return err
}

// Start begins running registered cron entries.
func (t *Ticker) Start() { t.cron.Start() }

// Stop waits for in-flight cron jobs to finish or ctx to be done, whichever comes first.
func (t *Ticker) Stop(ctx context.Context) error {
	stopCtx := t.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticker) runDecideSweep(ctx context.Context) {
	workflows, err := t.Workflows.ListRunningWorkflows(ctx)
	if err != nil {
		t.Logger.Warn("decide sweep: list running workflows failed", zap.Error(err))
		return
	}

	for _, w := range workflows {
		wd, err := t.WorkflowDefs(ctx, w.WorkflowName, w.Version)
		if err != nil {
			t.Logger.Warn("decide sweep: load workflow def failed", zap.String("workflowId", w.ID), zap.Error(err))
			continue
		}

		outcome, err := t.Decider.Decide(w, wd)
		if err != nil {
			t.Logger.Warn("decide sweep: decide failed", zap.String("workflowId", w.ID), zap.Error(err))
			continue
		}

		if err := t.Apply.Apply(ctx, w, outcome); err != nil {
			t.Logger.Warn("decide sweep: apply outcome failed", zap.String("workflowId", w.ID), zap.Error(err))
		}
	}
}

func (t *Ticker) runRequeueSweep(ctx context.Context) {
	count, err := t.Execution.RequeuePendingTasks(ctx)
	if err != nil {
		t.Logger.Warn("requeue sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		t.Logger.Info("requeue sweep requeued stale tasks", zap.Int("count", count))
	}
}
