// Package metrics wraps prometheus/client_golang behind the small Recorder interface the Decider
// and Execution Service actually call, the same tagged-scope shape the teacher gets from
// tally.Scope.Tagged(...) — here a tag set becomes prometheus label values instead of a scope tree.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/conductor-oss/decider-go/model"
)

// Recorder is every metrics call site in this module needs; Prometheus wires it once at startup.
// It also satisfies payload.UsageRecorder so a Gateway can be handed a Recorder directly.
type Recorder interface {
	IncPoll(taskType string, count int)
	IncRequeue(taskType string, count int)
	IncTimeout(taskType string, policy string)
	RecordPayloadOp(name string, op string, kind model.PayloadKind)
}

// Prometheus is the production Recorder.
type Prometheus struct {
	polls       *prometheus.CounterVec
	requeues    *prometheus.CounterVec
	timeouts    *prometheus.CounterVec
	payloadOps  *prometheus.CounterVec
}

// NewPrometheus registers the Decider/Execution Service metric families against reg and returns a
// Recorder backed by them.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decider_poll_total",
			Help: "Tasks returned by Poll, by task type.",
		}, []string{"task_type"}),
		requeues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decider_requeue_total",
			Help: "Tasks pushed back onto a queue by a requeue sweep, by task type.",
		}, []string{"task_type"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decider_timeout_total",
			Help: "Task timeouts observed by the Decider, by task type and timeout policy.",
		}, []string{"task_type", "policy"}),
		payloadOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decider_payload_op_total",
			Help: "External payload gateway operations, by entity name, op, and payload kind.",
		}, []string{"name", "op", "kind"}),
	}
	reg.MustRegister(p.polls, p.requeues, p.timeouts, p.payloadOps)
	return p
}

func (p *Prometheus) IncPoll(taskType string, count int) {
	if count <= 0 {
		return
	}
	p.polls.WithLabelValues(taskType).Add(float64(count))
}

func (p *Prometheus) IncRequeue(taskType string, count int) {
	if count <= 0 {
		return
	}
	p.requeues.WithLabelValues(taskType).Add(float64(count))
}

func (p *Prometheus) IncTimeout(taskType string, policy string) {
	p.timeouts.WithLabelValues(taskType, policy).Inc()
}

func (p *Prometheus) RecordPayloadOp(name string, op string, kind model.PayloadKind) {
	p.payloadOps.WithLabelValues(name, op, string(kind)).Inc()
}

type noop struct{}

func (noop) IncPoll(string, int)       {}
func (noop) IncRequeue(string, int)    {}
func (noop) IncTimeout(string, string) {}
func (noop) RecordPayloadOp(string, string, model.PayloadKind) {}

// Noop returns a Recorder that discards everything, for tests and components that don't care.
func Noop() Recorder { return noop{} }
