package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductor-oss/decider-go/model"
)

func TestPrometheus_IncPoll_IncrementsByCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncPoll("SIMPLE", 3)
	p.IncPoll("SIMPLE", 2)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(5), findCounterValue(t, metricFamilies, "decider_poll_total", "SIMPLE"))
}

func TestPrometheus_IncPoll_ZeroCountIsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncPoll("SIMPLE", 0)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(0), findCounterValue(t, metricFamilies, "decider_poll_total", "SIMPLE"))
}

func TestPrometheus_RecordPayloadOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordPayloadOp("wf-1", "verifyAndUpload", model.PayloadKindWorkflowOutput)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(1), findCounterValue(t, metricFamilies, "decider_payload_op_total", "wf-1"))
}

func TestNoop_DiscardsEverything(t *testing.T) {
	r := Noop()
	assert.NotPanics(t, func() {
		r.IncPoll("x", 1)
		r.IncRequeue("x", 1)
		r.IncTimeout("x", "RETRY")
		r.RecordPayloadOp("x", "op", model.PayloadKindTaskInput)
	})
}

func findCounterValue(t *testing.T, families []*dto.MetricFamily, name string, labelValue string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		var total float64
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					total += m.GetCounter().GetValue()
				}
			}
		}
		return total
	}
	return 0
}
