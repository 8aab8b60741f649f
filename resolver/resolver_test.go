package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testContext() Context {
	return Context{
		WorkflowInput: map[string]interface{}{"name": "alice", "count": 3},
		WorkflowFields: map[string]interface{}{
			"workflowId": "wf-1",
		},
		Tasks: map[string]TaskIO{
			"taskA": {
				Input:  map[string]interface{}{"x": 1},
				Output: map[string]interface{}{"y": 2, "nested": map[string]interface{}{"z": "deep"}},
			},
		},
	}
}

func TestResolveV1_ShallowSubstitution(t *testing.T) {
	ctx := testContext()
	expr := map[string]interface{}{
		"literal":  42,
		"fromWf":   "workflow.input.name",
		"fromTask": "taskA.output.y",
		"missing":  "taskB.output.y",
		"nested":   map[string]interface{}{"unchanged": "workflow.input.name"},
	}

	out := ResolveV1(expr, ctx)

	assert.Equal(t, 42, out["literal"])
	assert.Equal(t, "alice", out["fromWf"])
	assert.Equal(t, 2, out["fromTask"])
	assert.Nil(t, out["missing"])
	// V1 does not descend into nested maps.
	nested := out["nested"].(map[string]interface{})
	assert.Equal(t, "workflow.input.name", nested["unchanged"])
}

func TestResolveV2_NestedSubstitution(t *testing.T) {
	ctx := testContext()
	expr := map[string]interface{}{
		"nested": map[string]interface{}{
			"resolved": "taskA.output.nested.z",
			"literal":  "plain string",
		},
		"list": []interface{}{"workflow.input.count", "static"},
	}

	out := ResolveV2(expr, ctx)

	nested := out["nested"].(map[string]interface{})
	assert.Equal(t, "deep", nested["resolved"])
	assert.Equal(t, "plain string", nested["literal"])

	list := out["list"].([]interface{})
	assert.Equal(t, 3, list[0])
	assert.Equal(t, "static", list[1])
}

func TestResolveV2_UnresolvedYieldsNil(t *testing.T) {
	ctx := testContext()
	expr := map[string]interface{}{
		"a": "taskA.output.nested.missing",
		"b": "workflow.input.missing",
		"c": "unknownRef.output.x",
	}

	out := ResolveV2(expr, ctx)

	assert.Nil(t, out["a"])
	assert.Nil(t, out["b"])
	assert.Nil(t, out["c"])
}

func TestResolve_DispatchesBySchemaVersion(t *testing.T) {
	ctx := testContext()
	expr := map[string]interface{}{
		"nested": map[string]interface{}{"v": "taskA.output.nested.z"},
	}

	v1 := Resolve(1, expr, ctx)
	v2 := Resolve(2, expr, ctx)

	assert.Equal(t, "taskA.output.nested.z", v1["nested"].(map[string]interface{})["v"])
	assert.Equal(t, "deep", v2["nested"].(map[string]interface{})["v"])
}
