// Package resolver evaluates a workflow-task's input-parameter expression map into a concrete
// input map (4.B). It is referentially transparent: the same (expression map, Context) pair always
// yields the same result, and it never fails — an unresolvable path yields nil at that position.
package resolver

import (
	"errors"
	"strings"
)

// TaskIO is the resolvable input/output of one already-materialized task, keyed by reference name.
type TaskIO struct {
	Input  map[string]interface{}
	Output map[string]interface{}
}

// Context is the resolution environment: the running workflow's input and already-known fields
// (workflow.*), plus the input/output of every task reference name seen so far.
type Context struct {
	WorkflowInput  map[string]interface{}
	WorkflowFields map[string]interface{} // workflow.workflowId, workflow.status, ... (flat)
	Tasks          map[string]TaskIO
}

// Resolve dispatches to V1 or V2 by schemaVersion, per 4.B ("V1 ... schema-version 1 ... V2 ...
// schema-version >= 2").
func Resolve(schemaVersion int, expressions map[string]interface{}, ctx Context) map[string]interface{} {
	if schemaVersion >= 2 {
		return ResolveV2(expressions, ctx)
	}
	return ResolveV1(expressions, ctx)
}

// ResolveV1 performs shallow substitution: each top-level value that is a path-expression string
// is resolved to its value (or nil); every other value (including nested maps/slices) passes
// through unevaluated. This matches schema-version-1 workflows, which never nest expressions.
func ResolveV1(expressions map[string]interface{}, ctx Context) map[string]interface{} {
	out := make(map[string]interface{}, len(expressions))
	for k, v := range expressions {
		if path, ok := v.(string); ok && looksLikePath(path) {
			out[k] = resolvePath(path, ctx)
		} else {
			out[k] = v
		}
	}
	return out
}

// ResolveV2 walks expressions recursively: string leaves that look like a path expression are
// resolved; maps and slices are resolved element-wise; everything else is a literal and passes
// through as-is. This supports nested expressions and JSON-path-like traversal into the resolved
// value via additional path segments after workflow.input/<ref>.input/<ref>.output.
func ResolveV2(expressions map[string]interface{}, ctx Context) map[string]interface{} {
	out := make(map[string]interface{}, len(expressions))
	for k, v := range expressions {
		out[k] = resolveValue(v, ctx)
	}
	return out
}

func resolveValue(v interface{}, ctx Context) interface{} {
	switch val := v.(type) {
	case string:
		if looksLikePath(val) {
			return resolvePath(val, ctx)
		}
		return val
	case map[string]interface{}:
		nested := make(map[string]interface{}, len(val))
		for k, nv := range val {
			nested[k] = resolveValue(nv, ctx)
		}
		return nested
	case []interface{}:
		nested := make([]interface{}, len(val))
		for i, nv := range val {
			nested[i] = resolveValue(nv, ctx)
		}
		return nested
	default:
		return v
	}
}

// looksLikePath reports whether s has the shape of a path expression: "workflow.input...",
// "workflow.<field>", "<refName>.input...", or "<refName>.output...".
func looksLikePath(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}
	parts := strings.SplitN(s, ".", 3)
	if len(parts) < 2 {
		return false
	}
	if parts[0] == "workflow" {
		return true
	}
	return parts[1] == "input" || parts[1] == "output"
}

// resolvePath evaluates a single path expression against ctx. Any failure to resolve — an unknown
// task reference name, a missing field, an out-of-range index — yields nil, never an error
// (4.B: "Unresolved paths yield a null at that position (never a failure)").
func resolvePath(path string, ctx Context) interface{} {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return nil
	}

	root := segments[0]
	var base interface{}

	switch {
	case root == "workflow" && len(segments) >= 2 && segments[1] == "input":
		base = mapToInterface(ctx.WorkflowInput)
		segments = segments[2:]
	case root == "workflow":
		base = mapToInterface(ctx.WorkflowFields)
		segments = segments[1:]
	default:
		taskIO, ok := ctx.Tasks[root]
		if !ok {
			return nil
		}
		if len(segments) < 2 {
			return nil
		}
		switch segments[1] {
		case "input":
			base = mapToInterface(taskIO.Input)
		case "output":
			base = mapToInterface(taskIO.Output)
		default:
			return nil
		}
		segments = segments[2:]
	}

	return traverse(base, segments)
}

func mapToInterface(m map[string]interface{}) interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// traverse walks base through the remaining dotted path segments, descending into maps and
// (numeric-index) slices, returning nil the moment a segment cannot be resolved.
func traverse(base interface{}, segments []string) interface{} {
	current := base
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[seg]
			if !ok {
				return nil
			}
			current = next
		case []interface{}:
			idx, err := parseIndex(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

func parseIndex(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, errNotAnIndex
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotAnIndex
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errNotAnIndex = errors.New("not an index")
