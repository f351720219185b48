package workload

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fusionscope/internal/depgraph"
	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/runtime"
	"github.com/roach88/fusionscope/internal/testutil"
)

func TestLoadYAMLChain(t *testing.T) {
	w, err := Load(filepath.Join("testdata", "chain.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "chain", w.Name)
	require.Len(t, w.Steps, 3)
	assert.Equal(t, ir.StreamID(1), w.Steps[0].Stream)
	assert.Equal(t, ir.IRObject{"rhs": ir.IRString("2.0")}, w.Steps[0].Op.Params)
	assert.Equal(t, []string{"x"}, w.Steps[0].Op.Inputs)
	assert.Nil(t, w.Steps[1].Op.Params)
}

func TestLoadCUEChainMatchesYAML(t *testing.T) {
	fromYAML, err := Load(filepath.Join("testdata", "chain.yaml"))
	require.NoError(t, err)
	fromCUE, err := Load(filepath.Join("testdata", "chain.cue"))
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromCUE)
}

func TestApplyChainProducesChainOps(t *testing.T) {
	for _, name := range []string{"chain.yaml", "chain.cue"} {
		t.Run(name, func(t *testing.T) {
			w, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			rt := runtime.New()
			res, err := Apply(rt, w, nil)
			require.NoError(t, err)

			assert.Equal(t, 3, res.Enqueued)
			assert.Equal(t, map[string]ir.TensorID{"x": 0, "a": 1, "b": 2, "c": 3}, res.Tensors)

			ops, ok := rt.CopyQueue(1)
			require.True(t, ok)
			assert.Equal(t, testutil.ChainOps(), ops)
		})
	}
}

func TestApplyTwoStreams(t *testing.T) {
	w, err := Load(filepath.Join("testdata", "two_streams.yaml"))
	require.NoError(t, err)

	rt := runtime.New()
	res, err := Apply(rt, w, nil)
	require.NoError(t, err)

	require.Len(t, res.Executed, 1)
	assert.Equal(t, 2, res.Executed[0].OperationCount)
	assert.Equal(t, []string{"OnSync"}, res.Executed[0].Triggers)

	assert.Equal(t, 3, rt.Pending(1))
	assert.Equal(t, 2, rt.Pending(2))

	ops, ok := rt.CopyQueue(2)
	require.True(t, ok)
	conv, isModule := ops[0].Kind.(ir.ModuleOp)
	require.True(t, isModule)
	assert.Equal(t, ir.IRArray{ir.IRInt(1), ir.IRInt(1)}, conv.Params["stride"])
	assert.Equal(t, ir.IRInt(0), conv.Params["padding"])
	assert.Equal(t, ir.DropOp{Tensor: res.Tensors["img"]}, ops[1].Kind)
	assert.Equal(t, []ir.TensorRef{ir.Ref(res.Tensors["img"])}, ops[1].Inputs)
	assert.Empty(t, ops[1].Outputs)
}

func TestApplyDropReadsItsTensor(t *testing.T) {
	w := &Workload{
		Name: "drop",
		Steps: []Step{
			{Stream: 1, Op: &OpStep{Kind: "Float", DType: "F32", Name: "Exp", Inputs: []string{"x"}, Outputs: []string{"y"}}},
			{Stream: 1, Op: &OpStep{Kind: "Drop", Drop: "y"}},
			{Stream: 1, Op: &OpStep{Kind: "Drop", Drop: "x", Inputs: []string{"x"}}},
		},
	}
	rt := runtime.New()
	res, err := Apply(rt, w, nil)
	require.NoError(t, err)

	ops, ok := rt.CopyQueue(1)
	require.True(t, ok)
	assert.Equal(t, []ir.TensorRef{ir.Ref(res.Tensors["y"])}, ops[1].Inputs)
	assert.Equal(t, []ir.TensorRef{ir.Ref(res.Tensors["x"])}, ops[2].Inputs, "listed drop tensor is not repeated")

	g := depgraph.Build(ops)
	assert.Equal(t, []int{0}, g.Dependencies(1))
	assert.Equal(t, []int{1, 2}, g.Sinks())
}

func TestApplyReusesNamesAcrossStreams(t *testing.T) {
	w := &Workload{
		Name: "shared",
		Steps: []Step{
			{Stream: 1, Op: &OpStep{Kind: "Float", DType: "F32", Name: "Exp", Inputs: []string{"x"}, Outputs: []string{"y"}}},
			{Stream: 2, Op: &OpStep{Kind: "Float", DType: "F32", Name: "Tanh", Inputs: []string{"y"}, Outputs: []string{"z"}}},
		},
	}
	rt := runtime.New()
	res, err := Apply(rt, w, nil)
	require.NoError(t, err)

	second, _ := rt.CopyQueue(2)
	assert.Equal(t, res.Tensors["y"], second[0].Inputs[0].ID)
}

func TestApplyStopsAtFailingStep(t *testing.T) {
	w := &Workload{
		Name: "bad-execute",
		Steps: []Step{
			{Stream: 1, Op: &OpStep{Kind: "Float", DType: "F32", Name: "Exp", Inputs: []string{"x"}, Outputs: []string{"y"}}},
			{Stream: 7, Execute: ExecuteAlways},
			{Stream: 1, Op: &OpStep{Kind: "Float", DType: "F32", Name: "Tanh", Inputs: []string{"y"}, Outputs: []string{"z"}}},
		},
	}
	rt := runtime.New()
	res, err := Apply(rt, w, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[1]")
	assert.True(t, runtime.IsUnknownStream(err))
	assert.Equal(t, 1, res.Enqueued)
	assert.Equal(t, 1, rt.Pending(1))
}

func TestApplyDuplicateOutputRejected(t *testing.T) {
	w := &Workload{
		Name: "dup",
		Steps: []Step{
			{Stream: 1, Op: &OpStep{Kind: "Init", Outputs: []string{"a", "a"}}},
		},
	}
	_, err := Apply(runtime.New(), w, nil)
	require.Error(t, err)
	assert.True(t, runtime.IsInvalidRecord(err))
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"missing name", "steps: [{stream: 1, execute: sync}]", "name is required"},
		{"no steps", "name: empty", "steps list is required"},
		{"both op and execute", "name: x\nsteps: [{stream: 1, execute: sync, op: {kind: Init}}]", "not both"},
		{"neither", "name: x\nsteps: [{stream: 1}]", "needs op or execute"},
		{"bad mode", "name: x\nsteps: [{stream: 1, execute: later}]", `unknown mode "later"`},
		{"unknown kind", "name: x\nsteps: [{stream: 1, op: {kind: Warp}}]", `unknown kind type "Warp"`},
		{"missing dtype", "name: x\nsteps: [{stream: 1, op: {kind: Float, name: Exp}}]", "dtype is required"},
		{"drop without tensor", "name: x\nsteps: [{stream: 1, op: {kind: Drop}}]", "drop needs a tensor name"},
		{"null param", "name: x\nsteps: [{stream: 1, op: {kind: Module, name: M, params: {k: null}}}]", "null is not a valid"},
		{"params not a mapping", "name: x\nsteps: [{stream: 1, op: {kind: Module, name: M, params: [1]}}]", "params must be a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_field.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "bogus")
}

func TestYAMLParamsKeepLiteralText(t *testing.T) {
	doc := `
name: params
steps:
  - stream: 1
    op:
      kind: Module
      name: Pool
      params: {scale: 1.50, count: 0x10, on: true, label: "2.0", nested: {eps: 0.001}}
`
	w, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{
		"scale":  ir.IRString("1.50"),
		"count":  ir.IRInt(16),
		"on":     ir.IRBool(true),
		"label":  ir.IRString("2.0"),
		"nested": ir.IRObject{"eps": ir.IRString("0.001")},
	}, w.Steps[0].Op.Params)
}

func TestLoadCUEIncompleteReportsPosition(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "incomplete.cue"))
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Pos.IsValid())
	assert.Contains(t, err.Error(), "incomplete.cue:")
}

func TestParseCUEErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"syntax", `name: "x" steps: [`, "incomplete.cue"},
		{"conflict", `name: "x" & "y"`, "conflicting values"},
		{"missing name", `steps: [{stream: 1, execute: "sync"}]`, "name is required"},
		{"null param", `name: "x", steps: [{stream: 1, op: {kind: "Module", name: "M", params: k: null}}]`, "null is not a valid"},
		{"bad mode", `name: "x", steps: [{stream: 1, execute: "later"}]`, `unknown mode "later"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE("incomplete.cue", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("workload.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported workload format")
}

func TestLoadErrorFormatting(t *testing.T) {
	err := &LoadError{Field: "steps[0]", Message: "boom"}
	assert.Equal(t, "steps[0]: boom", err.Error())
}

func TestExecuteModeTrigger(t *testing.T) {
	assert.Equal(t, ir.OnSync(), ExecuteSync.Trigger())
	assert.Equal(t, ir.Always(), ExecuteAlways.Trigger())
}
