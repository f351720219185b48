package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fusionscope/internal/config"
	"github.com/roach88/fusionscope/internal/store"
	"github.com/roach88/fusionscope/internal/testutil"
)

const twoStreams = "testdata/two_streams.yaml"

func TestGraphSingleStreamASCII(t *testing.T) {
	out, _, code := run(t, "graph", twoStreams, "--stream", "1")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "Op[0]: NumericFloat(F32, MulScalar{rhs=2.0})\n  Inputs:  T3(external)\n  Outputs: T4\n")
	assert.Contains(t, out, "Op[2]: NumericFloat(F32, Add)\n  Inputs:  T4(from Op[0]) T5(from Op[1])\n")
	assert.Contains(t, out, "Op[1] depends on: [0]\nOp[2] depends on: [0, 1]\n")
	assert.NotContains(t, out, "== stream-")
}

func TestGraphAllStreams(t *testing.T) {
	out, _, code := run(t, "graph", twoStreams)
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "== stream-1 (3 operations) ==")
	assert.Contains(t, out, "== stream-2 (2 operations) ==")
	assert.Contains(t, out, "Op[0]: Module(Conv2d{padding=0, stride=[1, 1]})")
	assert.Contains(t, out, "Op[1]: Drop(T7)\n  Inputs:  T7(external)\n")
	assert.Contains(t, out, "(no dependencies)")
}

func TestGraphCUEMatchesYAML(t *testing.T) {
	fromYAML, _, code := run(t, "graph", twoStreams)
	require.Equal(t, ExitSuccess, code)
	fromCUE, _, code := run(t, "graph", "testdata/two_streams.cue")
	require.Equal(t, ExitSuccess, code)

	assert.Equal(t, fromYAML, fromCUE)
}

func TestGraphDOT(t *testing.T) {
	out, _, code := run(t, "graph", twoStreams, "--stream", "1", "--style", "dot")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "digraph OperationGraph {\n  rankdir=TB;\n")
	assert.Contains(t, out, `  op0 -> op1 [label="T4"];`)
	assert.Contains(t, out, `  op0 -> op2 [label="T4"];`)
	assert.Contains(t, out, `  op1 -> op2 [label="T5"];`)
}

func TestGraphDOTUsesConfig(t *testing.T) {
	out, _, code := run(t, "graph", twoStreams, "--style", "dot", "--config", "testdata/dot.toml")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "digraph Fusion_1 {\n  rankdir=LR;\n")
	assert.Contains(t, out, "digraph Fusion_2 {\n  rankdir=LR;\n")
}

func TestGraphWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.dot")
	out, _, code := run(t, "graph", twoStreams, "--stream", "2", "--style", "dot", "-o", path)
	require.Equal(t, ExitSuccess, code)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `op0 [label="Op[0]\nModule"];`)
	assert.NotContains(t, string(data), "->")
}

func TestGraphJSON(t *testing.T) {
	resp, code := runJSON(t, "graph", twoStreams)
	require.Equal(t, ExitSuccess, code)
	require.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result GraphResult
	require.NoError(t, json.Unmarshal(raw, &result))

	require.Len(t, result.Streams, 2)
	first := result.Streams[0]
	assert.EqualValues(t, 1, first.Stream)
	assert.Equal(t, []EdgeView{
		{From: 0, To: 1, Tensor: "T4"},
		{From: 0, To: 2, Tensor: "T4"},
		{From: 1, To: 2, Tensor: "T5"},
	}, first.Edges)
	assert.Equal(t, []InputView{{Tensor: "T3", Provenance: "external"}}, first.Operations[0].Inputs)
	assert.Equal(t, []int{1, 2}, first.Operations[0].Consumers)
	assert.Equal(t, []int{}, first.Operations[0].Dependencies)

	second := result.Streams[1]
	assert.Empty(t, second.Edges)
	assert.Equal(t, "Drop", second.Operations[1].Kind)
}

func TestGraphUnknownStream(t *testing.T) {
	_, stderr, code := run(t, "graph", twoStreams, "--stream", "9")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [E004]: stream-9 has no pending operations")
}

func TestGraphDrainedWorkload(t *testing.T) {
	out, _, code := run(t, "graph", "testdata/drained.yaml")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No active streams.\n", out)

	_, _, code = run(t, "graph", "testdata/drained.yaml", "--stream", "1")
	assert.Equal(t, ExitFailure, code)
}

func TestGraphInvalidStyle(t *testing.T) {
	_, stderr, code := run(t, "graph", twoStreams, "--style", "svg")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid style "svg"`)
}

func TestWorkloadApplyFailure(t *testing.T) {
	_, stderr, code := run(t, "graph", "testdata/bad_apply.yaml")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [E003]")
	assert.Contains(t, stderr, "UNKNOWN_STREAM")
}

func TestDeps(t *testing.T) {
	out, _, code := run(t, "deps", twoStreams, "--stream", "1")
	require.Equal(t, ExitSuccess, code)

	assert.Equal(t, `Dependencies for stream-1 (3 operations)
Op[0] NumericFloat(F32, MulScalar{rhs=2.0})
  depends on:  (none)
  consumed by: [1, 2]
Op[1] Float(F32, Tanh)
  depends on:  [0]
  consumed by: [2]
Op[2] NumericFloat(F32, Add)
  depends on:  [0, 1]
  consumed by: (none)
`, out)
}

func TestDepsJSON(t *testing.T) {
	resp, code := runJSON(t, "deps", twoStreams, "--stream", "1")
	require.Equal(t, ExitSuccess, code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result DepsResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, map[int][]int{0: {}, 1: {0}, 2: {0, 1}}, result.Dependencies)
	assert.Equal(t, []int{0}, result.EntryPoints)
	assert.Equal(t, []int{2}, result.Sinks)
}

func TestSummary(t *testing.T) {
	out, _, code := run(t, "summary", twoStreams)
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "Active streams:     2\n")
	assert.Contains(t, out, "Pending operations: 5\n")
	assert.Contains(t, out, "Execution plans:    1\n")
	assert.Contains(t, out, "Plan[0]: 2 operations, 1 triggers\n")
	assert.Contains(t, out, "Optimization Summary:")
	assert.Contains(t, out, "Pre-optimization:  5 operations\n")
}

func TestSummaryJSON(t *testing.T) {
	resp, code := runJSON(t, "summary", twoStreams)
	require.Equal(t, ExitSuccess, code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result SummaryResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, 2, result.Summary.StreamCount)
	assert.Equal(t, 5, result.Summary.TotalOperations)
	assert.Equal(t, 1, result.Summary.ExecutionPlanCount)
	assert.Equal(t, map[string]int{"NumericFloat": 2, "Float": 1, "Module": 1, "Drop": 1}, result.Pending)
}

func TestSummaryCountsPlanOnlyStreams(t *testing.T) {
	resp, code := runJSON(t, "summary", "testdata/drained.yaml")
	require.Equal(t, ExitSuccess, code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result SummaryResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, 1, result.Summary.StreamCount)
	assert.Equal(t, 0, result.Summary.TotalOperations)
	assert.Equal(t, 1, result.Summary.ExecutionPlanCount)
}

func TestPlans(t *testing.T) {
	out, _, code := run(t, "plans", twoStreams)
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "Plan[0]:\n  Operations: 2 ops\n  Triggers: 1 triggers\n    - OnSync\n")
	assert.Contains(t, out, "    [0] NumericFloat(F32, MulScalar{rhs=0.5})\n")
	assert.Contains(t, out, "  Strategy: Fused[0 1]\n")
	assert.Contains(t, out, "  Streams: stream-1\n")
}

func TestPlansJSONEmpty(t *testing.T) {
	w := filepath.Join(t.TempDir(), "pending.yaml")
	require.NoError(t, os.WriteFile(w, []byte(`name: pending
steps:
  - stream: 1
    op: {kind: Init, outputs: [x]}
`), 0o644))

	resp, code := runJSON(t, "plans", w)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []any{}, resp.Data)
}

func captureJSON(t *testing.T, db string, extra ...string) CaptureResult {
	t.Helper()
	resp, code := runJSON(t, append([]string{"capture", twoStreams, "--db", db}, extra...)...)
	require.Equal(t, ExitSuccess, code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result CaptureResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

func TestCaptureShowList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "captures.db")

	first := captureJSON(t, db, "--label", "baseline")
	assert.True(t, first.Inserted)
	assert.EqualValues(t, 1, first.Seq)
	assert.Equal(t, "baseline", first.Label)
	assert.Equal(t, 5, first.OperationCount)
	assert.Len(t, first.Fingerprints, 2)

	second := captureJSON(t, db)
	assert.EqualValues(t, 2, second.Seq)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Fingerprints, second.Fingerprints)

	out, _, code := run(t, "list", "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "=== Captures ===\n")
	assert.Contains(t, out, "[1] "+first.ID+"  baseline"+strings.Repeat(" ", 16)+"  2 streams, 5 operations\n")
	assert.Contains(t, out, "[2] "+second.ID+"  -"+strings.Repeat(" ", 23)+"  2 streams, 5 operations\n")

	out, _, code = run(t, "show", "--db", db, "--capture", first.ID)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "=== Capture "+first.ID+" ===\n")
	assert.Contains(t, out, "Label: baseline\n")
	assert.Contains(t, out, "== stream-1 (3 operations) ==")
	assert.Contains(t, out, "Op[2] depends on: [0, 1]")
	assert.Contains(t, out, "Active streams:     2\n")

	out, _, code = run(t, "show", "--db", db, "--capture", first.ID, "--style", "dot")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "digraph OperationGraph_1 {")
	assert.Contains(t, out, "digraph OperationGraph_2 {")
}

func TestShowJSONMatchesGraphJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "captures.db")
	captured := captureJSON(t, db)

	resp, code := runJSON(t, "show", "--db", db, "--capture", captured.ID)
	require.Equal(t, ExitSuccess, code)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var shown ShowResult
	require.NoError(t, json.Unmarshal(raw, &shown))

	resp, code = runJSON(t, "graph", twoStreams)
	require.Equal(t, ExitSuccess, code)
	raw, err = json.Marshal(resp.Data)
	require.NoError(t, err)
	var live GraphResult
	require.NoError(t, json.Unmarshal(raw, &live))

	assert.Equal(t, live.Streams, shown.Streams)
	require.NotNil(t, shown.Summary)
	assert.Equal(t, 5, shown.Summary.TotalOperations)
}

func TestListByFingerprint(t *testing.T) {
	db := filepath.Join(t.TempDir(), "captures.db")
	captured := captureJSON(t, db)

	resp, code := runJSON(t, "list", "--db", db, "--fingerprint", captured.Fingerprints["stream-2"])
	require.Equal(t, ExitSuccess, code)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var infos []store.CaptureInfo
	require.NoError(t, json.Unmarshal(raw, &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, captured.ID, infos[0].ID)

	out, _, code := run(t, "list", "--db", db, "--fingerprint", "0000")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No captures found.")
}

func TestShowCaptureNotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "captures.db")
	captureJSON(t, db)

	_, stderr, code := run(t, "show", "--db", db, "--capture", "missing")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [E005]")
}

func TestArchiveMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.db")

	_, stderr, code := run(t, "list", "--db", missing)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "database not found")

	_, _, code = run(t, "show", "--db", missing, "--capture", "x")
	assert.Equal(t, ExitCommandError, code)
}

func TestArchiveRequiresPath(t *testing.T) {
	_, stderr, code := run(t, "capture", twoStreams)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "no archive")
}

func TestArchivePathFromConfig(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	cfg := filepath.Join(dir, "fusionscope.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[store]\npath = \""+filepath.ToSlash(db)+"\"\n"), 0o644))

	_, _, code := run(t, "capture", twoStreams, "--config", cfg)
	require.Equal(t, ExitSuccess, code)

	out, _, code := run(t, "list", "--config", cfg)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "2 streams, 5 operations")
}

func TestCaptureWithFixedIDIsIdempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "captures.db")
	root := &RootOptions{Format: "json", Config: config.Default()}
	opts := &CaptureOptions{
		ArchiveOptions: ArchiveOptions{RootOptions: root, Database: db},
		IDs:            testutil.NewFixedIDGenerator("cap-fixed"),
	}

	capture := func() CaptureResult {
		var out bytes.Buffer
		cmd := NewCaptureCommand(root)
		cmd.SetOut(&out)
		require.NoError(t, runCapture(opts, twoStreams, cmd))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		var result CaptureResult
		require.NoError(t, json.Unmarshal(raw, &result))
		return result
	}

	first := capture()
	assert.Equal(t, "cap-fixed", first.ID)
	assert.True(t, first.Inserted)

	second := capture()
	assert.Equal(t, "cap-fixed", second.ID)
	assert.False(t, second.Inserted)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	infos, err := st.ListCaptures(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.EqualValues(t, 1, infos[0].Seq)
}

func TestFitLabel(t *testing.T) {
	assert.Equal(t, "-"+strings.Repeat(" ", 23), fitLabel(""))

	long := fitLabel(strings.Repeat("x", 40))
	assert.Equal(t, strings.Repeat("x", 21)+"...", long)

	wide := fitLabel("\u5b9f\u9a13")
	assert.Equal(t, "\u5b9f\u9a13"+strings.Repeat(" ", 20), wide)
}
