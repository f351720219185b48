package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/testutil"
)

func testCapture(id string, seq int64) Capture {
	return Capture{
		ID:    id,
		Seq:   seq,
		Label: "after warmup",
		Snapshots: []ir.StreamSnapshot{
			testutil.Snapshot(2, testutil.SquareOps()),
			testutil.Snapshot(1, testutil.DiamondOps()),
		},
	}
}

func TestSaveAndReadCapture(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inserted, err := s.SaveCapture(ctx, testCapture("cap-1", 1))
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := s.ReadCapture(ctx, "cap-1")
	require.NoError(t, err)
	assert.Equal(t, "cap-1", got.ID)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, "after warmup", got.Label)
	require.Len(t, got.Snapshots, 2)
	assert.Equal(t, testutil.Snapshot(1, testutil.DiamondOps()), got.Snapshots[0], "ordered by stream")
	assert.Equal(t, testutil.Snapshot(2, testutil.SquareOps()), got.Snapshots[1])
}

func TestSaveCaptureIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := testutil.NewFixedIDGenerator("cap-fixed")

	first := testCapture(gen.Generate(), 1)
	inserted, err := s.SaveCapture(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	second := testCapture(gen.Generate(), 2)
	second.Label = "different"
	inserted, err = s.SaveCapture(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.ReadCapture(ctx, "cap-fixed")
	require.NoError(t, err)
	assert.Equal(t, "after warmup", got.Label, "first write wins")
}

func TestSaveCaptureRequiresID(t *testing.T) {
	s := createTestStore(t)
	_, err := s.SaveCapture(context.Background(), Capture{})
	require.Error(t, err)
}

func TestReadCaptureNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadCapture(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadCaptureDetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.SaveCapture(ctx, testCapture("cap-1", 1))
	require.NoError(t, err)

	tampered, err := ir.EncodeRecords(testutil.ChainOps())
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE capture_streams SET operations = ? WHERE stream_id = 1`, string(tampered))
	require.NoError(t, err)

	_, err = s.ReadCapture(ctx, "cap-1")
	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, ir.StreamID(1), ie.Stream)
}

func TestListCapturesOrderedBySeqThenID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewDeterministicClock()
	gen := testutil.NewSequenceIDGenerator("cap")

	idA, idB := gen.Generate(), gen.Generate()
	seqA := clock.Next()

	_, err := s.SaveCapture(ctx, Capture{ID: idB, Seq: clock.Next(), Snapshots: []ir.StreamSnapshot{
		testutil.Snapshot(3, testutil.ChainOps()),
	}})
	require.NoError(t, err)
	_, err = s.SaveCapture(ctx, testCapture(idA, seqA))
	require.NoError(t, err)
	_, err = s.SaveCapture(ctx, Capture{ID: "cap-empty", Seq: seqA})
	require.NoError(t, err)

	infos, err := s.ListCaptures(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "cap-0001", infos[0].ID)
	assert.Equal(t, []ir.StreamID{1, 2}, infos[0].Streams)
	assert.Equal(t, 6, infos[0].OperationCount)
	assert.Equal(t, ir.ToolVersion, infos[0].ToolVersion)

	assert.Equal(t, "cap-empty", infos[1].ID)
	assert.Empty(t, infos[1].Streams)
	assert.Equal(t, 0, infos[1].OperationCount)

	assert.Equal(t, "cap-0002", infos[2].ID)
	assert.Equal(t, int64(2), infos[2].Seq)
}

func TestListCapturesEmpty(t *testing.T) {
	s := createTestStore(t)
	infos, err := s.ListCaptures(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)
}

func TestNextSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	_, err = s.SaveCapture(ctx, Capture{ID: "a", Seq: 7})
	require.NoError(t, err)
	seq, err = s.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)
}

func TestFindByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.SaveCapture(ctx, testCapture("cap-1", 1))
	require.NoError(t, err)
	_, err = s.SaveCapture(ctx, testCapture("cap-2", 2))
	require.NoError(t, err)

	fp := ir.MustSnapshotFingerprint(testutil.Snapshot(2, testutil.SquareOps()))
	ids, err := s.FindByFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, []string{"cap-1", "cap-2"}, ids)

	ids, err = s.FindByFingerprint(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveAndReadSummary(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.SaveCapture(ctx, testCapture("cap-1", 1))
	require.NoError(t, err)

	_, ok, err := s.ReadSummary(ctx, "cap-1")
	require.NoError(t, err)
	assert.False(t, ok)

	summary := ir.FusionDebugSummary{
		StreamCount:        2,
		TotalOperations:    6,
		ExecutionPlanCount: 1,
		ExecutionPlanSummaries: []ir.ExecutionPlanStats{{
			ID:             0,
			OperationCount: 3,
			TriggerCount:   1,
			Triggers:       []string{"OnSync"},
			OperationKinds: []string{"NumericFloat", "Float", "Float"},
			Strategy:       "Fused[0 1 2]",
			Streams:        []ir.StreamID{1},
		}},
	}
	require.NoError(t, s.SaveSummary(ctx, "cap-1", summary))

	got, ok, err := s.ReadSummary(ctx, "cap-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, summary, got)
}

func TestSaveSummaryRequiresCapture(t *testing.T) {
	s := createTestStore(t)
	err := s.SaveSummary(context.Background(), "missing", ir.FusionDebugSummary{})
	require.Error(t, err, "foreign key enforced")
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
