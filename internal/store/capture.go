package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fortio.org/safecast"

	"github.com/roach88/fusionscope/internal/ir"
)

// ErrNotFound is returned when a capture id is not in the archive.
var ErrNotFound = errors.New("capture not found")

// IntegrityError reports a stored snapshot whose fingerprint no longer
// matches its operations.
type IntegrityError struct {
	CaptureID string
	Stream    ir.StreamID
	Stored    string
	Computed  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("capture %s %s: fingerprint mismatch (stored %s, computed %s)",
		e.CaptureID, e.Stream, e.Stored, e.Computed)
}

// Capture is one archived point-in-time view of a runtime.
type Capture struct {
	ID        string
	Seq       int64
	Label     string
	Snapshots []ir.StreamSnapshot
}

// CaptureInfo is the listing form of a capture.
type CaptureInfo struct {
	ID             string        `json:"id"`
	Seq            int64         `json:"seq"`
	Label          string        `json:"label"`
	ToolVersion    string        `json:"tool_version"`
	Streams        []ir.StreamID `json:"streams"`
	OperationCount int           `json:"operation_count"`
}

// SaveCapture writes c and its snapshots in one transaction. inserted is
// false when a capture with the same id already exists, in which case
// nothing is written.
func (s *Store) SaveCapture(ctx context.Context, c Capture) (inserted bool, err error) {
	if c.ID == "" {
		return false, fmt.Errorf("save capture: id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("save capture: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO captures (id, seq, label, tool_version, record_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, c.ID, c.Seq, c.Label, ir.ToolVersion, ir.RecordVersion)
	if err != nil {
		return false, fmt.Errorf("save capture: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save capture: %w", err)
	}
	if n == 0 {
		return false, tx.Commit()
	}

	for _, snap := range c.Snapshots {
		if err = insertSnapshot(ctx, tx, c.ID, snap); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("save capture: commit: %w", err)
	}
	return true, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, captureID string, snap ir.StreamSnapshot) error {
	stream, err := safecast.Conv[int64](uint64(snap.Stream))
	if err != nil {
		return fmt.Errorf("save capture: %s: %w", snap.Stream, err)
	}
	fp, err := ir.SnapshotFingerprint(snap)
	if err != nil {
		return fmt.Errorf("save capture: %s: %w", snap.Stream, err)
	}
	ops, err := ir.EncodeRecords(snap.Operations)
	if err != nil {
		return fmt.Errorf("save capture: %s: %w", snap.Stream, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO capture_streams (capture_id, stream_id, fingerprint, operation_count, operations)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, captureID, stream, fp, snap.Len(), string(ops))
	if err != nil {
		return fmt.Errorf("save capture: %s: %w", snap.Stream, err)
	}
	return nil
}

// ReadCapture returns the capture with id, snapshots ascending by stream.
// Returns an error wrapping ErrNotFound for unknown ids and an
// *IntegrityError when a stored fingerprint does not match.
func (s *Store) ReadCapture(ctx context.Context, id string) (Capture, error) {
	c := Capture{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, label FROM captures WHERE id = ?
	`, id).Scan(&c.Seq, &c.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return Capture{}, fmt.Errorf("read capture %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Capture{}, fmt.Errorf("read capture %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stream_id, fingerprint, operations
		FROM capture_streams
		WHERE capture_id = ?
		ORDER BY stream_id ASC
	`, id)
	if err != nil {
		return Capture{}, fmt.Errorf("read capture %s: %w", id, err)
	}
	defer rows.Close()

	c.Snapshots = []ir.StreamSnapshot{}
	for rows.Next() {
		var (
			rawStream int64
			stored    string
			opsJSON   string
		)
		if err := rows.Scan(&rawStream, &stored, &opsJSON); err != nil {
			return Capture{}, fmt.Errorf("scan capture stream: %w", err)
		}
		snap, err := decodeSnapshot(rawStream, opsJSON)
		if err != nil {
			return Capture{}, fmt.Errorf("read capture %s: %w", id, err)
		}
		computed, err := ir.SnapshotFingerprint(snap)
		if err != nil {
			return Capture{}, fmt.Errorf("read capture %s: %w", id, err)
		}
		if computed != stored {
			return Capture{}, &IntegrityError{CaptureID: id, Stream: snap.Stream, Stored: stored, Computed: computed}
		}
		c.Snapshots = append(c.Snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return Capture{}, fmt.Errorf("iterate capture streams: %w", err)
	}
	return c, nil
}

func decodeSnapshot(rawStream int64, opsJSON string) (ir.StreamSnapshot, error) {
	stream, err := safecast.Conv[uint64](rawStream)
	if err != nil {
		return ir.StreamSnapshot{}, fmt.Errorf("stream id %d: %w", rawStream, err)
	}
	ops, err := ir.DecodeRecords([]byte(opsJSON))
	if err != nil {
		return ir.StreamSnapshot{}, fmt.Errorf("stream %d: %w", stream, err)
	}
	return ir.StreamSnapshot{Stream: ir.StreamID(stream), Operations: ops}, nil
}

// ListCaptures returns every capture ordered by seq, then id.
// Returns an empty slice (not nil) for an empty archive.
func (s *Store) ListCaptures(ctx context.Context) ([]CaptureInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.seq, c.label, c.tool_version, cs.stream_id, cs.operation_count
		FROM captures c
		LEFT JOIN capture_streams cs ON cs.capture_id = c.id
		ORDER BY c.seq ASC, c.id COLLATE BINARY ASC, cs.stream_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	infos := []CaptureInfo{}
	for rows.Next() {
		var (
			info      CaptureInfo
			rawStream sql.NullInt64
			opCount   sql.NullInt64
		)
		if err := rows.Scan(&info.ID, &info.Seq, &info.Label, &info.ToolVersion, &rawStream, &opCount); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		if len(infos) == 0 || infos[len(infos)-1].ID != info.ID {
			info.Streams = []ir.StreamID{}
			infos = append(infos, info)
		}
		if !rawStream.Valid {
			continue
		}
		stream, err := safecast.Conv[uint64](rawStream.Int64)
		if err != nil {
			return nil, fmt.Errorf("capture %s: stream id: %w", info.ID, err)
		}
		count, err := safecast.Conv[int](opCount.Int64)
		if err != nil {
			return nil, fmt.Errorf("capture %s: operation count: %w", info.ID, err)
		}
		last := &infos[len(infos)-1]
		last.Streams = append(last.Streams, ir.StreamID(stream))
		last.OperationCount += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return infos, nil
}

// FindByFingerprint returns the ids of captures holding a snapshot with
// the given fingerprint, ordered by seq then id.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.seq
		FROM capture_streams cs
		JOIN captures c ON c.id = cs.capture_id
		WHERE cs.fingerprint = ?
		ORDER BY c.seq ASC, c.id COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var (
			id  string
			seq int64
		)
		if err := rows.Scan(&id, &seq); err != nil {
			return nil, fmt.Errorf("scan capture id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capture ids: %w", err)
	}
	return ids, nil
}

// SaveSummary attaches a fusion summary to an existing capture. A second
// summary for the same capture is ignored.
func (s *Store) SaveSummary(ctx context.Context, captureID string, summary ir.FusionDebugSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO capture_summaries (capture_id, summary)
		VALUES (?, ?)
		ON CONFLICT(capture_id) DO NOTHING
	`, captureID, string(data))
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// ReadSummary returns the summary attached to a capture. ok is false when
// none was saved.
func (s *Store) ReadSummary(ctx context.Context, captureID string) (summary ir.FusionDebugSummary, ok bool, err error) {
	var data string
	err = s.db.QueryRowContext(ctx, `
		SELECT summary FROM capture_summaries WHERE capture_id = ?
	`, captureID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.FusionDebugSummary{}, false, nil
	}
	if err != nil {
		return ir.FusionDebugSummary{}, false, fmt.Errorf("read summary: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return ir.FusionDebugSummary{}, false, fmt.Errorf("read summary: %w", err)
	}
	return summary, true, nil
}
