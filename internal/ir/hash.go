package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"fortio.org/safecast"
)

// Domain prefixes for content-addressed fingerprints.
const (
	DomainSnapshot = "fusionscope/snapshot/v1"
	DomainRecord   = "fusionscope/record/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotToIR encodes a snapshot as {"stream":n,"operations":[...]}.
func SnapshotToIR(s StreamSnapshot) (IRObject, error) {
	stream, err := safecast.Conv[int64](uint64(s.Stream))
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	ops := make(IRArray, len(s.Operations))
	for i, op := range s.Operations {
		obj, err := RecordToIR(op)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		ops[i] = obj
	}
	return IRObject{"stream": IRInt(stream), "operations": ops}, nil
}

// SnapshotFingerprint returns a stable content hash of the snapshot.
// Two snapshots with the same stream and the same records in the same
// order always fingerprint identically.
func SnapshotFingerprint(s StreamSnapshot) (string, error) {
	obj, err := SnapshotToIR(s)
	if err != nil {
		return "", fmt.Errorf("SnapshotFingerprint: %w", err)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SnapshotFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// RecordFingerprint returns a stable content hash of a single record.
func RecordFingerprint(r OperationRecord) (string, error) {
	obj, err := RecordToIR(r)
	if err != nil {
		return "", fmt.Errorf("RecordFingerprint: %w", err)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustSnapshotFingerprint panics on error. Only for tests.
func MustSnapshotFingerprint(s StreamSnapshot) string {
	fp, err := SnapshotFingerprint(s)
	if err != nil {
		panic(err)
	}
	return fp
}
