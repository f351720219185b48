// Package ir defines the operation-record model shared by every other
// fusionscope package.
//
// This package contains types and their encodings only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Operation records are immutable once enqueued; Clone before handing
//     them across an ownership boundary
//   - Tensor provenance is never stored, it is derived from a snapshot
//   - NO float types in params - scalars travel as decimal text
//   - Canonical JSON (sorted keys, NFC strings) is the only encoding used
//     for fingerprints
package ir
