// Where: internal/snapshot/errors.go
// What: Sentinel errors for the snapshot table.
// Why: Let callers tell the recoverable "table missing" case from real failures.
package snapshot

import "errors"

var (
	// ErrStoreNotFound means the snapshot table does not exist yet.
	ErrStoreNotFound = errors.New("snapshot table not found")
	// ErrSnapshotNotFound means the table exists but holds no record for the service.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
