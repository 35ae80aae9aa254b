package constants

// RowStatus is the canonical terminal status for a processed input row.
type RowStatus string

// Stable values (these exact strings appear in the timing sheet and store).
const (
	RowStatusOK      RowStatus = "ok"      // extraction + normalization succeeded
	RowStatusFailed  RowStatus = "failed"  // retries exhausted or malformed response
	RowStatusTimeout RowStatus = "timeout" // last attempt ended in a per-call timeout
)
