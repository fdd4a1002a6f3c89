package domain

// RunState is the lifecycle state of one pipeline run.
type RunState string

// Pipeline run states.
//
//	RECEIVED -> INDEXING -> {INDEX_FAILED | INDEXED} -> ANSWERING -> DONE
const (
	RunReceived    RunState = "RECEIVED"
	RunIndexing    RunState = "INDEXING"
	RunIndexFailed RunState = "INDEX_FAILED"
	RunIndexed     RunState = "INDEXED"
	RunAnswering   RunState = "ANSWERING"
	RunDone        RunState = "DONE"
)

// IsTerminal returns true if no further transition is possible.
func (s RunState) IsTerminal() bool {
	return s == RunIndexFailed || s == RunDone
}

// CanTransition returns true if moving from s to next is allowed.
func (s RunState) CanTransition(next RunState) bool {
	switch s {
	case RunReceived:
		return next == RunIndexing
	case RunIndexing:
		return next == RunIndexFailed || next == RunIndexed
	case RunIndexed:
		return next == RunAnswering
	case RunAnswering:
		return next == RunDone
	default:
		return false
	}
}

// String returns the string representation.
func (s RunState) String() string {
	return string(s)
}

// RetrievalOptions configures maximal-marginal-relevance retrieval.
type RetrievalOptions struct {
	// K is the number of chunks returned per query.
	K int

	// FetchK is the size of the candidate pool, at least K.
	FetchK int

	// Lambda balances relevance (1.0) against diversity (0.0).
	Lambda float64
}

// DefaultRetrievalOptions returns k=5, fetch_k=10, lambda=0.5.
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{K: 5, FetchK: 10, Lambda: 0.5}
}

// Normalise fills zero values with defaults and enforces FetchK >= K.
func (o RetrievalOptions) Normalise() RetrievalOptions {
	def := DefaultRetrievalOptions()
	if o.K <= 0 {
		o.K = def.K
	}
	if o.FetchK <= 0 {
		o.FetchK = def.FetchK
	}
	if o.FetchK < o.K {
		o.FetchK = o.K
	}
	if o.Lambda < 0 || o.Lambda > 1 {
		o.Lambda = def.Lambda
	}
	return o
}
