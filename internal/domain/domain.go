package domain

import "time"

// Endpoint kinds select the runner variant driving the subscription.
const (
	KindTransactions = "transactions" // server-side transaction filter
	KindDual         = "dual"         // transaction + account-update streams
	KindBlocks       = "blocks"       // bundled block stream, client-side filter
)

// Endpoint represents one configured geyser endpoint. Immutable for the
// lifetime of a run; owned by exactly one runner task.
type Endpoint struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	XToken string `json:"x_token,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// Observation is a single arrival event: an endpoint recognized the watched
// account in its stream. Timestamps are wall-clock seconds (sub-millisecond
// resolution), captured at the moment of the match.
type Observation struct {
	RunID     string  `json:"run_id,omitempty"`
	Endpoint  string  `json:"endpoint"`
	Signature string  `json:"signature"`
	Timestamp float64 `json:"timestamp"`
	StartTime float64 `json:"start_time"`
}

// Now returns the current wall clock as fractional seconds since the Unix
// epoch. All runners in the process share this clock, so cross-endpoint
// comparisons stay consistent.
func Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// DeltaMs converts a difference of two Now() values into milliseconds.
func DeltaMs(from, to float64) float64 {
	return (to - from) * 1000.0
}
