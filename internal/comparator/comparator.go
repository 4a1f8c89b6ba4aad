package comparator

import (
	"sync"

	"github.com/iamrekas/geyserbench/internal/domain"
)

// Arrival is one endpoint's first observation of a signature.
type Arrival struct {
	Endpoint  string  `json:"endpoint"`
	Timestamp float64 `json:"timestamp"`
}

// RaceRecord aggregates the arrivals for one signature, in arrival order.
// At most one arrival per endpoint: a later observation from an endpoint that
// already has an entry is dropped, never overwritten.
type RaceRecord struct {
	Signature string    `json:"signature"`
	StartTime float64   `json:"start_time"`
	Arrivals  []Arrival `json:"arrivals"`
}

func (r *RaceRecord) has(endpoint string) bool {
	for _, a := range r.Arrivals {
		if a.Endpoint == endpoint {
			return true
		}
	}
	return false
}

// Winner returns the arrival with the smallest timestamp.
func (r RaceRecord) Winner() Arrival {
	best := r.Arrivals[0]
	for _, a := range r.Arrivals[1:] {
		if a.Timestamp < best.Timestamp {
			best = a
		}
	}
	return best
}

// Comparator is the process-wide race tracker: signature -> RaceRecord.
// Safe for concurrent use from all runner tasks; the lock is held only for
// the in-memory map mutation, never across I/O.
type Comparator struct {
	mu      sync.Mutex
	target  int
	records map[string]*RaceRecord
	valid   int
}

func New(target int) *Comparator {
	return &Comparator{
		target:  target,
		records: make(map[string]*RaceRecord),
	}
}

// Add records the endpoint's arrival for the observation's signature.
// Duplicate observations from the same endpoint for the same signature are
// dropped. It returns the valid count after the insert and whether this exact
// call made the count reach the configured target; the crossing is decided
// under the same critical section as the insert, so exactly one caller ever
// sees crossed == true.
func (c *Comparator) Add(endpoint string, obs domain.Observation) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	crossed := false
	rec, ok := c.records[obs.Signature]
	if !ok {
		rec = &RaceRecord{Signature: obs.Signature, StartTime: obs.StartTime}
		c.records[obs.Signature] = rec
		// A record is complete once any endpoint reported it; slow or
		// disconnected endpoints must not block termination.
		c.valid++
		crossed = c.target > 0 && c.valid == c.target
	}
	if !rec.has(endpoint) {
		rec.Arrivals = append(rec.Arrivals, Arrival{Endpoint: endpoint, Timestamp: obs.Timestamp})
	}
	return c.valid, crossed
}

// ValidCount returns the number of resolved races. Monotonically
// non-decreasing for the lifetime of a run.
func (c *Comparator) ValidCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Snapshot copies the current records for reporting. Meant to be called after
// the writers have stopped, but safe at any time.
func (c *Comparator) Snapshot() []RaceRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]RaceRecord, 0, len(c.records))
	for _, rec := range c.records {
		cp := RaceRecord{Signature: rec.Signature, StartTime: rec.StartTime}
		cp.Arrivals = append(cp.Arrivals, rec.Arrivals...)
		out = append(out, cp)
	}
	return out
}
