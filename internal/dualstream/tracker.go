package dualstream

import "sync"

// Record holds the earliest account-update and transaction sightings for one
// signature. A zero timestamp means the slot is unset.
type Record struct {
	Signature           string  `json:"signature"`
	AccountTime         float64 `json:"account_time,omitempty"`
	AccountEndpoint     string  `json:"account_endpoint,omitempty"`
	TransactionTime     float64 `json:"transaction_time,omitempty"`
	TransactionEndpoint string  `json:"transaction_endpoint,omitempty"`
}

// Both reports whether both slots have been observed.
func (r Record) Both() bool {
	return r.AccountTime != 0 && r.TransactionTime != 0
}

// Local tracks one endpoint's own account-vs-transaction timing. Single
// writer (the owning runner), so no locking. First local sighting wins.
type Local struct {
	records map[string]*Record
}

func NewLocal() *Local {
	return &Local{records: make(map[string]*Record)}
}

func (l *Local) record(signature string) *Record {
	rec, ok := l.records[signature]
	if !ok {
		rec = &Record{Signature: signature}
		l.records[signature] = rec
	}
	return rec
}

// ObserveAccount records the account-update sighting and returns the record so
// the runner can report lead/lag when the other slot is already filled.
func (l *Local) ObserveAccount(signature, endpoint string, ts float64) *Record {
	rec := l.record(signature)
	if rec.AccountTime == 0 {
		rec.AccountTime = ts
		rec.AccountEndpoint = endpoint
	}
	return rec
}

// ObserveTransaction records the transaction sighting, first sighting wins.
func (l *Local) ObserveTransaction(signature, endpoint string, ts float64) *Record {
	rec := l.record(signature)
	if rec.TransactionTime == 0 {
		rec.TransactionTime = ts
		rec.TransactionEndpoint = endpoint
	}
	return rec
}

// Snapshot copies the local records.
func (l *Local) Snapshot() []Record {
	out := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, *rec)
	}
	return out
}

// Global is the cross-endpoint dual-stream tracker. Minimum-wins merge: a new
// observation replaces a slot only if strictly earlier, so the stored value
// converges to the true fastest observer regardless of task interleaving.
type Global struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewGlobal() *Global {
	return &Global{records: make(map[string]*Record)}
}

func (g *Global) record(signature string) *Record {
	rec, ok := g.records[signature]
	if !ok {
		rec = &Record{Signature: signature}
		g.records[signature] = rec
	}
	return rec
}

// MergeAccount folds an account-update sighting into the global record.
func (g *Global) MergeAccount(signature, endpoint string, ts float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.record(signature)
	if rec.AccountTime == 0 || ts < rec.AccountTime {
		rec.AccountTime = ts
		rec.AccountEndpoint = endpoint
	}
}

// MergeTransaction folds a transaction sighting into the global record.
func (g *Global) MergeTransaction(signature, endpoint string, ts float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.record(signature)
	if rec.TransactionTime == 0 || ts < rec.TransactionTime {
		rec.TransactionTime = ts
		rec.TransactionEndpoint = endpoint
	}
}

// Snapshot copies the global records. The reporter reads it strictly after
// every writer has terminated; correctness there is enforced by task join,
// not by this lock alone.
func (g *Global) Snapshot() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Record, 0, len(g.records))
	for _, rec := range g.records {
		out = append(out, *rec)
	}
	return out
}
