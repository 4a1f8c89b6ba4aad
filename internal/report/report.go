package report

import (
	"log"
	"sort"

	"github.com/iamrekas/geyserbench/internal/comparator"
	"github.com/iamrekas/geyserbench/internal/dualstream"
)

// WinStat counts how often one endpoint delivered a signal first.
type WinStat struct {
	Endpoint string  `json:"endpoint"`
	Wins     int     `json:"wins"`
	Percent  float64 `json:"percent"`
}

// RaceStanding summarizes one endpoint's performance across all races.
type RaceStanding struct {
	Endpoint    string  `json:"endpoint"`
	Seen        int     `json:"seen"`
	Wins        int     `json:"wins"`
	WinPercent  float64 `json:"win_percent"`
	AvgBehindMs float64 `json:"avg_behind_ms"` // mean lag behind the winner when not first
}

// DualTiming compares the account and transaction signals over signatures
// where both were observed.
type DualTiming struct {
	BothStreams             int     `json:"both_streams"`
	AccountFirst            int     `json:"account_first"`
	AccountFirstPercent     float64 `json:"account_first_percent"`
	TransactionFirst        int     `json:"transaction_first"`
	TransactionFirstPercent float64 `json:"transaction_first_percent"`
	AvgMs                   float64 `json:"avg_ms"`    // positive = transaction later
	MedianMs                float64 `json:"median_ms"`
	MinMs                   float64 `json:"min_ms"`
	MaxMs                   float64 `json:"max_ms"`
}

// Report is the final (or interim) aggregation of a run.
type Report struct {
	RunID           string         `json:"run_id"`
	Account         string         `json:"account"`
	StartTime       float64        `json:"start_time"`
	TotalSignatures int            `json:"total_signatures"`
	Races           []RaceStanding `json:"races,omitempty"`
	DualSignatures  int            `json:"dual_signatures"`
	AccountFirst    []WinStat      `json:"account_first_by_endpoint,omitempty"`
	TransactionWins []WinStat      `json:"transaction_first_by_endpoint,omitempty"`
	Dual            *DualTiming    `json:"dual_timing,omitempty"`
}

// Build aggregates the race tracker and global dual-stream snapshots into a
// Report. Pure computation: callers take the snapshots after all runners have
// joined for final numbers, or mid-run for an interim view.
func Build(runID, account string, startTime float64, races []comparator.RaceRecord, dual []dualstream.Record) Report {
	r := Report{
		RunID:           runID,
		Account:         account,
		StartTime:       startTime,
		TotalSignatures: len(races),
		DualSignatures:  len(dual),
	}
	r.Races = raceStandings(races)

	accountWins := make(map[string]int)
	txWins := make(map[string]int)
	var diffs []float64
	accountFirst, txFirst := 0, 0

	for _, rec := range dual {
		if rec.AccountEndpoint != "" {
			accountWins[rec.AccountEndpoint]++
		}
		if rec.TransactionEndpoint != "" {
			txWins[rec.TransactionEndpoint]++
		}
		if rec.Both() {
			diffs = append(diffs, (rec.TransactionTime-rec.AccountTime)*1000.0)
			if rec.AccountTime < rec.TransactionTime {
				accountFirst++
			} else {
				txFirst++
			}
		}
	}

	r.AccountFirst = winStats(accountWins, len(dual))
	r.TransactionWins = winStats(txWins, len(dual))

	if len(diffs) > 0 {
		sort.Float64s(diffs)
		sum := 0.0
		for _, d := range diffs {
			sum += d
		}
		both := len(diffs)
		r.Dual = &DualTiming{
			BothStreams:             both,
			AccountFirst:            accountFirst,
			AccountFirstPercent:     percent(accountFirst, both),
			TransactionFirst:        txFirst,
			TransactionFirstPercent: percent(txFirst, both),
			AvgMs:                   sum / float64(both),
			MedianMs:                diffs[both/2],
			MinMs:                   diffs[0],
			MaxMs:                   diffs[both-1],
		}
	}

	return r
}

func raceStandings(races []comparator.RaceRecord) []RaceStanding {
	if len(races) == 0 {
		return nil
	}

	type agg struct {
		seen      int
		wins      int
		behindSum float64
	}
	byEndpoint := make(map[string]*agg)

	for _, rec := range races {
		if len(rec.Arrivals) == 0 {
			continue
		}
		winner := rec.Winner()
		for _, a := range rec.Arrivals {
			st, ok := byEndpoint[a.Endpoint]
			if !ok {
				st = &agg{}
				byEndpoint[a.Endpoint] = st
			}
			st.seen++
			if a.Endpoint == winner.Endpoint {
				st.wins++
			} else {
				st.behindSum += (a.Timestamp - winner.Timestamp) * 1000.0
			}
		}
	}

	out := make([]RaceStanding, 0, len(byEndpoint))
	for name, st := range byEndpoint {
		s := RaceStanding{
			Endpoint:   name,
			Seen:       st.seen,
			Wins:       st.wins,
			WinPercent: percent(st.wins, len(races)),
		}
		if behind := st.seen - st.wins; behind > 0 {
			s.AvgBehindMs = st.behindSum / float64(behind)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out
}

func winStats(wins map[string]int, total int) []WinStat {
	if len(wins) == 0 {
		return nil
	}
	out := make([]WinStat, 0, len(wins))
	for name, n := range wins {
		out = append(out, WinStat{Endpoint: name, Wins: n, Percent: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100.0
}

// Log prints the report the way the run operator reads it.
func (r Report) Log(l *log.Logger) {
	l.Printf("=== GLOBAL CROSS-ENDPOINT STATISTICS (run %s) ===", r.RunID)
	l.Printf("watched account: %s", r.Account)
	l.Printf("total unique signatures tracked: %d", r.TotalSignatures)

	if len(r.Races) == 0 {
		l.Printf("no race data")
	}
	for _, s := range r.Races {
		l.Printf("race standings: %s seen=%d wins=%d (%.1f%%) avg behind winner=%.2fms",
			s.Endpoint, s.Seen, s.Wins, s.WinPercent, s.AvgBehindMs)
	}

	for _, w := range r.AccountFirst {
		l.Printf("account stream first: %s %d wins (%.1f%%)", w.Endpoint, w.Wins, w.Percent)
	}
	for _, w := range r.TransactionWins {
		l.Printf("transaction stream first: %s %d wins (%.1f%%)", w.Endpoint, w.Wins, w.Percent)
	}

	if r.Dual == nil {
		l.Printf("no signatures with both streams")
		return
	}
	d := r.Dual
	l.Printf("signatures with both streams: %d", d.BothStreams)
	l.Printf("account stream faster: %d (%.1f%%)", d.AccountFirst, d.AccountFirstPercent)
	l.Printf("transaction stream faster: %d (%.1f%%)", d.TransactionFirst, d.TransactionFirstPercent)
	l.Printf("timing difference avg=%.2fms median=%.2fms min=%.2fms max=%.2fms (positive = transaction later)",
		d.AvgMs, d.MedianMs, d.MinMs, d.MaxMs)
}

// SummarizeLocal prints a single endpoint's account-vs-transaction timing at
// runner exit. Observability only; not used for control flow.
func SummarizeLocal(l *log.Logger, endpoint string, records []dualstream.Record) {
	var diffs []float64
	accountFirst, txFirst := 0, 0
	for _, rec := range records {
		if !rec.Both() {
			continue
		}
		d := rec.TransactionTime - rec.AccountTime
		if d < 0 {
			d = -d
		}
		diffs = append(diffs, d*1000.0)
		if rec.AccountTime < rec.TransactionTime {
			accountFirst++
		} else {
			txFirst++
		}
	}

	l.Printf("[%s] stream latency: %d signatures tracked, %d with both streams",
		endpoint, len(records), len(diffs))
	if len(diffs) == 0 {
		return
	}
	sort.Float64s(diffs)
	sum := 0.0
	for _, d := range diffs {
		sum += d
	}
	both := len(diffs)
	l.Printf("[%s] account first: %d (%.1f%%), transaction first: %d (%.1f%%)",
		endpoint, accountFirst, percent(accountFirst, both), txFirst, percent(txFirst, both))
	l.Printf("[%s] latency difference avg=%.2fms median=%.2fms min=%.2fms max=%.2fms",
		endpoint, sum/float64(both), diffs[both/2], diffs[0], diffs[both-1])
}
