package dualstream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalFirstSightingWins(t *testing.T) {
	l := NewLocal()

	rec := l.ObserveAccount("S1", "a", 5.000)
	require.Equal(t, 5.000, rec.AccountTime)

	// A second local account sighting does not move the slot, even if earlier.
	rec = l.ObserveAccount("S1", "a", 4.000)
	require.Equal(t, 5.000, rec.AccountTime)

	rec = l.ObserveTransaction("S1", "a", 5.020)
	require.Equal(t, 5.020, rec.TransactionTime)
	require.True(t, rec.Both())

	// Scenario: account at 5.000, transaction at 5.020 -> 20ms, account first.
	require.InDelta(t, 20.0, (rec.TransactionTime-rec.AccountTime)*1000.0, 1e-9)
	require.Less(t, rec.AccountTime, rec.TransactionTime)
}

func TestGlobalMinimumWins(t *testing.T) {
	g := NewGlobal()

	g.MergeAccount("S1", "slow", 10.004)
	g.MergeAccount("S1", "fast", 10.001)
	g.MergeAccount("S1", "late", 10.009)

	g.MergeTransaction("S1", "b", 10.010)
	g.MergeTransaction("S1", "a", 10.020)

	recs := g.Snapshot()
	require.Len(t, recs, 1)
	rec := recs[0]
	require.Equal(t, 10.001, rec.AccountTime)
	require.Equal(t, "fast", rec.AccountEndpoint)
	require.Equal(t, 10.010, rec.TransactionTime)
	require.Equal(t, "b", rec.TransactionEndpoint)
}

func TestGlobalEqualTimestampDoesNotReplace(t *testing.T) {
	g := NewGlobal()

	g.MergeAccount("S1", "first", 10.000)
	g.MergeAccount("S1", "second", 10.000)

	rec := g.Snapshot()[0]
	require.Equal(t, "first", rec.AccountEndpoint, "replacement requires a strictly earlier timestamp")
}

func TestGlobalMergeConvergesUnderConcurrency(t *testing.T) {
	g := NewGlobal()

	var wg sync.WaitGroup
	for e := 0; e < 8; e++ {
		wg.Add(1)
		go func(offset float64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				g.MergeAccount("S1", "x", 100.0+offset+float64(i))
			}
		}(float64(e))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.MergeAccount("S1", "winner", 99.5)
	}()
	wg.Wait()

	rec := g.Snapshot()[0]
	require.Equal(t, 99.5, rec.AccountTime)
	require.Equal(t, "winner", rec.AccountEndpoint)
}
