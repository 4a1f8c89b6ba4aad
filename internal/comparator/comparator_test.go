package comparator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamrekas/geyserbench/internal/domain"
)

func obs(sig string, ts float64) domain.Observation {
	return domain.Observation{Signature: sig, Timestamp: ts, StartTime: 1.0}
}

func TestAddCountsDistinctSignatures(t *testing.T) {
	c := New(3)

	count, crossed := c.Add("a", obs("S1", 10.0))
	require.Equal(t, 1, count)
	require.False(t, crossed)

	count, crossed = c.Add("a", obs("S2", 10.1))
	require.Equal(t, 2, count)
	require.False(t, crossed)

	count, crossed = c.Add("a", obs("S3", 10.2))
	require.Equal(t, 3, count)
	require.True(t, crossed, "third distinct signature must cross the target")
	require.Equal(t, 3, c.ValidCount())
}

func TestAddSameSignatureFromTwoEndpoints(t *testing.T) {
	c := New(3)

	count, crossed := c.Add("a", obs("S1", 10.000))
	require.Equal(t, 1, count)
	require.False(t, crossed)

	// Second endpoint reporting the same signature joins the existing race;
	// the valid count must not increment again.
	count, crossed = c.Add("b", obs("S1", 10.005))
	require.Equal(t, 1, count)
	require.False(t, crossed)

	recs := c.Snapshot()
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Arrivals, 2)
	require.Equal(t, Arrival{Endpoint: "a", Timestamp: 10.000}, recs[0].Arrivals[0])
	require.Equal(t, Arrival{Endpoint: "b", Timestamp: 10.005}, recs[0].Arrivals[1])
	require.Equal(t, "a", recs[0].Winner().Endpoint)
}

func TestAddDuplicateEndpointObservationIsDropped(t *testing.T) {
	c := New(10)

	c.Add("a", obs("S1", 10.0))
	count, crossed := c.Add("a", obs("S1", 11.0))
	require.Equal(t, 1, count)
	require.False(t, crossed)

	recs := c.Snapshot()
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Arrivals, 1)
	// The retransmission must not overwrite the stored timestamp.
	require.Equal(t, 10.0, recs[0].Arrivals[0].Timestamp)
}

func TestValidCountIsMonotonic(t *testing.T) {
	c := New(100)

	prev := 0
	for i := 0; i < 50; i++ {
		sig := fmt.Sprintf("S%d", i%20) // plenty of duplicates
		count, _ := c.Add("a", obs(sig, float64(i)))
		require.GreaterOrEqual(t, count, prev)
		prev = count
	}
	require.Equal(t, 20, c.ValidCount())
}

func TestCrossingFiresExactlyOnceUnderConcurrency(t *testing.T) {
	const (
		endpoints  = 8
		signatures = 50
	)
	c := New(signatures)

	var crossings int64
	var wg sync.WaitGroup
	for e := 0; e < endpoints; e++ {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			for i := 0; i < signatures; i++ {
				_, crossed := c.Add(endpoint, obs(fmt.Sprintf("S%d", i), float64(i)))
				if crossed {
					atomic.AddInt64(&crossings, 1)
				}
			}
		}(fmt.Sprintf("ep%d", e))
	}
	wg.Wait()

	require.Equal(t, int64(1), crossings, "exactly one Add may observe the target crossing")
	require.Equal(t, signatures, c.ValidCount())
}
