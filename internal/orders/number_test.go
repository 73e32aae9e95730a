package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
)

func TestFormatNumber(t *testing.T) {
	at := time.Date(2026, 3, 7, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	require.Equal(t, "ORD-20260308-000042", FormatNumber(at, 42))
	require.Equal(t, "ORD-20260308-1234567", FormatNumber(at, 1234567))
}

func TestDaySequencerIncrementsPerDay(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	seq := NewDaySequencer(client.DB())

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, "20260101")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	got, err := seq.Next(ctx, "20260102")
	require.NoError(t, err)
	require.Equal(t, int64(1), got, "each day starts over")
}

func TestDaySequencerConcurrentValuesAreUnique(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	seq := NewDaySequencer(client.DB())

	const workers = 10
	values := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(ctx, "20260101")
			if err == nil {
				values <- v
			}
		}()
	}
	wg.Wait()
	close(values)

	seen := map[int64]bool{}
	for v := range values {
		require.False(t, seen[v], "duplicate sequence value %d", v)
		seen[v] = true
	}
	require.Len(t, seen, workers)
}

type fakeCounter struct {
	mu     sync.Mutex
	values map[string]int64
	ttls   map[string]time.Duration
}

func (f *fakeCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = map[string]int64{}
		f.ttls = map[string]time.Duration{}
	}
	f.values[key]++
	if f.values[key] == 1 {
		f.ttls[key] = ttl
	}
	return f.values[key], nil
}

func (f *fakeCounter) SequenceKey(name, day string) string {
	return "mkt:seq:" + name + ":" + day
}

func TestRedisSequencerUsesDailyKey(t *testing.T) {
	ctx := context.Background()
	store := &fakeCounter{}
	seq := NewRedisSequencer(store)

	first, err := seq.Next(ctx, "20260101")
	require.NoError(t, err)
	second, err := seq.Next(ctx, "20260101")
	require.NoError(t, err)
	require.Equal(t, int64(1), first)
	require.Equal(t, int64(2), second)
	require.Equal(t, redisSeqMaxAge, store.ttls["mkt:seq:orders:20260101"])
}
