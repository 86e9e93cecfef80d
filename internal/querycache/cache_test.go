package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchServesFreshEntryWithoutRefetch(t *testing.T) {
	c := New()
	opts := Options{StaleTime: 10 * time.Minute, GCTime: time.Hour}

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "page-1", nil
	}

	got, err := c.Fetch(context.Background(), Key("invoices", "20"), fn, opts)
	require.NoError(t, err)
	require.Equal(t, "page-1", got)

	got, err = c.Fetch(context.Background(), Key("invoices", "20"), fn, opts)
	require.NoError(t, err)
	require.Equal(t, "page-1", got)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "fresh entry must not refetch")
}

func TestFetchRefetchesAfterStale(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }
	opts := Options{StaleTime: 10 * time.Minute, GCTime: time.Hour}

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	_, err := c.Fetch(context.Background(), "k", fn, opts)
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	got, err := c.Fetch(context.Background(), "k", fn, opts)
	require.NoError(t, err)
	require.Equal(t, 2, got)
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	c := New()
	opts := Options{StaleTime: time.Minute, GCTime: time.Hour}

	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), "same-key", fn, opts)
		}(i)
	}

	// Let both callers attach before the flight completes.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "identical concurrent fetches must issue one request")
	require.Equal(t, "shared", results[0])
	require.Equal(t, "shared", results[1])
}

func TestInvalidateMarksStale(t *testing.T) {
	c := New()
	opts := Options{StaleTime: time.Hour, GCTime: 2 * time.Hour}

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	_, err := c.Fetch(context.Background(), Key("invoices", "a"), fn, opts)
	require.NoError(t, err)

	c.Invalidate(Prefix("invoices"))

	got, err := c.Fetch(context.Background(), Key("invoices", "a"), fn, opts)
	require.NoError(t, err)
	require.Equal(t, 2, got)

	// Data stays readable while stale.
	data, ok := c.Read(Key("invoices", "a"))
	require.True(t, ok)
	require.Equal(t, 2, data)
}

func TestCancelDiscardsLateResponse(t *testing.T) {
	c := New()
	opts := Options{StaleTime: time.Hour, GCTime: 2 * time.Hour}

	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		// Misbehaving fetch that ignores cancellation and returns data.
		return "stale-response", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), "k", fn, opts)
	}()

	<-started
	c.Cancel("k")
	c.Write("k", "optimistic")
	close(release)
	<-done

	data, ok := c.Read("k")
	require.True(t, ok)
	require.Equal(t, "optimistic", data, "late response must not clobber newer write")
}

func TestWriteSupersedesInFlightFetch(t *testing.T) {
	c := New()
	opts := Options{StaleTime: time.Hour, GCTime: 2 * time.Hour}

	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "from-server", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), "k", fn, opts)
	}()

	<-started
	c.Write("k", "direct")
	close(release)
	<-done

	data, _ := c.Read("k")
	require.Equal(t, "direct", data)
}

func TestFetchErrorSetsErrorStatus(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	fn := func(ctx context.Context) (any, error) { return nil, boom }

	_, err := c.Fetch(context.Background(), "k", fn, Options{})
	require.ErrorIs(t, err, boom)
	require.Equal(t, StatusError, c.Status("k"))
}

func TestCallerContextBoundsOnlyTheWait(t *testing.T) {
	c := New()
	opts := Options{StaleTime: time.Minute, GCTime: time.Hour}

	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Fetch(ctx, "k", fn, opts)
	require.ErrorIs(t, err, context.Canceled)

	// The flight itself was not aborted: once it completes, the result
	// lands in the cache for the next reader.
	close(release)
	require.Eventually(t, func() bool {
		data, ok := c.Read("k")
		return ok && data == "late"
	}, time.Second, 5*time.Millisecond)
}

func TestSweepEvictsExpiredEntries(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }
	opts := Options{StaleTime: time.Minute, GCTime: 10 * time.Minute}

	fn := func(ctx context.Context) (any, error) { return "x", nil }
	_, err := c.Fetch(context.Background(), "k", fn, opts)
	require.NoError(t, err)

	require.Zero(t, c.Sweep())

	now = now.Add(11 * time.Minute)
	require.Equal(t, 1, c.Sweep())

	_, ok := c.Read("k")
	require.False(t, ok)
}

func TestOptimisticCommitKeepsPatch(t *testing.T) {
	c := New()
	c.Write(Key("invoices", "p1"), []string{"a", "b"})
	c.Write(Key("invoices", "p2"), []string{"c"})
	c.Write(Key("transactions"), []string{"t"})

	m := c.BeginOptimistic(Prefix("invoices"), func(data any) (any, bool) {
		rows := data.([]string)
		out := make([]string, len(rows))
		copy(out, rows)
		for i := range out {
			if out[i] == "a" {
				out[i] = "A"
				return out, true
			}
		}
		return nil, false
	})
	require.Equal(t, 1, m.Touched())

	m.Commit()
	data, _ := c.Read(Key("invoices", "p1"))
	require.Equal(t, []string{"A", "b"}, data)
	other, _ := c.Read(Key("transactions"))
	require.Equal(t, []string{"t"}, other, "other resources untouched")
}

func TestOptimisticRollbackRestoresSnapshot(t *testing.T) {
	c := New()
	c.Write(Key("invoices", "p1"), []string{"a", "b"})

	m := c.BeginOptimistic(Prefix("invoices"), func(data any) (any, bool) {
		return []string{"A", "B"}, true
	})
	data, _ := c.Read(Key("invoices", "p1"))
	require.Equal(t, []string{"A", "B"}, data, "patch visible immediately")

	m.Rollback()
	data, _ = c.Read(Key("invoices", "p1"))
	require.Equal(t, []string{"a", "b"}, data, "rollback restores pre-patch data verbatim")
}

func TestKeyEscapesSeparator(t *testing.T) {
	a := Key("invoices", "x|y", "z")
	b := Key("invoices", "x", "y|z")
	require.NotEqual(t, a, b)
}
