package threadpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoDistinguishesMainFromHelpers(t *testing.T) {
	const size = 4
	var mainCount, helperCount atomic.Int32
	var wg sync.WaitGroup
	wg.Add(size)

	p := New(size, func(ctx *WorkerContext, params GoParams, isMain bool) {
		defer wg.Done()
		if isMain {
			mainCount.Add(1)
			require.Equal(t, 0, ctx.ID, "only worker 0 should be told it's the main searcher")
		} else {
			helperCount.Add(1)
			require.NotEqual(t, 0, ctx.ID)
		}
	})
	defer p.Quit()

	p.Go(GoParams{MultiPV: 1})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers never finished their Go handler")
	}

	require.Equal(t, int32(1), mainCount.Load())
	require.Equal(t, int32(size-1), helperCount.Load())
}

// TestStopIsObservedByAllWorkers simulates the real Lazy-SMP shape:
// worker 0 reaches its target and returns on its own, which must stop
// every helper still polling Stopped() without an external Stop call.
func TestStopIsObservedByAllWorkers(t *testing.T) {
	const size = 3
	var observed atomic.Int32

	p := New(size, func(ctx *WorkerContext, params GoParams, isMain bool) {
		if isMain {
			time.Sleep(20 * time.Millisecond)
			return
		}
		for !ctx.Stopped() {
			time.Sleep(time.Millisecond)
		}
		observed.Add(1)
	})
	defer p.Quit()

	done := make(chan struct{})
	go func() {
		p.Go(GoParams{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Go never returned after worker 0's search finished")
	}
	require.Equal(t, int32(size-1), observed.Load())
}

// TestGoInvokesReportSinkAfterAllWorkersFinish checks worker 0 runs
// the report sink only once every worker's slot has its final value,
// and that Go itself doesn't return until the sink has run.
func TestGoInvokesReportSinkAfterAllWorkersFinish(t *testing.T) {
	const size = 4
	p := New(size, func(ctx *WorkerContext, params GoParams, isMain bool) {
		if !isMain {
			time.Sleep(time.Duration(ctx.ID) * 5 * time.Millisecond)
		}
		ctx.Data.Set(ctx.ID * 10)
	})
	defer p.Quit()

	var reported []int
	p.Go(GoParams{
		ReportSink: func(data []*ThreadData) {
			for _, d := range data {
				reported = append(reported, d.Get().(int))
			}
		},
	})

	require.Equal(t, []int{0, 10, 20, 30}, reported)
}

func TestPingRoundTripsThroughAllWorkers(t *testing.T) {
	p := New(3, func(ctx *WorkerContext, params GoParams, isMain bool) {})
	defer p.Quit()

	done := make(chan struct{})
	go func() {
		p.Ping()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Ping never returned")
	}
}

func TestClearResetsEveryWorkersThreadData(t *testing.T) {
	p := New(2, func(ctx *WorkerContext, params GoParams, isMain bool) {})
	defer p.Quit()

	p.Data(0).Set(42)
	p.Data(1).Set("x")
	require.Equal(t, 42, p.Data(0).Get())

	p.Clear()

	require.Nil(t, p.Data(0).Get())
	require.Nil(t, p.Data(1).Get())
}

func TestQuitIsQueuedBehindAPriorGo(t *testing.T) {
	const size = 2
	started := make(chan struct{}, size)
	release := make(chan struct{})

	p := New(size, func(ctx *WorkerContext, params GoParams, isMain bool) {
		started <- struct{}{}
		<-release
	})

	go p.Go(GoParams{})
	for i := 0; i < size; i++ {
		<-started
	}

	quitDone := make(chan error, 1)
	go func() { quitDone <- p.Quit() }()

	select {
	case <-quitDone:
		t.Fatal("Quit returned before the in-flight Go finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-quitDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Quit never returned after the in-flight Go completed")
	}
}

func TestQuitIsIdempotent(t *testing.T) {
	p := New(2, func(ctx *WorkerContext, params GoParams, isMain bool) {})
	require.NoError(t, p.Quit())
	require.NoError(t, p.Quit())
}

func TestNewDefaultsSizeToGOMAXPROCS(t *testing.T) {
	p := New(0, func(ctx *WorkerContext, params GoParams, isMain bool) {})
	defer p.Quit()
	require.Greater(t, p.Size(), 0)
}

func TestThreadDataAggregationAfterSearch(t *testing.T) {
	const size = 4
	p := New(size, func(ctx *WorkerContext, params GoParams, isMain bool) {
		ctx.Data.Set(ctx.ID * 10)
	})
	defer p.Quit()

	p.Go(GoParams{})
	p.Ping() // Ping after Go only returns once every worker has drained its Go handler.

	var sum int
	for i := 0; i < size; i++ {
		sum += p.Data(i).Get().(int)
	}
	require.Equal(t, 0+10+20+30, sum)
}
