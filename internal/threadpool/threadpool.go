// Package threadpool implements a worker pool and message protocol: a
// fixed-size vector of search workers, each receiving Ping/Clear/Go/Quit
// commands over a single internal/broadcast channel, coordinated by
// one shared atomic status flag.
//
// Ported from hailam-chessplay/internal/engine/{engine,worker}.go,
// which spawns one fresh goroutine per search call and tears it down
// when the search ends. This package instead keeps one long-lived
// goroutine per worker for the pool's lifetime, parked on
// broadcast.Recv between commands, a message-passing protocol
// generalized from that ad hoc per-search goroutine model.
package threadpool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nwelch/rookcore/internal/broadcast"
)

// Status mirrors the shared RUNNING/STOPPED flag every worker polls
// on a fixed cadence during search.
type Status int32

const (
	Running Status = iota
	Stopped
)

// Kind identifies a message's variant: a no-op sync point, a thread
// data reset, a search dispatch, or a hard shutdown.
type Kind int

const (
	KindPing Kind = iota
	KindClear
	KindGo
	KindQuit
)

// GoParams carries the payload of a Go message. Board and time
// management are external collaborators this package doesn't own, so
// they're passed through as opaque values the SearchFunc interprets.
// ReportSink, if set, is called exactly once by worker 0 after every
// worker has finished handling this Go, with every worker's ThreadData
// slot for aggregation into a final report.
type GoParams struct {
	Board       any
	TimeManager any
	ReportMode  any
	MultiPV     int
	ReportSink  func(data []*ThreadData)
}

// Message is one command sent over the pool's broadcast channel.
type Message struct {
	Kind Kind
	Go   GoParams
}

// SearchFunc is the search entry point each worker invokes on a Go
// message. isMain distinguishes worker 0, which adopts the caller's
// time manager and report mode, from helpers, which search with an
// infinite time manager and no reporting.
type SearchFunc func(ctx *WorkerContext, params GoParams, isMain bool)

// WorkerContext is what a SearchFunc receives: the worker's identity,
// its private thread data slot, and the pool's shared status flag.
type WorkerContext struct {
	ID     int
	Data   *ThreadData
	status *atomic.Int32
}

// Stopped reports whether the pool's shared status flag has been set,
// the only cooperative cancellation point search is expected to poll.
func (c *WorkerContext) Stopped() bool {
	return Status(c.status.Load()) == Stopped
}

// ThreadData is one worker's private, RWMutex-guarded state slot. Its
// contents (board copy, time manager, history tables, multi-PV width)
// are left to an external collaborator; this package only owns the
// slot's lifecycle and the synchronization around it — a sync.RWMutex
// rather than an unsafe escape hatch, since each worker writes only
// its own slot and readers are rare post-search aggregation passes.
type ThreadData struct {
	mu    sync.RWMutex
	value any
}

// Get returns the current value under a read lock, for a reporter
// aggregating results after a search without blocking the owning
// worker's next write for longer than the read itself takes.
func (t *ThreadData) Get() any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set replaces the slot's value under a write lock. Only the owning
// worker goroutine calls this.
func (t *ThreadData) Set(v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = v
}

// Pool is a fixed-size vector of search workers. Slot 0 is the main
// searcher; the rest are helpers.
type Pool struct {
	size   int
	sender *broadcast.Sender[Message]
	data   []*ThreadData
	status atomic.Int32

	// goDone tracks helpers still running the current Go's SearchFunc.
	// Go arms it with size-1 before sending; worker 0 waits on it after
	// its own SearchFunc returns, before aggregating thread data, so
	// aggregation never races a helper still writing its slot.
	goDone sync.WaitGroup

	group   *errgroup.Group
	started bool
}

// New creates a pool of size workers (defaults to runtime.GOMAXPROCS(0)
// when size <= 0) running search via fn. The pool's goroutines start
// immediately, parked waiting for the first message.
func New(size int, fn SearchFunc) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}

	sender, receivers := broadcast.New[Message](size)
	p := &Pool{
		size:   size,
		sender: sender,
		data:   make([]*ThreadData, size),
	}
	for i := range p.data {
		p.data[i] = &ThreadData{}
	}

	group := &errgroup.Group{}
	for i := 0; i < size; i++ {
		i, rx := i, receivers[i]
		group.Go(func() error {
			return p.workerLoop(i, rx, fn)
		})
	}
	p.group = group
	p.started = true

	log.Info().Int("workers", size).Msg("threadpool: pool started")
	return p
}

func (p *Pool) workerLoop(id int, rx *broadcast.Receiver[Message], fn SearchFunc) error {
	ctx := &WorkerContext{ID: id, Data: p.data[id], status: &p.status}
	for {
		quit := broadcast.Recv(rx, func(msg *Message) bool {
			switch msg.Kind {
			case KindPing:
				return false
			case KindClear:
				ctx.Data.Set(nil)
				return false
			case KindGo:
				fn(ctx, msg.Go, id == 0)
				if id == 0 {
					// Worker 0's search finishing is what ends a Go:
					// stop every helper still polling Stopped(), wait
					// for them to unwind, then aggregate and report.
					p.status.Store(int32(Stopped))
					p.goDone.Wait()
					if msg.Go.ReportSink != nil {
						msg.Go.ReportSink(p.data)
					}
				} else {
					p.goDone.Done()
				}
				return false
			case KindQuit:
				return true
			default:
				panic(fmt.Sprintf("threadpool: unknown message kind %d", msg.Kind))
			}
		})
		if quit {
			log.Debug().Int("worker", id).Msg("threadpool: worker exiting")
			return nil
		}
	}
}

// Ping sends a no-op to every worker and blocks until all have
// observed it, used to synchronize construction or flush a prior
// command.
func (p *Pool) Ping() {
	p.sender.Send(&Message{Kind: KindPing})
}

// Clear re-initializes every worker's thread data slot.
func (p *Pool) Clear() {
	p.sender.Send(&Message{Kind: KindClear})
}

// Go starts a search across the pool and blocks until worker 0's
// search returns, every helper has observed the resulting STOPPED and
// unwound, and the report sink (if any) has run. Helpers search with
// no time limit of their own — worker 0 returning is what stops them.
func (p *Pool) Go(params GoParams) {
	p.status.Store(int32(Running))
	p.goDone.Add(p.size - 1)
	p.sender.Send(&Message{Kind: KindGo, Go: params})
}

// Stop sets the shared status flag so every worker's next cooperative
// check observes STOPPED, ahead of worker 0's own search finishing —
// for an external caller (e.g. a UCI "stop" command) cutting a search
// short. Worker 0 sets the same flag itself once its own search
// returns, so a normal depth/time-limited finish doesn't need this. It
// does not interrupt workers mid Go — Quit is the only hard shutdown,
// and is queued behind any prior Go.
func (p *Pool) Stop() {
	p.status.Store(int32(Stopped))
}

// Quit tells every worker to exit its loop and waits for them to do
// so, propagating the first worker panic (converted to an error by
// errgroup's recovery) as a fatal pool error: a worker thread crashing
// is fatal to the process, and this is the join path that re-raises.
func (p *Pool) Quit() error {
	if !p.started {
		return nil
	}
	p.sender.Send(&Message{Kind: KindQuit})
	p.started = false
	return p.group.Wait()
}

// Data returns worker i's thread-data slot.
func (p *Pool) Data(i int) *ThreadData {
	return p.data[i]
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return p.size
}
