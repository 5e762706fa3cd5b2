// Package broadcast implements the single-producer multi-consumer
// capacity-1 blocking broadcast channel worker-pool coordination
// relies on: one sender publishes a message, every receiver must
// handle it before the sender's Send call returns, and the sender is
// never allowed to publish a second message while any receiver is
// still outstanding on the first.
//
// Ported from original_source/src/threadpool/channel.rs, which packs
// an outstanding-receiver count and a generation bit into one atomic
// u32 "futex word" and waits/wakes via a raw OS futex
// (atomic_wait::wait/wake_all). Go exposes no raw futex, so the wait
// queue here is a sync.Mutex/sync.Cond pair guarding the same packed
// word; the bit layout and the state machine it drives (generation
// flips on every send, threads counts down to 0 before the sender
// unblocks) are unchanged from the original.
package broadcast

import (
	"fmt"
	"sync"
)

const threadsMask uint32 = 1<<31 - 1

func pack(threads uint32, generation bool) uint32 {
	var g uint32
	if generation {
		g = 1
	}
	return threads&threadsMask | g<<31
}

func unpack(w uint32) (threads uint32, generation bool) {
	return w & threadsMask, w>>31 != 0
}

type shared[T any] struct {
	mu            sync.Mutex
	cond          *sync.Cond
	word          uint32
	msg           *T
	receiverCount uint32
}

// Sender is the single producer side of a channel.
type Sender[T any] struct {
	shared *shared[T]
}

// Receiver is one consumer side of a channel. Receivers are not safe
// to share across goroutines; each worker owns exactly one.
type Receiver[T any] struct {
	shared     *shared[T]
	generation bool
}

// New creates a channel with receiverCount receivers; that count can
// never change afterward. receiverCount must be between 1 and
// 1<<31 - 1.
func New[T any](receiverCount int) (*Sender[T], []*Receiver[T]) {
	if receiverCount < 1 || receiverCount > int(threadsMask) {
		panic(fmt.Sprintf("broadcast: receiverCount %d out of range [1, %d]", receiverCount, threadsMask))
	}

	sh := &shared[T]{receiverCount: uint32(receiverCount)}
	sh.cond = sync.NewCond(&sh.mu)

	tx := &Sender[T]{shared: sh}
	rxs := make([]*Receiver[T], receiverCount)
	for i := range rxs {
		rxs[i] = &Receiver[T]{shared: sh}
	}
	return tx, rxs
}

// Send broadcasts msg to every receiver and blocks until all of them
// have handled it. Calling Send again before the previous broadcast
// has been fully received is a programmer error — since Send itself
// blocks until every receiver has caught up, this can only happen if
// the channel is used from more than one sending goroutine, which the
// single-producer contract forbids.
func (s *Sender[T]) Send(msg *T) {
	s.shared.mu.Lock()

	threads, gen := unpack(s.shared.word)
	if threads != 0 {
		s.shared.mu.Unlock()
		panic("broadcast: Send called while a previous broadcast is still outstanding")
	}
	newGen := !gen

	s.shared.msg = msg
	s.shared.word = pack(s.shared.receiverCount, newGen)
	s.shared.cond.Broadcast()

	for {
		threads, g := unpack(s.shared.word)
		if g != newGen {
			s.shared.mu.Unlock()
			panic("broadcast: futex generation invariant violated during Send")
		}
		if threads == 0 {
			break
		}
		s.shared.cond.Wait()
	}

	// Misbehaving receivers that stash the pointer past their handler
	// call will dereference a message that's no longer this channel's
	// to guarantee validity for.
	s.shared.msg = nil
	s.shared.mu.Unlock()
}

// Recv blocks until the next broadcast arrives, calls handler with the
// message, and returns handler's result. Only after handler returns
// does this receiver report itself caught up, so the sender is
// guaranteed the message stays valid for the full duration of
// handler.
func Recv[T any, R any](r *Receiver[T], handler func(*T) R) R {
	r.shared.mu.Lock()
	for {
		threads, gen := unpack(r.shared.word)
		if gen != r.generation {
			r.generation = gen
			if threads == 0 {
				r.shared.mu.Unlock()
				panic("broadcast: futex invariant violated: new generation observed with zero outstanding receivers")
			}
			break
		}
		r.shared.cond.Wait()
	}
	msg := r.shared.msg
	r.shared.mu.Unlock()

	ret := handler(msg)

	r.shared.mu.Lock()
	threads, gen := unpack(r.shared.word)
	wasLast := threads == 1
	r.shared.word = pack(threads-1, gen)
	if wasLast {
		r.shared.cond.Broadcast()
	}
	r.shared.mu.Unlock()

	return ret
}
