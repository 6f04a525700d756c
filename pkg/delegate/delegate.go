// Package delegate implements the cross-thread message-passing primitive the
// player is built on: every call into the player from another goroutine is a
// Delegate posted to a Delegator and run on the owning loop's goroutine.
package delegate

import (
	"sync"

	"github.com/drgolem/playercore/pkg/channel"
)

// Delegate is a unit of work posted across goroutines, executed on the
// target loop's goroutine.
type Delegate func()

// Delegator owns a signalable channel of delegates. RunPending, called from
// the owning goroutine, drains and executes them in post order.
//
// Ordering guarantee: delegates from a single poster run in the order
// posted. There is no ordering guarantee across posters.
type Delegator struct {
	ch *channel.Channel
}

// New creates a Delegator backed by a signalable channel suitable for
// watching with pkg/loop.
func New() *Delegator {
	return &Delegator{ch: channel.New(true)}
}

// Fd returns the descriptor that becomes readable when delegates are
// pending, for loop.Watch registration.
func (d *Delegator) Fd() int {
	return d.ch.Fd()
}

// Post enqueues a delegate without blocking the caller.
func (d *Delegator) Post(fn Delegate) {
	d.ch.Push(fn)
}

// PostSync enqueues a delegate and blocks the calling goroutine until it has
// run on the target loop. Preserves FIFO ordering with concurrent Post calls
// from the same caller. Has no timeout: the delegate must not block on
// anything the loop itself is waiting for, or the two goroutines deadlock.
func (d *Delegator) PostSync(fn Delegate) {
	var wg sync.WaitGroup
	wg.Add(1)
	d.ch.Push(Delegate(func() {
		fn()
		wg.Done()
	}))
	wg.Wait()
}

// RunPending drains the channel descriptor, then pops and invokes every
// queued delegate. Must be called from the loop's own goroutine.
func (d *Delegator) RunPending() {
	d.ch.ClearFd()
	for {
		item, ok := d.ch.TryPop()
		if !ok {
			return
		}
		item.(Delegate)()
	}
}

// Close releases the underlying channel's descriptor.
func (d *Delegator) Close() error {
	return d.ch.Close()
}
