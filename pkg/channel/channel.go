// Package channel implements a thread-safe FIFO of opaque items, optionally
// backed by a Linux eventfd so it can be watched by an epoll-based event
// loop. It is the sole shared mutable state between the player's threads;
// every other cross-thread interaction is layered on top of it.
package channel

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Channel is a thread-safe FIFO of opaque items. When constructed with
// signalable=true it owns a non-blocking eventfd, for epoll integration with
// pkg/loop, that is readable whenever a Push has happened since the last
// ClearFd (see signal).
type Channel struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  []any

	fd int // -1 if not signalable
}

// New creates a Channel. If signalable is true, an eventfd is allocated;
// allocation failure is treated as fatal, matching the original engine's
// "allocation failures are fatal" error policy.
func New(signalable bool) *Channel {
	c := &Channel{fd: -1}
	c.cond = sync.NewCond(&c.mu)

	if signalable {
		fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
		if err != nil {
			panic("channel: eventfd allocation failed: " + err.Error())
		}
		c.fd = fd
	}

	return c
}

// Fd returns the channel's eventfd, or -1 if it was not constructed
// signalable.
func (c *Channel) Fd() int {
	return c.fd
}

// Push appends an item. Never blocks.
func (c *Channel) Push(item any) {
	c.mu.Lock()
	c.buf = append(c.buf, item)
	c.mu.Unlock()

	c.signal()
	c.cond.Signal()
}

// TryPop removes and returns the head item, or (nil, false) if empty.
func (c *Channel) TryPop() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popLocked()
}

// PopWait blocks on the internal condition variable until an item is
// available, then pops and returns it.
func (c *Channel) PopWait() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.buf) == 0 {
		c.cond.Wait()
	}
	item, _ := c.popLocked()
	return item
}

func (c *Channel) popLocked() (any, bool) {
	if len(c.buf) == 0 {
		return nil, false
	}
	item := c.buf[0]
	c.buf[0] = nil
	c.buf = c.buf[1:]
	return item, true
}

// RemoveIf removes every queued item for which pred returns true. Safe to
// call while other goroutines are blocked in PopWait.
func (c *Channel) RemoveIf(pred func(item any) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.buf[:0]
	for _, item := range c.buf {
		if !pred(item) {
			kept = append(kept, item)
		}
	}
	c.buf = kept
}

// Len reports the number of items currently queued.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// signal bumps the eventfd counter by one if the channel is signalable. The
// fd is level-triggered against emptiness by construction: epoll reports it
// readable whenever the counter is non-zero, i.e. whenever a push has
// happened that ClearFd has not yet observed as drained.
func (c *Channel) signal() {
	if c.fd < 0 {
		return
	}
	var b [8]byte
	putUint64LE(b[:], 1)
	_, _ = unix.Write(c.fd, b[:])
}

// ClearFd drains the eventfd counter. Callers re-arm it implicitly by
// pushing again.
func (c *Channel) ClearFd() {
	if c.fd < 0 {
		return
	}
	var b [8]byte
	for {
		n, err := unix.Read(c.fd, b[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases the eventfd, if any.
func (c *Channel) Close() error {
	if c.fd < 0 {
		return nil
	}
	fd := c.fd
	c.fd = -1
	return unix.Close(fd)
}

func putUint64LE(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
