// Package loop implements the single-threaded reactor the player runs on: an
// epoll-based descriptor multiplexer plus timers and deferred work, with a
// built-in delegator as the only thread-safe door into it.
//
// A Loop instance is owned by exactly one goroutine and is not itself
// thread-safe; only the delegate/channel path (Delegate, DelegateSync) may
// be called from other goroutines.
package loop

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/drgolem/playercore/pkg/delegate"
)

// Event is the host OS's epoll readiness bitset, passed through untranslated
// per spec.md §6.
type Event uint32

const (
	Readable Event = unix.EPOLLIN
	Writable Event = unix.EPOLLOUT
	Hangup   Event = unix.EPOLLHUP
	ErrorEv  Event = unix.EPOLLERR
)

type freeable interface {
	collect()
}

// Loop is a single-threaded reactor over epoll, timerfds, and a deferred
// work queue, plus a built-in Delegator for cross-thread control.
type Loop struct {
	epfd int

	delegator     *delegate.Delegator
	delegateWatch *Watch

	watches map[int]*Watch // fd -> watch

	deferreds []*Deferred

	pendingFree []freeable

	force   bool
	stopped bool
	stopRet int
}

// New creates an event loop with its own epoll instance and built-in
// delegator, already watching the delegator's fd.
func New() *Loop {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		panic("loop: epoll_create1 failed: " + err.Error())
	}

	l := &Loop{
		epfd:      epfd,
		delegator: delegate.New(),
		watches:   make(map[int]*Watch),
	}

	l.delegateWatch = l.NewWatch(func(w *Watch, ev Event) {
		l.delegator.RunPending()
	})
	l.delegateWatch.Set(l.delegator.Fd(), Readable)

	return l
}

// Delegator returns the loop's built-in delegator, for use by other
// goroutines that need to post work onto this loop.
func (l *Loop) Delegator() *delegate.Delegator {
	return l.delegator
}

// Delegate posts fn to run on the loop's goroutine without blocking the
// caller.
func (l *Loop) Delegate(fn delegate.Delegate) {
	l.delegator.Post(fn)
}

// DelegateSync posts fn to run on the loop's goroutine and blocks the
// caller until it has run.
func (l *Loop) DelegateSync(fn delegate.Delegate) {
	l.delegator.PostSync(fn)
}

// ForceIteration forces the next descriptor wait to use a zero timeout, so
// the loop never blocks when the caller knows more work is imminent (e.g.
// the sink may still want more input after a provide_input call).
func (l *Loop) ForceIteration() {
	l.force = true
}

// Stop causes the loop to exit after the current iteration completes, with
// Run returning ret.
func (l *Loop) Stop(ret int) {
	l.stopped = true
	l.stopRet = ret
}

// Run drives the reactor until Stop is called. Iteration order: run enabled
// deferreds, collect freed resources, wait on descriptors (zero timeout if
// ForceIteration was called, else indefinite), then dispatch ready
// descriptors.
func (l *Loop) Run() int {
	events := make([]unix.EpollEvent, 32)

	for {
		l.runDeferreds()
		l.collectFreed()

		if l.stopped {
			return l.stopRet
		}

		timeout := -1
		if l.force {
			timeout = 0
		}
		l.force = false

		n, err := unix.EpollWait(l.epfd, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			panic(fmt.Sprintf("loop: epoll_wait failed: %v", err))
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			w, ok := l.watches[fd]
			if !ok || !w.enabled {
				continue
			}
			w.cb(w, Event(events[i].Events))
		}

		if l.stopped {
			return l.stopRet
		}
	}
}

func (l *Loop) runDeferreds() {
	// Snapshot: a deferred's callback may enable/disable other deferreds
	// (or itself) for the *next* iteration without perturbing this pass.
	active := make([]*Deferred, 0, len(l.deferreds))
	for _, d := range l.deferreds {
		if d.enabled && !d.freed {
			active = append(active, d)
		}
	}
	for _, d := range active {
		if d.freed {
			continue
		}
		d.cb(d)
	}
}

func (l *Loop) collectFreed() {
	if len(l.pendingFree) == 0 {
		return
	}
	for _, f := range l.pendingFree {
		f.collect()
	}
	l.pendingFree = l.pendingFree[:0]
}

// Free releases the loop's epoll instance and built-in delegator. Must be
// called after Run has returned.
func (l *Loop) Free() {
	l.delegateWatch.Free()
	l.collectFreed()
	_ = l.delegator.Close()
	_ = unix.Close(l.epfd)
}
