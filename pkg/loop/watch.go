package loop

import "golang.org/x/sys/unix"

// WatchCallback is invoked when a watched descriptor becomes ready. The
// events passed are the raw readiness bitset (Readable, Writable, Hangup,
// ErrorEv, possibly combined).
type WatchCallback func(w *Watch, events Event)

// Watch binds a callback to an open descriptor's readiness. A Watch starts
// out unset (fd -1) and contributes nothing to epoll until Set is called.
type Watch struct {
	loop *Loop
	cb   WatchCallback

	fd      int
	mask    Event
	enabled bool
	armed   bool // true once epoll_ctl ADD has been issued for fd
	freed   bool
}

// NewWatch creates a disabled Watch. Call Set to bind it to a descriptor.
func (l *Loop) NewWatch(cb WatchCallback) *Watch {
	return &Watch{loop: l, cb: cb, fd: -1}
}

// Set (re)binds the watch to fd with the given readiness mask, enabling it.
// Calling Set again with a different fd or mask rebinds epoll registration.
func (w *Watch) Set(fd int, mask Event) {
	l := w.loop

	if w.armed && w.fd != fd {
		w.unregister()
	}

	w.fd = fd
	w.mask = mask
	w.enabled = true

	ev := unix.EpollEvent{Events: uint32(mask), Fd: int32(fd)}
	op := unix.EPOLL_CTL_MOD
	if !w.armed {
		op = unix.EPOLL_CTL_ADD
	}
	if err := unix.EpollCtl(l.epfd, op, fd, &ev); err != nil {
		panic("loop: epoll_ctl failed: " + err.Error())
	}
	w.armed = true
	l.watches[fd] = w
}

// Disable stops delivering events to the watch without releasing its
// descriptor's epoll registration, matching loop_watch_disable's semantics:
// the fd stays registered so Set can cheaply re-enable it later.
func (w *Watch) Disable() {
	w.enabled = false
}

// Free unregisters the watch and schedules it for removal, collected at the
// start of the next loop iteration so the callback that requested the free
// may safely be executing when this is called.
func (w *Watch) Free() {
	if w.freed {
		return
	}
	w.freed = true
	w.loop.pendingFree = append(w.loop.pendingFree, w)
}

func (w *Watch) collect() {
	w.unregister()
}

func (w *Watch) unregister() {
	if !w.armed {
		return
	}
	_ = unix.EpollCtl(w.loop.epfd, unix.EPOLL_CTL_DEL, w.fd, nil)
	if w.loop.watches[w.fd] == w {
		delete(w.loop.watches, w.fd)
	}
	w.armed = false
	w.enabled = false
}
