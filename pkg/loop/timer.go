package loop

import (
	"time"

	"golang.org/x/sys/unix"
)

// TimerCallback is invoked once per expiration counted since the timer was
// last read, i.e. called n times in a row if the loop fell behind and the
// timer expired n times before being serviced. This is the "catch-up"
// semantics described in spec.md §4: a position timer that missed ticks
// because the loop was busy still reports every missed tick rather than
// silently coalescing them.
type TimerCallback func(t *Timer)

// Timer is a periodic or one-shot deadline backed by a Linux timerfd.
type Timer struct {
	loop  *Loop
	cb    TimerCallback
	fd    int
	watch *Watch
	freed bool
}

// NewTimer creates a disabled timer. Call Set to arm it.
func (l *Loop) NewTimer(cb TimerCallback) *Timer {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		panic("loop: timerfd_create failed: " + err.Error())
	}

	t := &Timer{loop: l, cb: cb, fd: fd}
	t.watch = l.NewWatch(func(w *Watch, ev Event) {
		t.fire()
	})
	t.watch.Set(fd, Readable)
	t.watch.Disable()

	return t
}

// Set arms the timer to first expire after initial, then (if interval > 0)
// every interval thereafter. A zero interval makes it one-shot.
func (t *Timer) Set(initial, interval time.Duration) {
	if initial <= 0 {
		// A zero it_value would disarm the timerfd; expire at once instead.
		initial = time.Nanosecond
	}
	spec := unix.ItimerSpec{
		Value:    unix.NsecToTimespec(initial.Nanoseconds()),
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		panic("loop: timerfd_settime failed: " + err.Error())
	}
	t.watch.enabled = true
}

// Disable arms the timer to never fire again, without freeing it.
func (t *Timer) Disable() {
	var zero unix.ItimerSpec
	_ = unix.TimerfdSettime(t.fd, 0, &zero, nil)
	t.watch.Disable()
}

// Free disables and schedules the timer's resources for release at the
// start of the next loop iteration.
func (t *Timer) Free() {
	if t.freed {
		return
	}
	t.freed = true
	t.watch.Free()
	t.loop.pendingFree = append(t.loop.pendingFree, t)
}

func (t *Timer) collect() {
	_ = unix.Close(t.fd)
}

func (t *Timer) fire() {
	var b [8]byte
	n, err := unix.Read(t.fd, b[:])
	if err != nil || n != 8 {
		return
	}
	count := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56

	for i := uint64(0); i < count && !t.freed; i++ {
		t.cb(t)
	}
}
