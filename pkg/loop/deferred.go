package loop

// DeferredCallback runs once per loop iteration while its Deferred is
// enabled, before the loop waits on any descriptor. A deferred task that
// keeps re-enabling itself effectively forces the loop to keep iterating;
// pairing it with ForceIteration is how the player flushes a chain of work
// (e.g. repeated provide_input calls) before going back to sleep.
type DeferredCallback func(d *Deferred)

// Deferred is a callback run once per loop iteration while enabled.
type Deferred struct {
	loop    *Loop
	cb      DeferredCallback
	enabled bool
	freed   bool
}

// NewDeferred creates a disabled deferred task.
func (l *Loop) NewDeferred(cb DeferredCallback) *Deferred {
	d := &Deferred{loop: l, cb: cb}
	l.deferreds = append(l.deferreds, d)
	return d
}

// SetEnabled toggles whether the deferred runs on subsequent iterations.
// Toggling it from within its own callback affects only the *next*
// iteration; the current pass already snapshotted who runs.
func (d *Deferred) SetEnabled(enabled bool) {
	d.enabled = enabled
}

// Enabled reports whether the deferred is currently set to run.
func (d *Deferred) Enabled() bool {
	return d.enabled
}

// Free disables the deferred and schedules it for removal from the loop's
// list at the start of the next iteration, so it is safe to call from
// within the deferred's own callback.
func (d *Deferred) Free() {
	if d.freed {
		return
	}
	d.freed = true
	d.enabled = false
	d.loop.pendingFree = append(d.loop.pendingFree, d)
}

func (d *Deferred) collect() {
	l := d.loop
	kept := l.deferreds[:0]
	for _, other := range l.deferreds {
		if other != d {
			kept = append(kept, other)
		}
	}
	l.deferreds = kept
}
