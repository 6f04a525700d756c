package loop

import (
	"os"
	"testing"
	"time"
)

func TestWatchFiresOnReadable(t *testing.T) {
	l := New()
	defer l.Free()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	fired := false
	watch := l.NewWatch(func(wt *Watch, ev Event) {
		fired = true
		buf := make([]byte, 1)
		r.Read(buf)
		l.Stop(0)
	})
	watch.Set(int(r.Fd()), Readable)

	go func() {
		w.Write([]byte{1})
	}()

	l.Run()

	if !fired {
		t.Fatal("expected watch callback to fire")
	}
}

func TestDeferredRunsEveryIteration(t *testing.T) {
	l := New()
	defer l.Free()

	count := 0
	var d *Deferred
	d = l.NewDeferred(func(dd *Deferred) {
		count++
		if count >= 5 {
			d.SetEnabled(false)
			l.Stop(0)
			return
		}
		l.ForceIteration()
	})
	d.SetEnabled(true)
	l.ForceIteration()

	l.Run()

	if count != 5 {
		t.Fatalf("got %d deferred runs, want 5", count)
	}
}

func TestDelegatePostWakesLoop(t *testing.T) {
	l := New()
	defer l.Free()

	ran := make(chan struct{})
	go func() {
		l.Delegate(func() {
			close(ran)
			l.Stop(0)
		})
	}()

	l.Run()

	select {
	case <-ran:
	default:
		t.Fatal("expected delegate to have run before loop stopped")
	}
}

func TestTimerFiresRepeatedly(t *testing.T) {
	l := New()
	defer l.Free()

	fires := 0
	timer := l.NewTimer(func(tm *Timer) {
		fires++
		if fires >= 3 {
			tm.Disable()
			l.Stop(0)
		}
	})
	timer.Set(5*time.Millisecond, 5*time.Millisecond)

	l.Run()

	if fires < 3 {
		t.Fatalf("got %d fires, want at least 3", fires)
	}
}

func TestWatchFreeIsSafeFromCallback(t *testing.T) {
	l := New()
	defer l.Free()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	var watch *Watch
	watch = l.NewWatch(func(wt *Watch, ev Event) {
		buf := make([]byte, 1)
		r.Read(buf)
		watch.Free()
		l.Stop(0)
	})
	watch.Set(int(r.Fd()), Readable)

	go func() {
		w.Write([]byte{1})
	}()

	l.Run()
}
