package player

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/drgolem/playercore/pkg/audio"
	"github.com/drgolem/playercore/pkg/loop"
	"github.com/drgolem/playercore/pkg/sink"
)

func newPlayerForProperty(h *fakeHost) (*Player, *loop.Loop, *fakeClock) {
	l := loop.New()
	p := New(context.Background(), l, h)
	clk := newFakeClock()
	p.clock = clk
	p.posUpdateTime = clk.Now()
	p.trackChangeUpdateTime = clk.Now()
	return p, l, clk
}

// For all sequences of pause/unpause with no other activity, the reported
// pos_sec does not change (spec.md §8).
func TestPropertyPauseTogglesNeverChangePosition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := &fakeHost{}
		p, l, _ := newPlayerForProperty(h)
		defer l.Free()

		s := newFakeSink(0)
		p.sinkLoad(s)
		format := audio.Format{SampleFmt: audio.FormatS16LE, SampleRate: 44100, Channels: 2}
		track := newFakeStream(format, 44100*3600, 4410)
		p.inputLoad(track, "a", false)

		before := h.positions[len(h.positions)-1]

		toggles := rapid.IntRange(1, 12).Draw(rt, "toggles")
		paused := false
		for i := 0; i < toggles; i++ {
			paused = !paused
			p.sinkInfoChanged(sink.Info{Paused: paused})
		}

		after := h.positions[len(h.positions)-1]
		if before != after {
			rt.Fatalf("position changed across %d pause toggles with no other activity: %d -> %d", toggles, before, after)
		}
	})
}

// For any input with eof=true at the head, once remaining_ms reaches 0 the
// head is dropped and track_changed(next_cookie) fires exactly once
// (spec.md §8), regardless of the exact latency/elapsed values drawn.
func TestPropertyTrackChangeFiresExactlyOnceAtExpiry(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := &fakeHost{}
		p, l, clk := newPlayerForProperty(h)
		defer l.Free()

		latencyMS := rapid.Int64Range(0, 2000).Draw(rt, "latencyMS")
		s := newFakeSink(latencyMS)
		p.sinkLoad(s)

		format := audio.Format{SampleFmt: audio.FormatS16LE, SampleRate: 44100, Channels: 2}
		samples := rapid.Uint64Range(1, 44100).Draw(rt, "samples")
		track := newFakeStream(format, samples, samples) // one chunk exhausts it
		p.inputLoad(track, "a", false)

		p.provideInput(p.provideInputTask)
		if len(h.trackChanges) != 1 {
			rt.Fatalf("expected exactly one TrackChanged before expiry, got %d", len(h.trackChanges))
		}

		elapsedMS := rapid.Int64Range(latencyMS, latencyMS+5000).Draw(rt, "elapsedMS")
		clk.Advance(time.Duration(elapsedMS) * time.Millisecond)
		p.trackChangeTick()

		if len(h.trackChanges) != 2 {
			rt.Fatalf("expected TrackChanged to fire exactly once more once remainingMS <= 0, got %d total (latency=%d elapsed=%d)",
				len(h.trackChanges), latencyMS, elapsedMS)
		}
	})
}

// After input_load(nil, cookie, flush=true), subsequent provideInput
// invocations are disabled and the sink is told to stop (spec.md §8).
func TestPropertyFlushToNilDisablesInputAndStopsSink(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := &fakeHost{}
		p, l, _ := newPlayerForProperty(h)
		defer l.Free()

		s := newFakeSink(rapid.Int64Range(0, 1000).Draw(rt, "latencyMS"))
		p.sinkLoad(s)

		// A flush to nil only needs to stop anything: start from a
		// genuinely playing state so the property is meaningful.
		format := audio.Format{SampleFmt: audio.FormatS16LE, SampleRate: 44100, Channels: 2}
		track := newFakeStream(format, 441000, 44100)
		p.inputLoad(track, "a", false)

		p.inputLoad(nil, rapid.String().Draw(rt, "cookie"), true)

		if p.provideInputTask.Enabled() {
			rt.Fatal("expected provideInput disabled after flush to nil")
		}
		if !s.stopped {
			rt.Fatal("expected sink.Stop() after flush to nil")
		}
	})
}
