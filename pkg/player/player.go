// Package player implements the gapless playback state machine: an input
// FIFO of decoder streams feeding a single Sink, timed by two loop.Timers
// (position and track-change) and drained by one loop.Deferred
// (provideInput). Every exported method is a delegate posted to the
// player's own loop.Loop; all state below is only ever touched from that
// loop's goroutine.
package player

import (
	"context"
	"time"

	"github.com/drgolem/playercore/internal/diag"
	"github.com/drgolem/playercore/pkg/decoderstream"
	"github.com/drgolem/playercore/pkg/host"
	"github.com/drgolem/playercore/pkg/loop"
	"github.com/drgolem/playercore/pkg/sink"
)

// Player is the gapless playback engine. Construct with New, then drive it
// exclusively through its exported methods (safe from any goroutine) and
// register it as the active Sink's Ops so its upcalls land back here.
type Player struct {
	loop  *loop.Loop
	host  host.Ops
	clock Clock
	ctx   context.Context

	sink sink.Sink

	inputs []*Input
	paused bool
	mute   bool

	provideInputTask *loop.Deferred
	posTimer         *loop.Timer
	trackChangeTimer *loop.Timer

	posMsec int64
	posSec  int64 // -1 sentinel: never emitted

	posUpdateTime         time.Time
	trackChangeUpdateTime time.Time
}

// New creates a Player driven by l and reporting to h. ctx bounds the
// blocking GetNextTrackSync upcall; cancelling it unblocks a host that
// would otherwise hang the player's loop goroutine.
func New(ctx context.Context, l *loop.Loop, h host.Ops) *Player {
	p := &Player{
		loop:   l,
		host:   h,
		clock:  realClock{},
		ctx:    ctx,
		posSec: -1,
	}
	p.provideInputTask = l.NewDeferred(func(d *loop.Deferred) { p.provideInput(d) })
	p.posTimer = l.NewTimer(func(t *loop.Timer) { p.posTick() })
	p.trackChangeTimer = l.NewTimer(func(t *loop.Timer) { p.trackChangeTick() })

	now := p.clock.Now()
	p.posUpdateTime = now
	p.trackChangeUpdateTime = now
	return p
}

// --- Exported control surface: every call is a delegate onto p.loop. ---

// SetSink swaps the active output sink, stopping and disabling the old one
// (if any) before enabling the new one and, if a track is already queued,
// immediately declaring its format so output resumes gaplessly.
func (p *Player) SetSink(s sink.Sink) {
	p.loop.Delegate(func() { p.sinkLoad(s) })
}

// InputLoad queues stream (which may be nil, a terminator meaning "no more
// tracks") under cookie. If flush, every currently queued input is closed
// and dropped first. Ownership of stream passes to the player; it is
// closed when dropped or superseded.
func (p *Player) InputLoad(stream decoderstream.Stream, cookie any, flush bool) {
	p.loop.Delegate(func() { p.inputLoad(stream, cookie, flush) })
}

// GotoNext skips the current track immediately: equivalent to the EOF path
// but user-initiated, so the current head is dropped rather than drained.
func (p *Player) GotoNext() {
	p.loop.Delegate(func() { p.gotoNext() })
}

// Seek jumps the current track by deltaMS (negative rewinds), measured
// against what the listener is hearing right now, i.e. corrected for the
// sink's output latency.
func (p *Player) Seek(deltaMS int64) {
	p.loop.Delegate(func() { p.seek(deltaMS) })
}

// TogglePause requests the sink flip its pause state. The player's own
// paused flag only updates once the sink acks via InfoChanged.
func (p *Player) TogglePause() {
	p.loop.Delegate(func() {
		if p.sink == nil {
			return
		}
		if err := p.sink.Pause(!p.paused); err != nil {
			diag.Warn("player: sink pause failed", "error", err)
		}
	})
}

// ToggleMute requests the sink flip its mute state, acked via InfoChanged.
func (p *Player) ToggleMute() {
	p.loop.Delegate(func() {
		if p.sink == nil {
			return
		}
		if err := p.sink.Mute(!p.mute); err != nil {
			diag.Warn("player: sink mute failed", "error", err)
		}
	})
}

// Stop disables the input-feeding task and stops the sink's pull, without
// closing any queued inputs (InputLoad/GotoNext may resume later).
func (p *Player) Stop() {
	p.loop.Delegate(func() { p.sinkStop() })
}

// --- sink.Ops: upcalls the active sink delivers from any goroutine. ---

func (p *Player) RequestInput(enable bool) {
	p.loop.Delegate(func() {
		p.provideInputTask.SetEnabled(enable)
		if enable {
			p.loop.ForceIteration()
		}
	})
}

func (p *Player) InfoChanged(info sink.Info) {
	p.loop.Delegate(func() { p.sinkInfoChanged(info) })
}

func (p *Player) Failed(retry bool) {
	p.loop.Delegate(func() { p.sinkFailed(retry) })
}

// --- Internal state machine, only ever called on the loop goroutine. ---

func (p *Player) sinkLoad(s sink.Sink) {
	if p.sink != nil {
		p.sinkStop()
		if err := p.sink.Disable(); err != nil {
			diag.Warn("player: sink disable failed", "error", err)
		}
	}
	p.sink = s
	if s == nil {
		return
	}
	if err := s.Enable(); err != nil {
		diag.Warn("player: sink enable failed", "error", err)
	}
	if tail := p.lastInput(); tail != nil && tail.stream != nil {
		if err := s.SetFormat(tail.stream.Format()); err != nil {
			diag.Warn("player: sink set_format failed", "error", err)
		}
	}
	p.timingUpdate(true)
}

func (p *Player) inputLoad(stream decoderstream.Stream, cookie any, flush bool) {
	wasPlaying := len(p.inputs) > 0

	if flush {
		p.pauseTrackChangeTimer()
		p.closeAllInputs()
	}

	isPlaying := stream != nil

	if len(p.inputs) == 0 {
		p.host.TrackChanged(cookie)
	}

	p.inputs = append(p.inputs, &Input{stream: stream, cookie: cookie})

	switch {
	case wasPlaying && flush:
		if p.sink == nil {
			break
		}
		if isPlaying {
			if err := p.sink.Flush(stream.Format()); err != nil {
				diag.Warn("player: sink flush failed", "error", err)
			}
		} else {
			// A flush that lands with no replacement stream (the host had
			// nothing left to hand back) has no format to flush into;
			// stop pulling instead of flushing against an undefined
			// format.
			p.sinkStop()
		}
	case isPlaying && !wasPlaying:
		if p.sink != nil {
			if err := p.sink.SetFormat(stream.Format()); err != nil {
				diag.Warn("player: sink set_format failed", "error", err)
			}
		}
	case wasPlaying && !isPlaying:
		p.sinkStop()
	}

	p.timingUpdate(true)
}

func (p *Player) gotoNext() {
	stream, cookie, err := p.host.GetNextTrackSync(p.ctx)
	if err != nil {
		diag.Warn("player: get next track failed", "error", err)
		stream = nil
	}
	p.inputLoad(stream, cookie, true)
}

func (p *Player) seek(deltaMS int64) {
	head := p.firstInput()
	if head == nil {
		return
	}

	var latencyMS int64
	if p.sink != nil {
		latencyMS = p.sink.Latency().Milliseconds()
		if head.stream != nil {
			if err := p.sink.Flush(head.stream.Format()); err != nil {
				diag.Warn("player: seek flush failed", "error", err)
			}
		}
	}

	for _, in := range p.inputs[1:] {
		if in.stream != nil {
			_ = in.stream.Close()
		}
	}
	p.inputs = p.inputs[:1]
	head.eof = false

	p.pauseTrackChangeTimer()

	if head.stream != nil {
		pos, err := head.stream.SeekRelative(deltaMS - latencyMS)
		if err != nil {
			diag.Warn("player: seek failed", "error", err)
		} else {
			head.posSamples = pos
		}
	}

	p.timingUpdate(true)
}

func (p *Player) sinkStop() {
	p.provideInputTask.SetEnabled(false)
	if p.sink != nil {
		if err := p.sink.Stop(); err != nil {
			diag.Warn("player: sink stop failed", "error", err)
		}
	}
}

func (p *Player) sinkInfoChanged(info sink.Info) {
	wasPaused := p.paused
	p.paused = info.Paused
	p.mute = info.Mute

	if p.paused && !wasPaused {
		p.pauseTrackChangeTimer()
	} else if !p.paused && wasPaused {
		p.startTrackChangeTimer()
	}

	p.timingUpdate(false)
	p.host.SinkInfoChanged(info)
}

func (p *Player) sinkFailed(retry bool) {
	diag.Warn("player: sink failed", "retry", retry)
	p.provideInputTask.SetEnabled(false)
	p.posTimer.Disable()
	p.trackChangeTimer.Disable()
	p.sink = nil
}

// provideInput is the deferred task that keeps the sink fed: it runs once
// per loop iteration while the sink's last RequestInput said yes.
func (p *Player) provideInput(d *loop.Deferred) {
	if p.sink == nil {
		d.SetEnabled(false)
		return
	}

	buf, err := p.sink.ProvideBuf()
	if err != nil {
		diag.Warn("player: ProvideBuf failed", "error", err)
		d.SetEnabled(false)
		return
	}
	if len(buf) == 0 {
		_ = p.sink.CommitBuf(buf, 0)
		d.SetEnabled(false)
		return
	}

	tail := p.lastInput()
	diag.BugOn(tail == nil || tail.stream == nil, "player: provideInput invoked with no active tail")

	n, eofFlag, rerr := tail.stream.Read(buf)
	if rerr != nil {
		diag.Warn("player: decoder read failed, treating as end of stream", "error", rerr)
	}
	if cerr := p.sink.CommitBuf(buf, n); cerr != nil {
		diag.Warn("player: CommitBuf failed", "error", cerr)
	}

	if n > 0 {
		format := tail.stream.Format()
		if bpf := format.BytesPerFrame(); bpf > 0 {
			tail.posSamples += uint64(n / bpf)
		}
		p.timingUpdate(false)
	}

	if n == 0 || eofFlag || rerr != nil {
		p.inputEOF()
	}

	p.loop.ForceIteration()
}

// inputEOF marks the tail drained, starts the grace period equal to the
// sink's current output latency (audio already committed still has to
// play out), and synchronously asks the host for the next track so it can
// be queued back-to-back for gapless playback.
func (p *Player) inputEOF() {
	tail := p.lastInput()
	diag.BugOn(tail == nil, "player: inputEOF with no input loaded")

	var latencyMS int64
	if p.sink != nil {
		latencyMS = p.sink.Latency().Milliseconds()
	}
	tail.remainingMS = latencyMS
	tail.eof = true

	p.startTrackChangeTimer()
	p.timingUpdate(false)

	stream, cookie, err := p.host.GetNextTrackSync(p.ctx)
	if err != nil {
		diag.Warn("player: get next track failed", "error", err)
		stream = nil
	}
	p.inputLoad(stream, cookie, false)
}

// trackChangeTick decrements every queued input's remaining grace period
// by the elapsed wall-clock time, then pops any now-expired, already-EOF
// heads in turn, firing TrackChanged for each new head.
func (p *Player) trackChangeTick() {
	now := p.clock.Now()
	elapsed := now.Sub(p.trackChangeUpdateTime).Milliseconds()
	p.trackChangeUpdateTime = now

	for _, in := range p.inputs {
		in.remainingMS -= elapsed
	}

	for {
		head := p.firstInput()
		if head == nil || !(head.eof && head.remainingMS <= 0) {
			break
		}
		p.popHead()
		newHead := p.firstInput()
		var cookie any
		if newHead != nil {
			cookie = newHead.cookie
		}
		p.host.TrackChanged(cookie)
	}

	p.rearmOrDisableTrackChangeTimer()
	p.timingUpdate(false)
}

// pauseTrackChangeTimer performs one final decrement (so remainingMS
// reflects exactly up to this instant, not a moment later) then disables
// the timer, freezing the countdown.
func (p *Player) pauseTrackChangeTimer() {
	now := p.clock.Now()
	elapsed := now.Sub(p.trackChangeUpdateTime).Milliseconds()
	p.trackChangeUpdateTime = now

	for _, in := range p.inputs {
		in.remainingMS -= elapsed
	}
	p.trackChangeTimer.Disable()
}

// startTrackChangeTimer resets the decrement baseline to now and re-arms
// (or disables) the timer against the current head.
func (p *Player) startTrackChangeTimer() {
	p.trackChangeUpdateTime = p.clock.Now()
	p.rearmOrDisableTrackChangeTimer()
}

func (p *Player) rearmOrDisableTrackChangeTimer() {
	head := p.firstInput()
	if head == nil || !head.eof {
		p.trackChangeTimer.Disable()
		return
	}
	remaining := head.remainingMS
	if remaining < 0 {
		remaining = 0
	}
	p.trackChangeTimer.Set(time.Duration(remaining)*time.Millisecond, 0)
}

// timingUpdate recomputes pos_msec/pos_sec from the head input's decoded
// sample count, corrected for sink latency (or the fading remaining grace
// period if the head is draining after EOF), and emits PositionChanged
// per the monotonic/seeked rule: only when the whole-second value differs
// from what was last reported, and only if it increased or seeked forced
// a fresh report.
func (p *Player) timingUpdate(seeked bool) {
	head := p.firstInput()
	active := head != nil && head.stream != nil

	if !active {
		p.posMsec = 0
		p.posSec = 0
		p.posTimer.Disable()
		p.host.PositionChanged(0)
		return
	}

	if p.paused || p.sink == nil {
		p.posTimer.Disable()
		p.host.PositionChanged(uint32(p.posSecNonNegative()))
		return
	}

	now := p.clock.Now()
	p.posUpdateTime = now

	format := head.stream.Format()
	var rawMsec int64
	if format.SampleRate > 0 {
		rawMsec = int64(1000 * head.posSamples / uint64(format.SampleRate))
	}

	var latencyMS int64
	if head.eof {
		elapsed := now.Sub(p.trackChangeUpdateTime).Milliseconds()
		latencyMS = head.remainingMS - elapsed
		if latencyMS < 0 {
			latencyMS = 0
		}
	} else {
		latencyMS = p.sink.Latency().Milliseconds()
	}

	posMsec := rawMsec - latencyMS
	if posMsec < 0 {
		posMsec = 0
	}
	p.posMsec = posMsec

	newSec := posMsec / 1000
	if newSec != p.posSec && (newSec > p.posSec || seeked) {
		p.host.PositionChanged(uint32(newSec))
	}
	p.posSec = newSec

	p.armPosTimer()
}

func (p *Player) posSecNonNegative() int64 {
	if p.posSec < 0 {
		return 0
	}
	return p.posSec
}

func (p *Player) armPosTimer() {
	rem := 1000 - (p.posMsec % 1000)
	if rem <= 0 || rem > 1000 {
		rem = 1000
	}
	p.posTimer.Set(time.Duration(rem)*time.Millisecond, time.Second)
}

// posTick fires once per wall-clock second while the position timer is
// armed, advancing pos_msec by the elapsed time and reporting a new
// whole-second value when it changes.
func (p *Player) posTick() {
	if p.paused {
		return
	}
	now := p.clock.Now()
	delta := now.Sub(p.posUpdateTime).Milliseconds()
	p.posUpdateTime = now
	p.posMsec += delta

	newSec := p.posMsec / 1000
	if newSec != p.posSec {
		p.host.PositionChanged(uint32(newSec))
		p.posSec = newSec
	}
}
