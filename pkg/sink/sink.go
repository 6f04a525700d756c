// Package sink defines the contract an audio output device implements: a
// pull-based outbound interface the player drives, and an inbound upcall
// interface the sink drives back to the player, delivered on whatever
// goroutine the sink runs on and trampolined through the player's delegator.
package sink

import (
	"time"

	"github.com/drgolem/playercore/pkg/audio"
)

// Info is a snapshot of the sink's own playback state, pushed to the player
// whenever it changes, whether in answer to the player's Pause/Mute or on
// the sink's own (e.g. a hardware mute button, or the device pausing
// itself). It does not describe the audio format; that is declared the
// other direction, by SetFormat/Flush.
type Info struct {
	Stopped bool
	Paused  bool
	Mute    bool

	// VolumeLeft and VolumeRight are the device's own volume levels on
	// whatever scale the concrete sink uses. PortAudioSink does not report
	// volume and leaves both at zero.
	VolumeLeft  uint8
	VolumeRight uint8
}

// Sink is the outbound, player-to-sink half of the contract. Every method
// is called from the player's own goroutine; a concrete sink's internal
// state that is also touched from its own I/O thread (a PortAudio callback,
// for instance) must synchronize that access itself.
type Sink interface {
	// Enable arms the sink to start requesting input via SinkOps.
	Enable() error

	// Disable stops the sink requesting input and discards any buffered
	// audio not yet played. The sink itself is not torn down; Enable may be
	// called again later.
	Disable() error

	// SetFormat declares the format of audio that will be committed next.
	// The player calls it when a track is loaded into an empty queue and
	// when a sink is attached while a track is queued; a track appended
	// behind one still playing does not trigger it.
	SetFormat(fmt audio.Format) error

	// Pause freezes consumption without discarding buffered audio: a
	// paused sink holds what it has and stops advancing playback.
	Pause(paused bool) error

	// Mute silences output without affecting the buffered audio or the
	// pause state.
	Mute(muted bool) error

	// ProvideBuf returns a scratch buffer the player decodes into. The
	// buffer is only valid until the matching CommitBuf call.
	ProvideBuf() ([]byte, error)

	// CommitBuf commits the first n bytes of the buffer previously
	// returned by ProvideBuf to the sink's internal queue.
	CommitBuf(buf []byte, n int) error

	// Flush discards any buffered audio not yet played and switches to
	// fmt. The player calls it when it seeks and when a load flushes the
	// queue (e.g. GotoNext).
	Flush(fmt audio.Format) error

	// Latency reports the output device's buffering delay: the interval
	// between a sample being committed and it becoming audible. The
	// player subtracts this from decoded-sample position to compute the
	// audible playback position.
	Latency() time.Duration

	// Stop releases the sink's device stream. The sink stays attached; a
	// later SetFormat or Flush opens a new stream.
	Stop() error
}

// Ops is the inbound, sink-to-player half of the contract: upcalls the sink
// makes to report its own state changes. May be called from any goroutine;
// implementations (the player) must trampoline onto their own loop.
type Ops interface {
	// RequestInput toggles whether the sink currently wants more data via
	// ProvideBuf/CommitBuf. The player must not call ProvideBuf while the
	// sink has most recently reported enable=false.
	RequestInput(enable bool)

	// InfoChanged reports the sink's stopped/paused/mute/volume state
	// after it changed, either as the acknowledgement of the player's own
	// Pause or Mute call or on the sink's own (e.g. a hardware control or
	// device-level event). The player updates its paused/mute state only
	// here.
	InfoChanged(info Info)

	// Failed reports that an unrecoverable (or, if retry is true,
	// possibly transient) I/O error occurred. The player logs it, stops
	// feeding input, disables its timers and drops its sink binding.
	Failed(retry bool)
}
