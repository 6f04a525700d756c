package sink

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/drgolem/playercore/internal/diag"
	"github.com/drgolem/playercore/pkg/audio"
	"github.com/drgolem/playercore/pkg/audioframe"
	"github.com/drgolem/playercore/pkg/audioframeringbuffer"
)

// samplesPerChunk bounds how much audio one ProvideBuf/CommitBuf round trip
// moves, independent of the device's FramesPerBuffer.
const samplesPerChunk = 4096

// PortAudioSink is the concrete, pull-contract Sink backed by PortAudio's
// callback-mode streaming, adapted from the original engine's push-mode
// file player: the same AudioFrameRingBuffer SPSC handoff between a
// producer (here, the player calling CommitBuf) and PortAudio's own C
// audio thread (the consumer, in audioCallback).
type PortAudioSink struct {
	ops             Ops
	deviceIndex     int
	framesPerBuffer int
	ringCapacity    uint64

	mu      sync.Mutex
	stream  *portaudio.PaStream
	ringbuf *audioframeringbuffer.AudioFrameRingBuffer
	format  audio.Format
	scratch []byte

	enabled atomic.Bool
	paused  atomic.Bool
	muted   atomic.Bool

	currentFrame atomic.Pointer[audioframe.AudioFrame]
	frameOffset  int

	committedSamples atomic.Uint64
	playedSamples    atomic.Uint64
}

// New creates a sink targeting PortAudio device deviceIndex. ringCapacity
// is the ring buffer's capacity in AudioFrames (rounded up to a power of
// two); framesPerBuffer is PortAudio's own callback block size.
func New(ops Ops, deviceIndex, framesPerBuffer int, ringCapacity uint64) *PortAudioSink {
	return &PortAudioSink{
		ops:             ops,
		deviceIndex:     deviceIndex,
		framesPerBuffer: framesPerBuffer,
		ringCapacity:    ringCapacity,
		ringbuf:         audioframeringbuffer.New(ringCapacity),
	}
}

func (s *PortAudioSink) Enable() error {
	s.enabled.Store(true)
	s.mu.Lock()
	hasStream := s.stream != nil
	s.mu.Unlock()
	if hasStream {
		s.ops.RequestInput(true)
	}
	return nil
}

func (s *PortAudioSink) Disable() error {
	s.enabled.Store(false)
	s.mu.Lock()
	s.ringbuf.Reset()
	s.currentFrame.Store(nil)
	s.frameOffset = 0
	s.mu.Unlock()
	s.ops.RequestInput(false)
	return nil
}

func (s *PortAudioSink) SetFormat(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil && s.format.Equal(format) {
		return nil
	}

	if s.stream != nil {
		_ = s.stream.StopStream()
		_ = s.stream.CloseCallback()
		s.stream = nil
	}

	sampleFormat, err := paSampleFormat(format.SampleFmt)
	if err != nil {
		return err
	}

	stream := &portaudio.PaStream{
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  s.deviceIndex,
			ChannelCount: int(format.Channels),
			SampleFormat: sampleFormat,
		},
		SampleRate: float64(format.SampleRate),
	}

	if err := stream.OpenCallback(s.framesPerBuffer, s.audioCallback); err != nil {
		return fmt.Errorf("sink: open stream: %w", err)
	}
	if err := stream.StartStream(); err != nil {
		_ = stream.CloseCallback()
		return fmt.Errorf("sink: start stream: %w", err)
	}

	s.stream = stream
	s.format = format
	s.ringbuf.Reset()
	s.scratch = make([]byte, samplesPerChunk*format.BytesPerFrame())

	diag.Debug("sink: format set", "sample_rate", format.SampleRate, "channels", format.Channels)

	if s.enabled.Load() {
		s.ops.RequestInput(true)
	}

	return nil
}

func (s *PortAudioSink) Pause(paused bool) error {
	s.paused.Store(paused)
	s.ops.InfoChanged(s.info())
	return nil
}

func (s *PortAudioSink) Mute(muted bool) error {
	s.muted.Store(muted)
	s.ops.InfoChanged(s.info())
	return nil
}

// info snapshots the sink's current state for an InfoChanged upcall. A
// software sink like this one acks its own Pause/Mute calls immediately;
// a hardware-backed sink would instead call this from whatever asynchronous
// notification the device gives it.
func (s *PortAudioSink) info() Info {
	return Info{
		Paused: s.paused.Load(),
		Mute:   s.muted.Load(),
	}
}

func (s *PortAudioSink) ProvideBuf() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil, fmt.Errorf("sink: ProvideBuf called before SetFormat")
	}
	return s.scratch, nil
}

func (s *PortAudioSink) CommitBuf(buf []byte, n int) error {
	s.mu.Lock()
	fmtSnapshot := s.format
	s.mu.Unlock()

	if n <= 0 {
		return nil
	}

	frame := audioframe.AudioFrame{
		Format: audioframe.FrameFormat{
			SampleRate:    fmtSnapshot.SampleRate,
			Channels:      uint8(fmtSnapshot.Channels),
			BitsPerSample: uint8(audio.BytesPerSample(fmtSnapshot.SampleFmt) * 8),
		},
		SamplesCount: uint16(n / fmtSnapshot.BytesPerFrame()),
		Audio:        buf[:n],
	}

	toWrite := []audioframe.AudioFrame{frame}
	for len(toWrite) > 0 {
		written, err := s.ringbuf.Write(toWrite)
		if written > 0 {
			for _, f := range toWrite[:written] {
				s.committedSamples.Add(uint64(f.SamplesCount))
			}
			toWrite = toWrite[written:]
			continue
		}
		if err != nil {
			// Ring buffer is full: tell the player to stop feeding us
			// until audioCallback drains room again.
			s.ops.RequestInput(false)
			return nil
		}
	}

	if s.ringbuf.AvailableWrite() == 0 {
		s.ops.RequestInput(false)
	}
	return nil
}

func (s *PortAudioSink) Flush(format audio.Format) error {
	s.mu.Lock()
	s.ringbuf.Reset()
	s.currentFrame.Store(nil)
	s.frameOffset = 0
	s.mu.Unlock()
	s.committedSamples.Store(0)
	s.playedSamples.Store(0)
	return s.SetFormat(format)
}

// Latency reports how much queued audio the device has not yet played:
// every sample-frame committed via CommitBuf but not yet consumed by
// audioCallback, plus one device buffer's worth for PortAudio's own
// internal buffering. committedSamples/playedSamples count sample-frames
// directly rather than AudioFrame elements, since each element may hold up
// to samplesPerChunk sample-frames and counting elements would understate
// buffered audio by roughly that chunk size.
func (s *PortAudioSink) Latency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil || s.format.SampleRate == 0 {
		return 0
	}
	bufferedSamples := s.committedSamples.Load() - s.playedSamples.Load()
	deviceFrames := uint64(s.framesPerBuffer)
	return time.Duration(float64(bufferedSamples+deviceFrames) / float64(s.format.SampleRate) * float64(time.Second))
}

func (s *PortAudioSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.StopStream()
	if err != nil {
		diag.Warn("sink: stop stream failed", "error", err)
	}
	if cerr := s.stream.CloseCallback(); cerr != nil {
		diag.Warn("sink: close stream failed", "error", cerr)
		if err == nil {
			err = cerr
		}
	}
	s.stream = nil
	return err
}

// audioCallback runs on PortAudio's own audio thread, never on the player's
// loop goroutine. It is the sole consumer of the ring buffer the player's
// CommitBuf calls (the producer) write into.
func (s *PortAudioSink) audioCallback(
	input, output []byte,
	frameCount uint,
	timeInfo *portaudio.StreamCallbackTimeInfo,
	statusFlags portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {
	s.mu.Lock()
	channels := int(s.format.Channels)
	bytesPerSample := audio.BytesPerSample(s.format.SampleFmt)
	s.mu.Unlock()
	if channels == 0 || bytesPerSample == 0 {
		clear(output)
		return portaudio.Continue
	}
	bytesPerFrame := channels * bytesPerSample

	if s.paused.Load() {
		clear(output)
		return portaudio.Continue
	}

	bytesNeeded := int(frameCount) * bytesPerFrame
	written := 0

	for written < bytesNeeded {
		cur := s.currentFrame.Load()
		if cur == nil {
			frames, err := s.ringbuf.Read(1)
			if err != nil || len(frames) == 0 {
				break
			}
			s.currentFrame.Store(&frames[0])
			cur = &frames[0]
			s.frameOffset = 0
		}

		remainingInFrame := len(cur.Audio) - s.frameOffset
		remainingInOutput := bytesNeeded - written
		n := remainingInFrame
		if remainingInOutput < n {
			n = remainingInOutput
		}

		copy(output[written:written+n], cur.Audio[s.frameOffset:s.frameOffset+n])
		written += n
		s.frameOffset += n

		if s.frameOffset >= len(cur.Audio) {
			s.currentFrame.Store(nil)
			s.frameOffset = 0
		}
	}

	if written < bytesNeeded {
		clear(output[written:bytesNeeded])
	}

	if s.muted.Load() {
		clear(output)
	}

	s.playedSamples.Add(uint64(written / bytesPerFrame))

	if s.enabled.Load() && s.ringbuf.AvailableWrite() > 0 {
		s.ops.RequestInput(true)
	}

	return portaudio.Continue
}

func paSampleFormat(sampleFmt audio.SampleFormat) (portaudio.PaSampleFormat, error) {
	switch sampleFmt {
	case audio.FormatS16LE, audio.FormatS16BE:
		return portaudio.SampleFmtInt16, nil
	case audio.FormatS24LE, audio.FormatS24BE, audio.FormatS24In32LE, audio.FormatS24In32BE:
		return portaudio.SampleFmtInt24, nil
	case audio.FormatS32LE, audio.FormatS32BE:
		return portaudio.SampleFmtInt32, nil
	case audio.FormatFloat32LE, audio.FormatFloat32BE:
		return portaudio.SampleFmtFloat32, nil
	default:
		return 0, fmt.Errorf("sink: unsupported sample format %v for PortAudio output", sampleFmt)
	}
}
