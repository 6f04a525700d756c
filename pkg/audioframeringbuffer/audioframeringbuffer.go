// Package audioframeringbuffer is the lock-free SPSC handoff between a
// sink's producer side (whatever commits decoded PCM) and its consumer
// side (the PortAudio callback, or any other real-time puller): see
// pkg/sink.PortAudioSink, which is this ring buffer's only caller.
package audioframeringbuffer

import (
	"sync/atomic"

	"github.com/drgolem/playercore/pkg/audioframe"
	"github.com/drgolem/playercore/pkg/types"
)

var (
	ErrInsufficientSpace = types.ErrInsufficientSpace
	ErrInsufficientData  = types.ErrInsufficientData
)

// AudioFrameRingBuffer is a fixed-capacity, power-of-2-sized ring of
// audioframe.AudioFrame. Write must only be called from the producer
// goroutine, Read only from the consumer goroutine; the two sides
// synchronize purely through the atomic read/write cursors, no locking.
type AudioFrameRingBuffer struct {
	buffer   []audioframe.AudioFrame
	size     uint64
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New creates a ring buffer sized to at least capacity frames, rounded up
// to the next power of 2 so index wrapping is a bitwise AND.
func New(capacity uint64) *AudioFrameRingBuffer {
	capacity = nextPowerOf2(capacity)

	return &AudioFrameRingBuffer{
		buffer: make([]audioframe.AudioFrame, capacity),
		size:   capacity,
		mask:   capacity - 1,
	}
}

// Write copies as many of frames as fit and reports how many that was.
// Each frame's Audio slice is deep-copied, so the caller may reuse its
// buffers immediately after Write returns.
func (rb *AudioFrameRingBuffer) Write(frames []audioframe.AudioFrame) (int, error) {
	frameCount := uint64(len(frames))
	if frameCount == 0 {
		return 0, nil
	}

	toWrite := min(frameCount, rb.AvailableWrite())
	if toWrite == 0 {
		return 0, ErrInsufficientSpace
	}

	writePos := rb.writePos.Load()
	for i := uint64(0); i < toWrite; i++ {
		pos := (writePos + i) & rb.mask
		rb.buffer[pos] = frames[i]
		rb.buffer[pos].Audio = make([]byte, len(frames[i].Audio))
		copy(rb.buffer[pos].Audio, frames[i].Audio)
	}
	rb.writePos.Store(writePos + toWrite)

	return int(toWrite), nil
}

// Read pops up to numFrames frames. Returns ErrInsufficientData only when
// the buffer is empty; a partial read because fewer frames were queued
// than requested is not an error.
func (rb *AudioFrameRingBuffer) Read(numFrames int) ([]audioframe.AudioFrame, error) {
	if numFrames <= 0 {
		return nil, nil
	}

	available := rb.AvailableRead()
	if available == 0 {
		return nil, ErrInsufficientData
	}

	toRead := min(uint64(numFrames), available)
	readPos := rb.readPos.Load()
	result := make([]audioframe.AudioFrame, toRead)
	for i := uint64(0); i < toRead; i++ {
		result[i] = rb.buffer[(readPos+i)&rb.mask]
	}
	rb.readPos.Store(readPos + toRead)

	return result, nil
}

// AvailableWrite reports how many frames can be written before Write
// starts reporting ErrInsufficientSpace.
func (rb *AudioFrameRingBuffer) AvailableWrite() uint64 {
	return rb.size - (rb.writePos.Load() - rb.readPos.Load())
}

// AvailableRead reports how many frames are queued for Read.
func (rb *AudioFrameRingBuffer) AvailableRead() uint64 {
	return rb.writePos.Load() - rb.readPos.Load()
}

// Size returns the buffer's rounded-up capacity, in frames.
func (rb *AudioFrameRingBuffer) Size() uint64 {
	return rb.size
}

// Reset drops every queued frame by snapping both cursors back to zero.
// It does not zero the underlying storage.
func (rb *AudioFrameRingBuffer) Reset() {
	rb.readPos.Store(0)
	rb.writePos.Store(0)
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
