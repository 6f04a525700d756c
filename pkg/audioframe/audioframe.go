// Package audioframe is the wire shape of one chunk of committed PCM
// passed from a sink's producer side to its consumer side (see
// pkg/audioframeringbuffer), and across process boundaries via
// Marshal/Unmarshal when a sink implementation needs to.
package audioframe

import (
	"encoding/binary"
	"fmt"
)

// FrameFormat is the PCM shape of a frame's Audio payload: enough to
// interpret the bytes without round-tripping through pkg/audio.Format.
type FrameFormat struct {
	SampleRate    uint32 // Hz
	Channels      uint8
	BitsPerSample uint8
}

// AudioFrame is one committed chunk of interleaved PCM plus the format it
// was committed under. SamplesCount is the number of sample-frames in
// Audio, not the byte length.
type AudioFrame struct {
	Format       FrameFormat
	SamplesCount uint16
	Audio        []byte
}

const frameHeaderSize = 12

// Marshal encodes the frame as a 12-byte little-endian header (sample
// rate, channels, bits per sample, sample count, audio length) followed by
// Audio verbatim.
func (af *AudioFrame) Marshal() []byte {
	buf := make([]byte, frameHeaderSize+len(af.Audio))

	binary.LittleEndian.PutUint32(buf[0:4], af.Format.SampleRate)
	buf[4] = af.Format.Channels
	buf[5] = af.Format.BitsPerSample
	binary.LittleEndian.PutUint16(buf[6:8], af.SamplesCount)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(af.Audio)))
	copy(buf[frameHeaderSize:], af.Audio)

	return buf
}

// Unmarshal decodes a frame encoded by Marshal, copying the audio payload
// out of data so the caller may reuse or discard it afterward.
func (af *AudioFrame) Unmarshal(data []byte) error {
	if len(data) < frameHeaderSize {
		return fmt.Errorf("audioframe: buffer too small: got %d bytes, need at least %d", len(data), frameHeaderSize)
	}

	af.Format.SampleRate = binary.LittleEndian.Uint32(data[0:4])
	af.Format.Channels = data[4]
	af.Format.BitsPerSample = data[5]
	af.SamplesCount = binary.LittleEndian.Uint16(data[6:8])
	audioLen := int(binary.LittleEndian.Uint32(data[8:12]))

	if len(data) < frameHeaderSize+audioLen {
		return fmt.Errorf("audioframe: buffer too small for audio payload: got %d bytes, need %d", len(data), frameHeaderSize+audioLen)
	}

	af.Audio = make([]byte, audioLen)
	copy(af.Audio, data[frameHeaderSize:frameHeaderSize+audioLen])

	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (af *AudioFrame) MarshalBinary() ([]byte, error) {
	return af.Marshal(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (af *AudioFrame) UnmarshalBinary(data []byte) error {
	return af.Unmarshal(data)
}
