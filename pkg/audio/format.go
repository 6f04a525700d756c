// Package audio defines the bit-exact PCM sample formats exchanged between
// decoders and sinks. The player never converts between formats; it only
// compares and forwards them.
package audio

import (
	"encoding/binary"
	"fmt"
)

// SampleFormat is a closed enumeration of PCM sample encodings, mirrored
// from the original engine's audio_sample_fmt_type bitset so a range of
// acceptable formats can be expressed as a single bitmask.
type SampleFormat uint32

const (
	FormatALaw SampleFormat = 1 << iota
	FormatULaw
	FormatS8
	FormatS16LE
	FormatS16BE
	FormatS24LE
	FormatS24BE
	FormatS24In32LE
	FormatS24In32BE
	FormatS32LE
	FormatS32BE
	FormatU8
	FormatU16LE
	FormatU16BE
	FormatU24LE
	FormatU24BE
	FormatU24In32LE
	FormatU24In32BE
	FormatU32LE
	FormatU32BE
	FormatFloat32LE
	FormatFloat32BE
	FormatFloat64LE
	FormatFloat64BE
)

// BytesPerSample is a total function over the closed SampleFormat
// enumeration: every valid format has a well-defined byte width.
func BytesPerSample(fmt SampleFormat) int {
	switch fmt {
	case FormatALaw, FormatULaw, FormatS8, FormatU8:
		return 1
	case FormatS16LE, FormatS16BE, FormatU16LE, FormatU16BE:
		return 2
	case FormatS24LE, FormatS24BE, FormatU24LE, FormatU24BE:
		return 3
	case FormatS24In32LE, FormatS24In32BE, FormatU24In32LE, FormatU24In32BE,
		FormatS32LE, FormatS32BE, FormatU32LE, FormatU32BE, FormatFloat32LE, FormatFloat32BE:
		return 4
	case FormatFloat64LE, FormatFloat64BE:
		return 8
	default:
		return 0
	}
}

// Format is the triple (sample format, sample rate, channel count) that
// describes a PCM stream. Equality is componentwise.
type Format struct {
	SampleFmt  SampleFormat
	SampleRate uint32
	Channels   uint32
}

// Equal reports componentwise equality.
func (f Format) Equal(o Format) bool {
	return f.SampleFmt == o.SampleFmt && f.SampleRate == o.SampleRate && f.Channels == o.Channels
}

// BytesPerFrame returns the byte stride of one sample-frame (one sample on
// every channel) in this format.
func (f Format) BytesPerFrame() int {
	return BytesPerSample(f.SampleFmt) * int(f.Channels)
}

// Range is a bitset of acceptable sample formats plus inclusive bounds on
// sample rate and channel count, used by sinks to advertise what they will
// accept from set_format/flush.
type Range struct {
	SampleFmts              SampleFormat
	MinSampleRate           uint32
	MaxSampleRate           uint32
	MinChannels             uint32
	MaxChannels             uint32
}

// Includes reports whether fmt falls within the range on every axis.
func (r Range) Includes(fmt Format) bool {
	if r.SampleFmts&fmt.SampleFmt == 0 {
		return false
	}
	if fmt.SampleRate < r.MinSampleRate || fmt.SampleRate > r.MaxSampleRate {
		return false
	}
	if fmt.Channels < r.MinChannels || fmt.Channels > r.MaxChannels {
		return false
	}
	return true
}

// Marshal encodes Format as 12 little-endian bytes: sample_fmt (4),
// sample_rate (4), channels (4). Round-trips bit-exactly through Unmarshal.
func (f Format) Marshal() []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f.SampleFmt))
	binary.LittleEndian.PutUint32(buf[4:8], f.SampleRate)
	binary.LittleEndian.PutUint32(buf[8:12], f.Channels)
	return buf
}

// Unmarshal decodes a Format encoded by Marshal.
func (f *Format) Unmarshal(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("audio: format buffer too small: got %d bytes, need 12", len(data))
	}
	f.SampleFmt = SampleFormat(binary.LittleEndian.Uint32(data[0:4]))
	f.SampleRate = binary.LittleEndian.Uint32(data[4:8])
	f.Channels = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

// Marshal encodes Range as 20 little-endian bytes.
func (r Range) Marshal() []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.SampleFmts))
	binary.LittleEndian.PutUint32(buf[4:8], r.MinSampleRate)
	binary.LittleEndian.PutUint32(buf[8:12], r.MaxSampleRate)
	binary.LittleEndian.PutUint32(buf[12:16], r.MinChannels)
	binary.LittleEndian.PutUint32(buf[16:20], r.MaxChannels)
	return buf
}

// Unmarshal decodes a Range encoded by Marshal.
func (r *Range) Unmarshal(data []byte) error {
	if len(data) < 20 {
		return fmt.Errorf("audio: range buffer too small: got %d bytes, need 20", len(data))
	}
	r.SampleFmts = SampleFormat(binary.LittleEndian.Uint32(data[0:4]))
	r.MinSampleRate = binary.LittleEndian.Uint32(data[4:8])
	r.MaxSampleRate = binary.LittleEndian.Uint32(data[8:12])
	r.MinChannels = binary.LittleEndian.Uint32(data[12:16])
	r.MaxChannels = binary.LittleEndian.Uint32(data[16:20])
	return nil
}
