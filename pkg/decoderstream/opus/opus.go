// Package opus adapts gopkg.in/hraban/opus.v2 to the decoderstream.Stream
// contract over a length-prefixed Opus packet stream: 4-byte little-endian
// length followed by that many bytes of raw Opus packet, repeated to EOF.
// This is not an Ogg-Opus container demuxer (see DESIGN.md), and it is not
// a decoderstream.PacketStream: it reads this framing itself from an
// io.ReadCloser.
package opus

import (
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/drgolem/playercore/pkg/audio"
)

// maxFrameSamples is the largest decoded frame hraban/opus.v2 can hand back
// for a single packet: 120ms at 48kHz, per channel.
const maxFrameSamples = 5760

// Stream decodes a length-prefixed Opus packet stream.
type Stream struct {
	r       io.ReadCloser
	decoder *opus.Decoder
	format  audio.Format
	pos     uint64

	pcm  []int16
	pend []int16
}

// NewStream wraps r as an Opus packet stream at sampleRate/channels. Opus
// has no in-band rate/channel negotiation at the packet level, so the
// caller (typically a plugin's or host's out-of-band signaling) must supply
// them.
func NewStream(r io.ReadCloser, sampleRate, channels int) (*Stream, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("opus: new decoder: %w", err)
	}

	return &Stream{
		r:       r,
		decoder: dec,
		format: audio.Format{
			SampleFmt:  audio.FormatS16LE,
			SampleRate: uint32(sampleRate),
			Channels:   uint32(channels),
		},
		pcm: make([]int16, maxFrameSamples*channels),
	}, nil
}

func (s *Stream) Format() audio.Format {
	return s.format
}

func (s *Stream) Read(buf []byte) (int, bool, error) {
	bytesPerFrame := s.format.BytesPerFrame()
	written := 0

	for written+bytesPerFrame <= len(buf) {
		if len(s.pend) == 0 {
			packet, err := s.readPacket()
			if err != nil {
				if err == io.EOF {
					return written, true, nil
				}
				return written, true, err
			}

			n, err := s.decoder.Decode(packet, s.pcm)
			if err != nil {
				return written, true, err
			}
			s.pend = s.pcm[:n*int(s.format.Channels)]
		}

		for len(s.pend) > 0 && written+bytesPerFrame <= len(buf) {
			for ch := 0; ch < int(s.format.Channels); ch++ {
				binary.LittleEndian.PutUint16(buf[written+ch*2:written+ch*2+2], uint16(s.pend[ch]))
			}
			s.pend = s.pend[s.format.Channels:]
			written += bytesPerFrame
			s.pos++
		}
	}

	return written, false, nil
}

func (s *Stream) readPacket() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])

	packet := make([]byte, n)
	if _, err := io.ReadFull(s.r, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// SeekRelative is unsupported: a raw packet stream carries no seek table.
func (s *Stream) SeekRelative(deltaMS int64) (uint64, error) {
	return s.pos, fmt.Errorf("opus: seek not supported")
}

func (s *Stream) Close() error {
	return s.r.Close()
}
