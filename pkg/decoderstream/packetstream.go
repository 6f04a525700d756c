package decoderstream

import (
	"context"
	"io"
	"sync"

	"github.com/drgolem/playercore/pkg/audio"
)

// AudioPacket is a chunk of already-decoded PCM handed to a PacketStream by
// an AudioPacketProvider, e.g. a network source or an in-memory buffer fed
// by another goroutine.
type AudioPacket struct {
	Data   []byte
	Format audio.Format
}

// AudioPacketProvider is the source side of a PacketStream: anything that
// can hand over the next chunk of decoded audio on demand. Implementations
// return io.EOF once no more packets will ever arrive.
type AudioPacketProvider interface {
	ReadAudioPacket(ctx context.Context) (*AudioPacket, error)
}

// PacketStream adapts an AudioPacketProvider, which pushes whole packets,
// to the Stream contract, which pulls into a caller-owned buffer. It is the
// seam a plugin author uses to back the player with a source that isn't a
// local file: a network stream, a synthetic test source, a ring buffer fed
// by another goroutine.
//
// PacketStream does not support seeking; callers needing seekable streaming
// sources must implement Stream directly.
type PacketStream struct {
	ctx      context.Context
	provider AudioPacketProvider

	mu     sync.Mutex
	format audio.Format
	pend   []byte
	eof    bool
}

// NewPacketStream creates a PacketStream over provider. initial is the
// format reported by Format until the first packet (possibly carrying a
// different format) arrives.
func NewPacketStream(ctx context.Context, provider AudioPacketProvider, initial audio.Format) *PacketStream {
	return &PacketStream{
		ctx:      ctx,
		provider: provider,
		format:   initial,
	}
}

func (s *PacketStream) Format() audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

func (s *PacketStream) Read(buf []byte) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pend) == 0 && !s.eof {
		pkt, err := s.provider.ReadAudioPacket(s.ctx)
		if err != nil {
			s.eof = true
			if err == io.EOF {
				return 0, true, nil
			}
			return 0, true, err
		}
		s.format = pkt.Format
		s.pend = pkt.Data
	}

	n := copy(buf, s.pend)
	s.pend = s.pend[n:]

	return n, s.eof && len(s.pend) == 0, nil
}

// SeekRelative is unsupported; PacketStream sources are push-only. It
// tracks no read position, so it reports position 0 along with the error.
func (s *PacketStream) SeekRelative(deltaMS int64) (uint64, error) {
	return 0, errSeekUnsupported
}

func (s *PacketStream) Close() error {
	return nil
}

var errSeekUnsupported = seekUnsupportedError{}

type seekUnsupportedError struct{}

func (seekUnsupportedError) Error() string { return "decoderstream: seek not supported" }
