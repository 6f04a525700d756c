// Package flac adapts github.com/drgolem/go-flac to the decoderstream.Stream
// contract.
package flac

import (
	"fmt"

	goflac "github.com/drgolem/go-flac/flac"

	"github.com/drgolem/playercore/pkg/audio"
)

const defaultOutputBits = 16

// Stream decodes a FLAC file, always requesting 16-bit PCM output from the
// underlying frame decoder.
type Stream struct {
	decoder *goflac.FlacDecoder
	format  audio.Format
	pos     uint64
}

// Open opens fileName for decoding.
func Open(fileName string) (*Stream, error) {
	dec, err := goflac.NewFlacFrameDecoder(defaultOutputBits)
	if err != nil {
		return nil, fmt.Errorf("flac: new decoder: %w", err)
	}

	if err := dec.Open(fileName); err != nil {
		dec.Delete()
		return nil, fmt.Errorf("flac: open %s: %w", fileName, err)
	}

	rate, channels, _ := dec.GetFormat()

	return &Stream{
		decoder: dec,
		format: audio.Format{
			SampleFmt:  audio.FormatS16LE,
			SampleRate: uint32(rate),
			Channels:   uint32(channels),
		},
	}, nil
}

func (s *Stream) Format() audio.Format {
	return s.format
}

func (s *Stream) Read(buf []byte) (int, bool, error) {
	bytesPerSample := s.format.BytesPerFrame()
	if bytesPerSample == 0 {
		return 0, true, fmt.Errorf("flac: invalid format")
	}
	samples := len(buf) / bytesPerSample
	if samples == 0 {
		return 0, false, nil
	}

	n, err := s.decoder.DecodeSamples(samples, buf)
	if err != nil {
		return n * bytesPerSample, true, err
	}
	s.pos += uint64(n)
	if n == 0 {
		return 0, true, nil
	}
	return n * bytesPerSample, false, nil
}

// SeekRelative is approximated by decoding and discarding samples for
// forward seeks; go-flac's frame decoder exposes no native seek, so
// backward seeks are reported unsupported rather than silently ignored.
func (s *Stream) SeekRelative(deltaMS int64) (uint64, error) {
	if deltaMS < 0 {
		return s.pos, fmt.Errorf("flac: backward seek not supported")
	}

	samplesToSkip := int(deltaMS) * int(s.format.SampleRate) / 1000
	scratch := make([]byte, 4096*s.format.BytesPerFrame())
	remaining := samplesToSkip

	for remaining > 0 {
		want := remaining
		if maxSamples := len(scratch) / s.format.BytesPerFrame(); want > maxSamples {
			want = maxSamples
		}
		n, eof, err := s.Read(scratch[:want*s.format.BytesPerFrame()])
		samplesRead := n / s.format.BytesPerFrame()
		remaining -= samplesRead
		if eof || err != nil || samplesRead == 0 {
			break
		}
	}

	return s.pos, nil
}

func (s *Stream) Close() error {
	s.decoder.Close()
	s.decoder.Delete()
	return nil
}
