// Package mp3 adapts github.com/imcarsen/go-mp3 to the decoderstream.Stream
// contract.
package mp3

import (
	"fmt"
	"io"
	"os"

	gomp3 "github.com/imcarsen/go-mp3"

	"github.com/drgolem/playercore/pkg/audio"
)

// Stream decodes an MP3 file. go-mp3 always yields interleaved 16-bit
// little-endian stereo, regardless of the source channel count.
type Stream struct {
	file    *os.File
	decoder *gomp3.Decoder
	format  audio.Format
}

// Open opens fileName and primes the decoder, reading the first frame to
// establish the sample rate.
func Open(fileName string) (*Stream, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("mp3: open %s: %w", fileName, err)
	}

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mp3: decode %s: %w", fileName, err)
	}

	return &Stream{
		file:    f,
		decoder: dec,
		format: audio.Format{
			SampleFmt:  audio.FormatS16LE,
			SampleRate: uint32(dec.SampleRate()),
			Channels:   2,
		},
	}, nil
}

func (s *Stream) Format() audio.Format {
	return s.format
}

func (s *Stream) Read(buf []byte) (int, bool, error) {
	n, err := s.decoder.Read(buf)
	if err != nil {
		if err == io.EOF {
			return n, true, nil
		}
		return n, true, err
	}
	return n, false, nil
}

// SeekRelative seeks by deltaMS milliseconds. go-mp3's Seek is byte-offset
// based over 4-byte (stereo 16-bit) sample frames.
func (s *Stream) SeekRelative(deltaMS int64) (uint64, error) {
	cur, err := s.decoder.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	deltaBytes := int64(float64(deltaMS) / 1000.0 * float64(s.format.SampleRate) * 4)
	next := cur + deltaBytes
	if next < 0 {
		next = 0
	}
	next &^= 3

	pos, err := s.decoder.Seek(next, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return uint64(pos / 4), nil
}

func (s *Stream) Close() error {
	return s.file.Close()
}
