// Package vorbis adapts github.com/jfreymuth/oggvorbis to the
// decoderstream.Stream contract.
package vorbis

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/drgolem/playercore/pkg/audio"
)

// Stream decodes an Ogg Vorbis file. oggvorbis always decodes to
// interleaved float32 samples in [-1, 1].
type Stream struct {
	file   *os.File
	reader *oggvorbis.Reader
	format audio.Format
	pos    uint64

	scratch []float32
}

// Open opens fileName for decoding.
func Open(fileName string) (*Stream, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("vorbis: open %s: %w", fileName, err)
	}

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vorbis: decode %s: %w", fileName, err)
	}

	return &Stream{
		file:   f,
		reader: r,
		format: audio.Format{
			SampleFmt:  audio.FormatFloat32LE,
			SampleRate: uint32(r.SampleRate()),
			Channels:   uint32(r.Channels()),
		},
	}, nil
}

func (s *Stream) Format() audio.Format {
	return s.format
}

func (s *Stream) Read(buf []byte) (int, bool, error) {
	samples := len(buf) / 4
	if cap(s.scratch) < samples {
		s.scratch = make([]float32, samples)
	}
	scratch := s.scratch[:samples]

	n, err := s.reader.Read(scratch)
	if n > 0 {
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(scratch[i]))
		}
		s.pos += uint64(n) / uint64(s.format.Channels)
	}
	if err != nil {
		if err == io.EOF {
			return n * 4, true, nil
		}
		return n * 4, true, err
	}
	return n * 4, false, nil
}

// SeekRelative is unsupported: jfreymuth/oggvorbis is a forward-only
// streaming decoder with no seek table.
func (s *Stream) SeekRelative(deltaMS int64) (uint64, error) {
	return s.pos, fmt.Errorf("vorbis: seek not supported")
}

func (s *Stream) Close() error {
	return s.file.Close()
}
