// Package wav adapts github.com/youpy/go-wav to the decoderstream.Stream
// contract.
package wav

import (
	"fmt"
	"io"
	"os"

	gowav "github.com/youpy/go-wav"

	"github.com/drgolem/playercore/pkg/audio"
)

// Stream decodes a PCM WAV file.
type Stream struct {
	file   *os.File
	reader *gowav.Reader
	format audio.Format
	bps    int
	pos    uint64
}

// Open opens fileName for decoding. Only uncompressed PCM WAV is supported.
func Open(fileName string) (*Stream, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("wav: open %s: %w", fileName, err)
	}

	reader := gowav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wav: read format of %s: %w", fileName, err)
	}
	if format.AudioFormat != gowav.AudioFormatPCM {
		f.Close()
		return nil, fmt.Errorf("wav: unsupported audio format %d (only PCM)", format.AudioFormat)
	}

	sampleFmt, err := sampleFormatFor(int(format.BitsPerSample))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Stream{
		file:   f,
		reader: reader,
		bps:    int(format.BitsPerSample),
		format: audio.Format{
			SampleFmt:  sampleFmt,
			SampleRate: format.SampleRate,
			Channels:   uint32(format.NumChannels),
		},
	}, nil
}

func sampleFormatFor(bits int) (audio.SampleFormat, error) {
	switch bits {
	case 8:
		return audio.FormatU8, nil
	case 16:
		return audio.FormatS16LE, nil
	case 24:
		return audio.FormatS24LE, nil
	case 32:
		return audio.FormatS32LE, nil
	default:
		return 0, fmt.Errorf("wav: unsupported bits per sample: %d", bits)
	}
}

func (s *Stream) Format() audio.Format {
	return s.format
}

// Read decodes one sample-frame at a time, as go-wav's reader has no bulk
// decode call, writing little-endian bytes for each channel.
func (s *Stream) Read(buf []byte) (int, bool, error) {
	bytesPerFrame := s.format.BytesPerFrame()
	if bytesPerFrame == 0 {
		return 0, true, fmt.Errorf("wav: invalid format")
	}
	bytesPerSample := bytesPerFrame / int(s.format.Channels)

	written := 0
	for written+bytesPerFrame <= len(buf) {
		samples, err := s.reader.ReadSamples(1)
		if err != nil {
			if err == io.EOF {
				return written, true, nil
			}
			return written, true, err
		}
		if len(samples) == 0 {
			return written, true, nil
		}

		for ch := uint32(0); ch < s.format.Channels; ch++ {
			if int(ch) >= len(samples[0].Values) {
				break
			}
			value := samples[0].Values[int(ch)]
			off := written + int(ch)*bytesPerSample
			putLE(buf[off:off+bytesPerSample], value, s.bps)
		}
		written += bytesPerFrame
		s.pos++
	}

	return written, false, nil
}

func putLE(dst []byte, value int, bits int) {
	switch bits {
	case 8:
		dst[0] = byte(value)
	case 16:
		dst[0] = byte(value)
		dst[1] = byte(value >> 8)
	case 24:
		dst[0] = byte(value)
		dst[1] = byte(value >> 8)
		dst[2] = byte(value >> 16)
	case 32:
		dst[0] = byte(value)
		dst[1] = byte(value >> 8)
		dst[2] = byte(value >> 16)
		dst[3] = byte(value >> 24)
	}
}

// SeekRelative is unsupported: go-wav's Reader is forward-only over an
// io.Reader with no byte-offset seek exposed.
func (s *Stream) SeekRelative(deltaMS int64) (uint64, error) {
	return s.pos, fmt.Errorf("wav: seek not supported")
}

func (s *Stream) Close() error {
	return s.file.Close()
}
