package opus

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"gopkg.in/hraban/opus.v2"
)

// readCloserBuf adapts a bytes.Reader to io.ReadCloser for NewStream.
type readCloserBuf struct {
	*bytes.Reader
}

func (readCloserBuf) Close() error { return nil }

// encodeFixture encodes frameCount frames of silence at sampleRate/channels
// into the length-prefixed packet framing Stream expects.
func encodeFixture(t *testing.T, sampleRate, channels, frameCount int) []byte {
	t.Helper()

	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	const samplesPerFrame = 960 // 20ms @ 48kHz
	pcm := make([]int16, samplesPerFrame*channels)
	data := make([]byte, 4000)

	var buf bytes.Buffer
	for i := 0; i < frameCount; i++ {
		n, err := enc.Encode(pcm, data)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(n))
		buf.Write(lenBuf[:])
		buf.Write(data[:n])
	}

	return buf.Bytes()
}

func TestNewStreamReportsFormat(t *testing.T) {
	const sampleRate, channels = 48000, 2
	fixture := encodeFixture(t, sampleRate, channels, 3)

	s, err := NewStream(readCloserBuf{bytes.NewReader(fixture)}, sampleRate, channels)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer s.Close()

	format := s.Format()
	if format.SampleRate != sampleRate || format.Channels != channels {
		t.Errorf("Format() = %+v, want rate=%d channels=%d", format, sampleRate, channels)
	}
}

func TestReadDecodesPacketsToEOF(t *testing.T) {
	const sampleRate, channels = 48000, 2
	const frames = 5
	fixture := encodeFixture(t, sampleRate, channels, frames)

	s, err := NewStream(readCloserBuf{bytes.NewReader(fixture)}, sampleRate, channels)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer s.Close()

	buf := make([]byte, 4096)
	total := 0
	eof := false
	for !eof {
		n, e, rerr := s.Read(buf)
		if rerr != nil {
			t.Fatalf("Read: %v", rerr)
		}
		total += n
		eof = e
	}

	wantSamples := frames * 960 // samplesPerFrame used when encoding the fixture
	wantBytes := wantSamples * s.Format().BytesPerFrame()
	if total != wantBytes {
		t.Errorf("total bytes decoded = %d, want %d", total, wantBytes)
	}
}

func TestSeekRelativeUnsupported(t *testing.T) {
	const sampleRate, channels = 48000, 1
	fixture := encodeFixture(t, sampleRate, channels, 1)

	s, err := NewStream(readCloserBuf{bytes.NewReader(fixture)}, sampleRate, channels)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer s.Close()

	if _, err := s.SeekRelative(1000); err == nil {
		t.Fatal("expected SeekRelative to report unsupported")
	}
}

func TestNewStreamRejectsBadParams(t *testing.T) {
	if _, err := NewStream(readCloserBuf{bytes.NewReader(nil)}, 12345, 2); err == nil {
		t.Fatal("expected NewStream to reject an unsupported sample rate")
	}
}

var _ io.ReadCloser = readCloserBuf{}
