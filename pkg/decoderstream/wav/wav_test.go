package wav

import (
	"os"
	"path/filepath"
	"testing"

	gowav "github.com/youpy/go-wav"

	"github.com/drgolem/playercore/pkg/audio"
)

// writeFixture synthesizes a tiny 16-bit stereo PCM WAV file for Open to
// read back, since the real decoder has no fixture-free seam to test
// against.
func writeFixture(t *testing.T, samples int) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	const channels = 2
	const sampleRate = 44100
	const bitsPerSample = 16

	data := make([]byte, samples*channels*2)
	for i := range data {
		data[i] = byte(i)
	}

	w := gowav.NewWriter(f, uint32(samples), channels, sampleRate, bitsPerSample)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return path
}

func TestOpenReadsFormat(t *testing.T) {
	path := writeFixture(t, 100)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	want := audio.Format{SampleFmt: audio.FormatS16LE, SampleRate: 44100, Channels: 2}
	if !s.Format().Equal(want) {
		t.Errorf("Format() = %+v, want %+v", s.Format(), want)
	}
}

func TestReadDrainsToEOF(t *testing.T) {
	const samples = 50
	path := writeFixture(t, samples)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
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

	wantBytes := samples * s.Format().BytesPerFrame()
	if total != wantBytes {
		t.Errorf("total bytes read = %d, want %d", total, wantBytes)
	}
}

func TestSeekRelativeUnsupported(t *testing.T) {
	path := writeFixture(t, 10)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.SeekRelative(1000); err == nil {
		t.Fatal("expected SeekRelative to report unsupported")
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/fixture.wav"); err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}
