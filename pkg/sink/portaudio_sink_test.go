package sink

import (
	"testing"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/drgolem/playercore/pkg/audio"
)

func TestPaSampleFormatMapping(t *testing.T) {
	cases := []struct {
		in   audio.SampleFormat
		want portaudio.PaSampleFormat
	}{
		{audio.FormatS16LE, portaudio.SampleFmtInt16},
		{audio.FormatS24In32LE, portaudio.SampleFmtInt24},
		{audio.FormatS32LE, portaudio.SampleFmtInt32},
		{audio.FormatFloat32LE, portaudio.SampleFmtFloat32},
	}
	for _, c := range cases {
		got, err := paSampleFormat(c.in)
		if err != nil {
			t.Fatalf("paSampleFormat(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("paSampleFormat(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestPaSampleFormatRejectsUnsupported(t *testing.T) {
	if _, err := paSampleFormat(audio.FormatALaw); err == nil {
		t.Fatal("expected an error for a-law, which PortAudio cannot take directly")
	}
}

func TestNewSinkStartsDisabled(t *testing.T) {
	s := New(&recordingOps{}, 0, 1024, 64)
	if s.enabled.Load() {
		t.Fatal("expected a freshly constructed sink to start disabled")
	}
	if s.Latency() != 0 {
		t.Fatal("expected zero latency before SetFormat has opened a stream")
	}
}

type recordingOps struct {
	requests []bool
}

func (r *recordingOps) RequestInput(enable bool) { r.requests = append(r.requests, enable) }
func (r *recordingOps) InfoChanged(Info)         {}
func (r *recordingOps) Failed(retry bool)        {}
