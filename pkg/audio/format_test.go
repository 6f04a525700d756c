package audio

import "testing"

func TestBytesPerSample(t *testing.T) {
	cases := map[SampleFormat]int{
		FormatALaw:      1,
		FormatU8:        1,
		FormatS16LE:     2,
		FormatS24BE:     3,
		FormatS32LE:     4,
		FormatFloat32BE: 4,
		FormatFloat64LE: 8,
	}
	for fmt, want := range cases {
		if got := BytesPerSample(fmt); got != want {
			t.Errorf("BytesPerSample(%v) = %d, want %d", fmt, got, want)
		}
	}
}

func TestFormatEqual(t *testing.T) {
	a := Format{SampleFmt: FormatS16LE, SampleRate: 44100, Channels: 2}
	b := Format{SampleFmt: FormatS16LE, SampleRate: 44100, Channels: 2}
	c := Format{SampleFmt: FormatS16LE, SampleRate: 48000, Channels: 2}

	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	f := Format{SampleFmt: FormatFloat32LE, SampleRate: 48000, Channels: 6}
	var out Format
	if err := out.Unmarshal(f.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !f.Equal(out) {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, f)
	}
}

func TestRangeRoundTrip(t *testing.T) {
	r := Range{
		SampleFmts:    FormatS16LE | FormatS24LE | FormatFloat32LE,
		MinSampleRate: 8000,
		MaxSampleRate: 192000,
		MinChannels:   1,
		MaxChannels:   8,
	}
	var out Range
	if err := out.Unmarshal(r.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, r)
	}
}

func TestRangeIncludes(t *testing.T) {
	r := Range{
		SampleFmts:    FormatS16LE | FormatS24LE,
		MinSampleRate: 44100,
		MaxSampleRate: 48000,
		MinChannels:   1,
		MaxChannels:   2,
	}

	in := Format{SampleFmt: FormatS16LE, SampleRate: 44100, Channels: 2}
	if !r.Includes(in) {
		t.Errorf("expected %+v to be included in %+v", in, r)
	}

	outOfRate := Format{SampleFmt: FormatS16LE, SampleRate: 96000, Channels: 2}
	if r.Includes(outOfRate) {
		t.Errorf("expected %+v to be excluded from %+v", outOfRate, r)
	}

	wrongFmt := Format{SampleFmt: FormatFloat32LE, SampleRate: 44100, Channels: 2}
	if r.Includes(wrongFmt) {
		t.Errorf("expected %+v to be excluded from %+v", wrongFmt, r)
	}
}
