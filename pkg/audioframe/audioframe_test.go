package audioframe

import (
	"bytes"
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	original := AudioFrame{
		Format:       FrameFormat{SampleRate: 44100, Channels: 2, BitsPerSample: 16},
		SamplesCount: 4,
		Audio:        []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
	}

	data := original.Marshal()
	if want := frameHeaderSize + len(original.Audio); len(data) != want {
		t.Errorf("Marshal() len = %d, want %d", len(data), want)
	}

	var decoded AudioFrame
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Format != original.Format {
		t.Errorf("Format = %+v, want %+v", decoded.Format, original.Format)
	}
	if decoded.SamplesCount != original.SamplesCount {
		t.Errorf("SamplesCount = %d, want %d", decoded.SamplesCount, original.SamplesCount)
	}
	if !bytes.Equal(decoded.Audio, original.Audio) {
		t.Errorf("Audio = %v, want %v", decoded.Audio, original.Audio)
	}
}

func TestMarshalUnmarshalEmptyAudio(t *testing.T) {
	original := AudioFrame{Format: FrameFormat{SampleRate: 48000, Channels: 1, BitsPerSample: 24}}

	var decoded AudioFrame
	if err := decoded.Unmarshal(original.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.Audio) != 0 {
		t.Errorf("Audio len = %d, want 0", len(decoded.Audio))
	}
}

func TestMarshalUnmarshalLargePayload(t *testing.T) {
	audio := make([]byte, 100000)
	for i := range audio {
		audio[i] = byte(i)
	}
	original := AudioFrame{
		Format:       FrameFormat{SampleRate: 96000, Channels: 8, BitsPerSample: 32},
		SamplesCount: 12500,
		Audio:        audio,
	}

	var decoded AudioFrame
	if err := decoded.Unmarshal(original.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.Audio, original.Audio) {
		t.Error("large audio payload mismatch after round trip")
	}
}

func TestUnmarshalRejectsShortBuffers(t *testing.T) {
	cases := map[string][]byte{
		"empty":             {},
		"incomplete header": make([]byte, 10),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var af AudioFrame
			if err := af.Unmarshal(data); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestUnmarshalRejectsAudioLengthPastBuffer(t *testing.T) {
	buf := make([]byte, frameHeaderSize)
	buf[8], buf[9], buf[10], buf[11] = 0xE8, 0x03, 0x00, 0x00 // claims 1000 bytes of audio

	var af AudioFrame
	if err := af.Unmarshal(buf); err == nil {
		t.Error("expected an error for audio length exceeding the buffer")
	}
}

func TestBinaryMarshalerInterface(t *testing.T) {
	original := AudioFrame{
		Format:       FrameFormat{SampleRate: 44100, Channels: 2, BitsPerSample: 16},
		SamplesCount: 2,
		Audio:        []byte{0xAA, 0xBB, 0xCC, 0xDD},
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var decoded AudioFrame
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !bytes.Equal(decoded.Audio, original.Audio) {
		t.Error("Audio mismatch after BinaryMarshaler/BinaryUnmarshaler round trip")
	}
}
