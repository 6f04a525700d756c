package decoderstream

import "testing"

func TestOpenRejectsUnsupportedExtension(t *testing.T) {
	_, err := Open("track.xm")
	if err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open("/nonexistent/path/track.mp3")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
