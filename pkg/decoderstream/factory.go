package decoderstream

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drgolem/playercore/pkg/decoderstream/flac"
	"github.com/drgolem/playercore/pkg/decoderstream/mp3"
	"github.com/drgolem/playercore/pkg/decoderstream/vorbis"
	"github.com/drgolem/playercore/pkg/decoderstream/wav"
)

// Open opens fileName with the plugin selected by its extension, returning
// a Stream ready for the player to load. Opus is deliberately not reachable
// through this factory: it has no standalone file container here (see
// package opus's doc comment), so callers construct an opus.Stream directly
// over their own packet source.
func Open(fileName string) (Stream, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch ext {
	case ".mp3":
		return mp3.Open(fileName)
	case ".flac", ".fla":
		return flac.Open(fileName)
	case ".wav":
		return wav.Open(fileName)
	case ".ogg", ".oga":
		return vorbis.Open(fileName)
	default:
		return nil, fmt.Errorf("decoderstream: unsupported file extension %q", ext)
	}
}
