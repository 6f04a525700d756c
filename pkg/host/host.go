// Package host defines the surface the player calls into the embedding
// application, the mirror image of pkg/sink's upcalls: the player is the
// one issuing these, and GetNextTrackSync is the one call on it that
// blocks the player's loop goroutine until the host answers.
package host

import (
	"context"

	"github.com/drgolem/playercore/pkg/decoderstream"
	"github.com/drgolem/playercore/pkg/sink"
)

// Ops is implemented by the application embedding the player.
type Ops interface {
	// PositionChanged reports the current whole-second playback position.
	// Called at most once per second, frozen while paused or idle.
	PositionChanged(sec uint32)

	// TrackChanged reports that the input identified by cookie (which the
	// host supplied when it loaded that input) is now the head of the
	// queue, i.e. the track currently audible.
	TrackChanged(cookie any)

	// SinkInfoChanged forwards every sink Ops.InfoChanged upcall, including
	// the sink's acknowledgement of the player's own Pause/Mute requests.
	SinkInfoChanged(info sink.Info)

	// GetNextTrackSync is called directly on the player's loop goroutine,
	// which blocks until it returns with the next track to queue or the
	// decision that there is none; the player posts no delegate for it. A
	// nil stream with a nil error means "no more tracks"; the player still
	// appends a streamless terminator input, which becomes the head (and
	// is reported via TrackChanged with its cookie) once the last real
	// track has drained.
	GetNextTrackSync(ctx context.Context) (decoderstream.Stream, any, error)
}
