// Package decoderstream defines the contract a decoder plugin implements to
// feed PCM into the player, plus a factory that selects a concrete plugin by
// file extension.
package decoderstream

import "github.com/drgolem/playercore/pkg/audio"

// Stream decodes a single track into interleaved PCM. Ownership passes to
// the player when it is loaded as an Input; the player calls Close exactly
// once, either on EOF or when the input is discarded unplayed (flush).
type Stream interface {
	// Format returns the stream's native PCM format. The player calls it
	// whenever it needs the format: on load, after every Read and on every
	// position update.
	Format() audio.Format

	// Read decodes into buf, returning the number of bytes written. eof is
	// true once the stream has no more samples to offer; n may be positive
	// on the same call that reports eof (a final partial buffer). A
	// decoder I/O failure is reported as eof=true, err=non-nil: the player
	// treats decode errors identically to natural end of stream (§7).
	Read(buf []byte) (n int, eof bool, err error)

	// SeekRelative moves the read position by deltaMS milliseconds
	// (negative seeks backward) and returns the new position in samples.
	// Implementations that cannot seek return the current position
	// unchanged and a non-nil error.
	SeekRelative(deltaMS int64) (posSamples uint64, err error)

	// Close releases the stream's resources. Safe to call exactly once.
	Close() error
}
