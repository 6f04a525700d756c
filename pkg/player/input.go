package player

import (
	"github.com/drgolem/playercore/pkg/decoderstream"
)

// Input is one queued track: the head is the one currently audible, later
// entries (at most one more in the common gapless case) are being fed to
// the sink ahead of being heard. remainingMS only has meaning once eof is
// true: the milliseconds of already-committed audio the sink still has to
// drain before this input's end is actually heard.
type Input struct {
	stream      decoderstream.Stream
	cookie      any
	posSamples  uint64
	eof         bool
	remainingMS int64
}

func (p *Player) firstInput() *Input {
	if len(p.inputs) == 0 {
		return nil
	}
	return p.inputs[0]
}

func (p *Player) lastInput() *Input {
	if len(p.inputs) == 0 {
		return nil
	}
	return p.inputs[len(p.inputs)-1]
}

// closeAllInputs closes every queued input's stream (if any) and empties
// the list. Used by flush and by Stop.
func (p *Player) closeAllInputs() {
	for _, in := range p.inputs {
		if in.stream != nil {
			_ = in.stream.Close()
		}
	}
	p.inputs = nil
}

// popHead removes and returns the current head, closing its stream.
func (p *Player) popHead() *Input {
	if len(p.inputs) == 0 {
		return nil
	}
	head := p.inputs[0]
	if head.stream != nil {
		_ = head.stream.Close()
	}
	p.inputs = p.inputs[1:]
	return head
}
