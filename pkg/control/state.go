package control

import (
	"context"

	"github.com/gwillem/hexapod/pkg/gait"
	"github.com/gwillem/hexapod/pkg/hop"
	"github.com/gwillem/hexapod/pkg/imu"
)

// state is the single-writer cell shared between commands and the loop.
// It is guarded by Controller.mu.
type state struct {
	mode   Mode
	intent Intent
	phase  gait.Phase

	hopParams hop.Params

	// standRequested asks the loop to write the stand pose once on its
	// next idle iteration.
	standRequested bool

	// balanceEntered is set once the balance trim has been written.
	balanceEntered bool

	speedScale float64
	target     imu.Tilt

	// From TriggerHop until landing, commands are queued and replayed
	// afterwards.
	hopping bool
	pending []func(*state)

	// cancelStep interrupts an in-flight smooth gait phase.
	cancelStep context.CancelFunc
}

func (s *state) setMode(m Mode) {
	if m == s.mode {
		return
	}
	if s.mode == Walking && s.cancelStep != nil {
		s.cancelStep()
	}
	if m != Walking {
		s.phase = gait.First
	}
	if m == Balancing {
		s.balanceEntered = false
	}
	s.mode = m
}

// stop returns to Idle and asks for the stand pose.
func (s *state) stop() {
	s.setMode(Idle)
	s.standRequested = true
}

// snapshot is what one loop iteration works from.
type snapshot struct {
	mode           Mode
	intent         Intent
	phase          gait.Phase
	hopParams      hop.Params
	standRequested bool
	balanceEntered bool
	speedScale     float64
	target         imu.Tilt
}
