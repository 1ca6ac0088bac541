package gait

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gwillem/hexapod/pkg/robot"
)

// Writer applies a set of targets. *robot.Plant implements it.
type Writer interface {
	Apply(targets []robot.Target) error
}

// Config is the gait tuning.
type Config struct {
	Speed        int           // swing amplitude
	HeightChange int           // lift amplitude of the discrete gait
	StepInterval time.Duration // hold after each discrete step

	Subdivisions  int           // sub-steps per smooth phase
	PhaseDuration time.Duration // duration of one smooth phase
	StancePress   int           // how far stance legs push down in the smooth gait
}

// DefaultConfig returns the stock gait.
func DefaultConfig() Config {
	return Config{
		Speed:         35,
		HeightChange:  30,
		StepInterval:  100 * time.Millisecond,
		Subdivisions:  17,
		PhaseDuration: 170 * time.Millisecond,
		StancePress:   10,
	}
}

// Unit offsets per tripod phase for the discrete gait. The swing is scaled
// by the step magnitude and the lift by HeightChange.
var (
	discreteSwing = [5]int{0, 0, 1, 0, -1}
	discreteLift  = [5]int{0, 3, -1, -1, -1}
)

// Sequencer drives the legs through the gait cycle.
type Sequencer struct {
	body  *robot.Body
	out   Writer
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a sequencer writing to out.
func New(body *robot.Body, out Writer, cfg Config) *Sequencer {
	if cfg.Subdivisions < 1 {
		cfg.Subdivisions = 1
	}
	return &Sequencer{body: body, out: out, cfg: cfg, sleep: Sleep}
}

// Config returns the gait tuning.
func (s *Sequencer) Config() Config {
	return s.cfg
}

// SetSleeper replaces the function used to wait between sub-steps.
func (s *Sequencer) SetSleeper(fn func(ctx context.Context, d time.Duration) error) {
	s.sleep = fn
}

// Targets returns the discrete gait pose for group A at phase with the
// given signed magnitude. Positive magnitudes walk forward.
func (s *Sequencer) Targets(phase Phase, magnitude int, turn Turn) []robot.Target {
	legs := s.body.Legs()
	out := make([]robot.Target, 0, 2*len(legs))
	for _, l := range legs {
		q := phase.For(l.Group)
		swing := turn.swingSign(l) * magnitude * discreteSwing[q]
		lift := discreteLift[q] * s.cfg.HeightChange
		out = append(out, s.body.Swing(l, swing), s.body.Lift(l, lift))
	}
	return out
}

// Step writes one discrete gait pose. With a zero magnitude nothing is
// written and Step reports false.
func (s *Sequencer) Step(phase Phase, magnitude int, turn Turn) (bool, error) {
	if magnitude == 0 {
		return false, nil
	}
	return true, s.out.Apply(s.Targets(phase, magnitude, turn))
}

// SmoothTargets returns sub-step i of n of the interpolated gait for group
// A at phase.
func (s *Sequencer) SmoothTargets(phase Phase, magnitude int, turn Turn, i, n int) []robot.Target {
	ratio := float64(i) / float64(n)
	amp := magnitude
	if amp < 0 {
		amp = -amp
	}
	dir := 1
	if magnitude < 0 {
		dir = -1
	}

	legs := s.body.Legs()
	out := make([]robot.Target, 0, 2*len(legs))
	for _, l := range legs {
		var swingUnit float64
		var lift int
		switch phase.For(l.Group) {
		case 1:
			swingUnit = 1 - ratio
			lift = -s.cfg.StancePress
		case 2:
			swingUnit = -ratio
			lift = -s.cfg.StancePress
		case 3:
			swingUnit = -(1 - ratio)
			lift = round(3 * float64(amp) * ratio)
		case 4:
			swingUnit = ratio
			lift = round(3 * float64(amp) * (1 - ratio))
		}
		swing := round(float64(dir*turn.swingSign(l)*amp) * swingUnit)
		out = append(out, s.body.Swing(l, swing), s.body.Lift(l, lift))
	}
	return out
}

// Glide moves through one phase of the smooth gait in Subdivisions equal
// sub-steps spread over PhaseDuration. It stops early when ctx is done.
// Write faults do not stop the glide; they are joined into the result.
func (s *Sequencer) Glide(ctx context.Context, phase Phase, magnitude int, turn Turn) (bool, error) {
	if magnitude == 0 {
		return false, nil
	}
	n := s.cfg.Subdivisions
	pause := s.cfg.PhaseDuration / time.Duration(n)

	var faults []error
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return i > 1, err
		}
		if err := s.out.Apply(s.SmoothTargets(phase, magnitude, turn, i, n)); err != nil {
			faults = append(faults, err)
		}
		if err := s.sleep(ctx, pause); err != nil {
			return true, err
		}
	}
	return true, joinFaults(faults)
}

// Stand puts every channel at its base position.
func (s *Sequencer) Stand() error {
	return s.out.Apply(s.body.Stand())
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// joinFaults collapses repeated faults of one glide; a failing channel
// otherwise reports the same error on every sub-step.
func joinFaults(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.Join(errs[0], fmt.Errorf("%d more faults in this phase", len(errs)-1))
}

func round(v float64) int {
	return int(math.Round(v))
}
