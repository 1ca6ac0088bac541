// Package hop runs the scripted crouch, launch, air and landing maneuver.
package hop

import (
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/hexapod/pkg/robot"
)

// Writer applies a set of targets. *robot.Plant implements it.
type Writer interface {
	Apply(targets []robot.Target) error
}

// Sampler returns the current tilt magnitude. ok is false when no sensor
// is available. It is only used for telemetry.
type Sampler func() (tilt float64, ok bool)

// Phase of a hop.
type Phase int

const (
	Crouch Phase = iota
	Launch
	Air
	Landing
)

func (p Phase) String() string {
	switch p {
	case Crouch:
		return "crouch"
	case Launch:
		return "launch"
	case Air:
		return "air"
	case Landing:
		return "landing"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Params describes one hop: an absolute pose per phase and how long to
// hold it.
type Params struct {
	Crouch  [robot.NumChannels]int
	Launch  [robot.NumChannels]int
	Landing [robot.NumChannels]int

	CrouchDelay    time.Duration
	LaunchDelay    time.Duration
	AirTime        time.Duration
	LandingDelay   time.Duration
	SampleInterval time.Duration
}

func uniform(v int) [robot.NumChannels]int {
	var out [robot.NumChannels]int
	for i := range out {
		out[i] = v
	}
	return out
}

// DefaultParams returns the stock hop.
func DefaultParams() Params {
	return Params{
		Crouch:         uniform(450),
		Launch:         uniform(520),
		Landing:        uniform(400),
		CrouchDelay:    200 * time.Millisecond,
		LaunchDelay:    150 * time.Millisecond,
		AirTime:        300 * time.Millisecond,
		LandingDelay:   250 * time.Millisecond,
		SampleInterval: 20 * time.Millisecond,
	}
}

// ParamsFromConfig builds hop parameters from the config file section.
func ParamsFromConfig(c robot.HopConfig) (Params, error) {
	p := Params{
		CrouchDelay:    c.CrouchDelay.Duration,
		LaunchDelay:    c.LaunchDelay.Duration,
		AirTime:        c.AirTime.Duration,
		LandingDelay:   c.LandingDelay.Duration,
		SampleInterval: c.SampleInterval.Duration,
	}
	for _, pose := range []struct {
		name string
		src  []int
		dst  *[robot.NumChannels]int
	}{
		{"crouch", c.Crouch, &p.Crouch},
		{"launch", c.Launch, &p.Launch},
		{"landing", c.Landing, &p.Landing},
	} {
		if len(pose.src) != robot.NumChannels {
			return p, fmt.Errorf("hop %s pose has %d channels, want %d", pose.name, len(pose.src), robot.NumChannels)
		}
		copy(pose.dst[:], pose.src)
	}
	return p, nil
}

// Validate checks every pose against limits and that no delay is negative.
func (p Params) Validate(l robot.Limits) error {
	for _, pose := range []struct {
		phase Phase
		v     [robot.NumChannels]int
	}{{Crouch, p.Crouch}, {Launch, p.Launch}, {Landing, p.Landing}} {
		for ch, v := range pose.v {
			if !l.Contains(v) {
				return fmt.Errorf("%s pose channel %d = %d: %w", pose.phase, ch, v, robot.ErrPositionRange)
			}
		}
	}
	if p.CrouchDelay < 0 || p.LaunchDelay < 0 || p.AirTime < 0 || p.LandingDelay < 0 || p.SampleInterval < 0 {
		return errors.New("hop delays must not be negative")
	}
	return nil
}

// Duration is the nominal length of the hop.
func (p Params) Duration() time.Duration {
	return p.CrouchDelay + p.LaunchDelay + p.AirTime + p.LandingDelay
}

func (p Params) pose(ph Phase) []robot.Target {
	var src [robot.NumChannels]int
	switch ph {
	case Crouch:
		src = p.Crouch
	case Launch:
		src = p.Launch
	default:
		src = p.Landing
	}
	out := make([]robot.Target, robot.NumChannels)
	for ch, v := range src {
		out[ch] = robot.Target{Channel: ch, Value: v}
	}
	return out
}

// Result summarises a completed hop.
type Result struct {
	ID       string        `json:"id"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	PeakTilt float64       `json:"peak_tilt"`
	Samples  int           `json:"samples"`
	Aborted  bool          `json:"aborted"`
}
