package robot

import (
	"fmt"
)

// DefaultCenter is the neutral position of a hobby servo driven by a 50Hz
// 12-bit PWM board.
const DefaultCenter = 300

// Limits is the legal absolute position range of every channel.
type Limits struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// Contains reports whether v is a legal position.
func (l Limits) Contains(v int) bool {
	return v >= l.Min && v <= l.Max
}

// Clamp restricts v to the legal range.
func (l Limits) Clamp(v int) int {
	return max(l.Min, min(l.Max, v))
}

// Calibration holds the base (centre) position of every channel.
type Calibration [NumChannels]int

// UniformCalibration returns a calibration with every channel at center.
func UniformCalibration(center int) Calibration {
	var c Calibration
	for i := range c {
		c[i] = center
	}
	return c
}

// Validate checks that every base position is inside limits.
func (c Calibration) Validate(l Limits) error {
	if l.Min >= l.Max {
		return fmt.Errorf("invalid limits %d..%d", l.Min, l.Max)
	}
	for ch, v := range c {
		if !l.Contains(v) {
			return fmt.Errorf("channel %d (%s) base %d outside %d..%d: %w",
				ch, ChannelLabel(ch), v, l.Min, l.Max, ErrPositionRange)
		}
	}
	return nil
}

// Offsets returns each base position relative to center. A freshly
// assembled robot has all zeros; calibration drifts show up here.
func (c Calibration) Offsets(center int) [NumChannels]int {
	var out [NumChannels]int
	for i, v := range c {
		out[i] = v - center
	}
	return out
}
