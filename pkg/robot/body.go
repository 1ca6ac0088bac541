package robot

import (
	"fmt"
	"sync"
)

// Target is an absolute position request for one channel.
type Target struct {
	Channel int
	Value   int
}

// Body combines the leg layout with the calibrated base positions.
// Base positions only change through Recenter.
type Body struct {
	legs []Leg

	mu   sync.RWMutex
	base Calibration
}

// NewBody creates a body model.
func NewBody(cal Calibration, reverse bool) *Body {
	return &Body{
		legs: AllLegs(reverse),
		base: cal,
	}
}

// Legs returns the legs in channel order.
func (b *Body) Legs() []Leg {
	out := make([]Leg, len(b.legs))
	copy(out, b.legs)
	return out
}

// Leg looks a leg up by name.
func (b *Body) Leg(name LegName) (Leg, bool) {
	for _, l := range b.legs {
		if l.Name == name {
			return l, true
		}
	}
	return Leg{}, false
}

// Base returns the base position of a channel.
func (b *Body) Base(channel int) int {
	if channel < 0 || channel >= NumChannels {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.base[channel]
}

// Calibration returns a copy of all base positions.
func (b *Body) Calibration() Calibration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.base
}

// Recenter moves the base position of a channel.
func (b *Body) Recenter(channel, value int) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("recenter channel %d: %w", channel, ErrInvalidChannel)
	}
	b.mu.Lock()
	b.base[channel] = value
	b.mu.Unlock()
	return nil
}

// Swing returns the swing target for leg displaced by offset.
func (b *Body) Swing(leg Leg, offset int) Target {
	return Target{
		Channel: leg.SwingChannel,
		Value:   b.Base(leg.SwingChannel) + leg.DirectionSign*offset,
	}
}

// Lift returns the lift target for leg raised by offset.
func (b *Body) Lift(leg Leg, offset int) Target {
	return Target{
		Channel: leg.LiftChannel,
		Value:   b.Base(leg.LiftChannel) + leg.HeightSign*offset,
	}
}

// Stand returns targets putting every channel at its base position.
func (b *Body) Stand() []Target {
	cal := b.Calibration()
	out := make([]Target, 0, NumChannels)
	for ch, v := range cal {
		out = append(out, Target{Channel: ch, Value: v})
	}
	return out
}
