// Package gait turns a gait phase and walking direction into leg actuator
// targets for an alternating tripod gait.
package gait

import (
	"fmt"

	"github.com/gwillem/hexapod/pkg/robot"
)

// Phase is the gait cycle position, 1 through 4.
type Phase int

// First is where every walk starts.
const First Phase = 1

func (p Phase) Valid() bool {
	return p >= 1 && p <= 4
}

// Next advances by one, wrapping 4 to 1.
func (p Phase) Next() Phase {
	return p%4 + 1
}

// Opposite is two phases ahead, where the other tripod is.
func (p Phase) Opposite() Phase {
	return (p+1)%4 + 1
}

func (p Phase) String() string {
	return fmt.Sprintf("phase %d", int(p))
}

// For returns the phase a tripod is at when group A is at p.
func (p Phase) For(g robot.Group) Phase {
	if g == robot.GroupB {
		return p.Opposite()
	}
	return p
}

// Turn is the turning direction.
type Turn int

const (
	NoTurn Turn = iota
	TurnLeft
	TurnRight
)

func (t Turn) String() string {
	switch t {
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	}
	return "none"
}

func (t Turn) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// swingSign is -1 for the legs on the side being turned towards.
func (t Turn) swingSign(l robot.Leg) int {
	if (t == TurnLeft && l.Side == robot.Left) || (t == TurnRight && l.Side == robot.Right) {
		return -1
	}
	return 1
}
