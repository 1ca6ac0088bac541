package control

import (
	"fmt"

	"github.com/gwillem/hexapod/pkg/gait"
)

// Mode is the activity of the control loop. Exactly one is active.
type Mode int

const (
	Idle Mode = iota
	Walking
	Balancing
	Hopping
)

var modeNames = map[Mode]string{
	Idle:      "idle",
	Walking:   "walking",
	Balancing: "balancing",
	Hopping:   "hopping",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return Idle, fmt.Errorf("%w: unknown mode %q", ErrInvalidCommand, s)
}

// Direction is the fore/aft part of a motion intent.
type Direction int

const (
	Stand Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Stand:
		return "stand"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Direction) valid() bool {
	return d >= Stand && d <= Backward
}

// Intent is what the operator asked the robot to do while walking.
type Intent struct {
	Direction Direction `json:"direction"`
	Turn      gait.Turn `json:"turn"`
	Smooth    bool      `json:"smooth"`
}

// Active reports whether the intent moves the legs.
func (i Intent) Active() bool {
	return i.Direction != Stand || i.Turn != gait.NoTurn
}

// magnitude is the signed swing amplitude for this intent. A turn always
// walks forward.
func (i Intent) magnitude(speed int) int {
	switch {
	case i.Turn != gait.NoTurn:
		return speed
	case i.Direction == Forward:
		return speed
	case i.Direction == Backward:
		return -speed
	}
	return 0
}

// Axis selects which tilt axis a tuning change applies to.
type Axis int

const (
	AxisBoth Axis = iota
	AxisX
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	}
	return "both"
}

func (a Axis) x() bool { return a == AxisBoth || a == AxisX }
func (a Axis) y() bool { return a == AxisBoth || a == AxisY }
