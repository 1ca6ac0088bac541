// Package robot provides the body model and actuator plant for a six-legged
// walker with two servos per leg.
package robot

// NumChannels is the number of leg actuator channels (2 per leg).
const NumChannels = 12

// LegName identifies a leg.
type LegName string

// Leg names. The mechanical numbering puts right-rear on channels 6/7 and
// right-front on 10/11.
const (
	LeftFront   LegName = "left_front"
	LeftMiddle  LegName = "left_middle"
	LeftRear    LegName = "left_rear"
	RightRear   LegName = "right_rear"
	RightMiddle LegName = "right_middle"
	RightFront  LegName = "right_front"
)

// Side of the body a leg is mounted on.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Mount is the fore/aft position of a leg along the body.
type Mount int

const (
	Front Mount = iota
	Middle
	Rear
)

// ForeSign is +1 for front legs, -1 for rear legs and 0 for middle legs.
func (m Mount) ForeSign() int {
	switch m {
	case Front:
		return 1
	case Rear:
		return -1
	}
	return 0
}

// Group is a tripod: three legs that always move together.
type Group int

const (
	GroupA Group = iota // right rear, left middle, right front
	GroupB              // left front, right middle, left rear
)

// Leg describes one leg and how a signed offset maps onto its channels.
type Leg struct {
	Name  LegName
	Side  Side
	Mount Mount
	Group Group

	SwingChannel int
	LiftChannel  int

	// DirectionSign and HeightSign mirror the two sides so that the same
	// signed offset moves both sides the same way physically.
	DirectionSign int
	HeightSign    int
}

// SideSign is +1 for left legs and -1 for right legs.
func (l Leg) SideSign() int {
	if l.Side == Left {
		return 1
	}
	return -1
}

// AllLegs returns the six legs in channel order.
// When reverse is set every direction and height sign is flipped, for
// bodies whose servos are mounted the other way round.
func AllLegs(reverse bool) []Leg {
	legs := []Leg{
		{Name: LeftFront, Side: Left, Mount: Front, Group: GroupB, SwingChannel: 0, LiftChannel: 1},
		{Name: LeftMiddle, Side: Left, Mount: Middle, Group: GroupA, SwingChannel: 2, LiftChannel: 3},
		{Name: LeftRear, Side: Left, Mount: Rear, Group: GroupB, SwingChannel: 4, LiftChannel: 5},
		{Name: RightRear, Side: Right, Mount: Rear, Group: GroupA, SwingChannel: 6, LiftChannel: 7},
		{Name: RightMiddle, Side: Right, Mount: Middle, Group: GroupB, SwingChannel: 8, LiftChannel: 9},
		{Name: RightFront, Side: Right, Mount: Front, Group: GroupA, SwingChannel: 10, LiftChannel: 11},
	}
	for i := range legs {
		dir, height := 1, -1
		if legs[i].Side == Right {
			dir, height = -1, 1
		}
		if reverse {
			dir, height = -dir, -height
		}
		legs[i].DirectionSign = dir
		legs[i].HeightSign = height
	}
	return legs
}

// ChannelLabel returns a human readable name like "left_front.swing".
func ChannelLabel(channel int) string {
	for _, l := range AllLegs(false) {
		switch channel {
		case l.SwingChannel:
			return string(l.Name) + ".swing"
		case l.LiftChannel:
			return string(l.Name) + ".lift"
		}
	}
	return "unknown"
}
