package robot

import "testing"

func TestAllLegs_Layout(t *testing.T) {
	legs := AllLegs(false)
	if len(legs) != 6 {
		t.Fatalf("got %d legs, want 6", len(legs))
	}

	seen := make(map[int]bool)
	groups := map[Group]int{}
	for _, l := range legs {
		for _, ch := range []int{l.SwingChannel, l.LiftChannel} {
			if seen[ch] {
				t.Errorf("channel %d used twice", ch)
			}
			seen[ch] = true
		}
		groups[l.Group]++
	}
	if len(seen) != NumChannels {
		t.Errorf("legs cover %d channels, want %d", len(seen), NumChannels)
	}
	if groups[GroupA] != 3 || groups[GroupB] != 3 {
		t.Errorf("tripods = %v, want 3 and 3", groups)
	}
}

func TestAllLegs_Signs(t *testing.T) {
	tests := []struct {
		reverse    bool
		side       Side
		wantDir    int
		wantHeight int
	}{
		{false, Left, 1, -1},
		{false, Right, -1, 1},
		{true, Left, -1, 1},
		{true, Right, 1, -1},
	}

	for _, tt := range tests {
		for _, l := range AllLegs(tt.reverse) {
			if l.Side != tt.side {
				continue
			}
			if l.DirectionSign != tt.wantDir || l.HeightSign != tt.wantHeight {
				t.Errorf("reverse=%v %s: dir=%d height=%d, want %d %d",
					tt.reverse, l.Name, l.DirectionSign, l.HeightSign, tt.wantDir, tt.wantHeight)
			}
		}
	}
}

func TestAllLegs_Tripods(t *testing.T) {
	wantA := map[LegName]bool{RightRear: true, LeftMiddle: true, RightFront: true}
	for _, l := range AllLegs(false) {
		if (l.Group == GroupA) != wantA[l.Name] {
			t.Errorf("%s in group %d", l.Name, l.Group)
		}
	}
}

func TestChannelLabel(t *testing.T) {
	tests := []struct {
		ch   int
		want string
	}{
		{0, "left_front.swing"},
		{1, "left_front.lift"},
		{6, "right_rear.swing"},
		{11, "right_front.lift"},
		{12, "unknown"},
	}
	for _, tt := range tests {
		if got := ChannelLabel(tt.ch); got != tt.want {
			t.Errorf("ChannelLabel(%d) = %q, want %q", tt.ch, got, tt.want)
		}
	}
}

func TestBody_Offsets(t *testing.T) {
	cal := UniformCalibration(DefaultCenter)
	cal[2] = 320
	b := NewBody(cal, false)

	lm, ok := b.Leg(LeftMiddle)
	if !ok {
		t.Fatal("left middle leg missing")
	}
	if got := b.Swing(lm, 10); got != (Target{Channel: 2, Value: 330}) {
		t.Errorf("Swing = %+v", got)
	}
	if got := b.Lift(lm, 10); got != (Target{Channel: 3, Value: 290}) {
		t.Errorf("Lift = %+v", got)
	}

	rm, _ := b.Leg(RightMiddle)
	if got := b.Swing(rm, 10); got.Value != 290 {
		t.Errorf("right Swing = %d, want 290", got.Value)
	}

	if err := b.Recenter(2, 305); err != nil {
		t.Fatal(err)
	}
	if b.Base(2) != 305 {
		t.Errorf("Base(2) = %d after recenter", b.Base(2))
	}
	if err := b.Recenter(-1, 305); err == nil {
		t.Error("Recenter(-1) succeeded")
	}

	stand := b.Stand()
	if len(stand) != NumChannels || stand[2].Value != 305 {
		t.Errorf("Stand() = %v", stand)
	}
}
