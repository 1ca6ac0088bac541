package gait

import (
	"context"
	"testing"
	"time"

	"github.com/gwillem/hexapod/pkg/robot"
)

func newTestSequencer(t *testing.T) (*Sequencer, *robot.Plant, *robot.MemoryDriver) {
	t.Helper()
	cal := robot.UniformCalibration(robot.DefaultCenter)
	drv := robot.NewMemoryDriver()
	plant := robot.NewPlant(drv, robot.Limits{Min: 100, Max: 560}, cal)
	seq := New(robot.NewBody(cal, false), plant, DefaultConfig())
	seq.SetSleeper(func(ctx context.Context, d time.Duration) error { return ctx.Err() })
	return seq, plant, drv
}

func byChannel(targets []robot.Target) map[int]int {
	m := make(map[int]int, len(targets))
	for _, tg := range targets {
		m[tg.Channel] = tg.Value
	}
	return m
}

func TestPhase_Cycle(t *testing.T) {
	p := First
	want := []Phase{1, 2, 3, 4, 1, 2, 3, 4, 1}
	for i, w := range want {
		if p != w {
			t.Fatalf("step %d: phase %d, want %d", i, p, w)
		}
		if !p.Valid() {
			t.Fatalf("phase %d invalid", p)
		}
		opp := p.Opposite()
		if d := (int(opp) - int(p) + 4) % 4; d != 2 {
			t.Errorf("Opposite(%d) = %d, %d apart", p, opp, d)
		}
		p = p.Next()
	}
	if Phase(0).Valid() || Phase(5).Valid() {
		t.Error("out of range phase reported valid")
	}
}

func TestSequencer_DiscreteTargets(t *testing.T) {
	seq, _, _ := newTestSequencer(t)

	tests := []struct {
		name      string
		phase     Phase
		magnitude int
		turn      Turn
		want      map[int]int
	}{
		{
			name: "phase 1 group A lifts", phase: 1, magnitude: 35,
			// left middle and right rear are in group A at q1,
			// left front is in group B at q3
			want: map[int]int{2: 300, 3: 210, 6: 300, 7: 390, 0: 300, 1: 330},
		},
		{
			name: "phase 2 forward swing", phase: 2, magnitude: 35,
			want: map[int]int{2: 335, 3: 330, 6: 265, 7: 270, 0: 265, 1: 330},
		},
		{
			name: "phase 2 backward", phase: 2, magnitude: -35,
			want: map[int]int{2: 265, 6: 335, 0: 335},
		},
		{
			name: "phase 2 turn left", phase: 2, magnitude: 35, turn: TurnLeft,
			want: map[int]int{2: 265, 6: 265, 0: 335, 8: 335},
		},
		{
			name: "phase 2 turn right", phase: 2, magnitude: 35, turn: TurnRight,
			want: map[int]int{2: 335, 6: 335, 0: 265, 8: 265},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := byChannel(seq.Targets(tt.phase, tt.magnitude, tt.turn))
			if len(got) != robot.NumChannels {
				t.Fatalf("got %d targets, want %d", len(got), robot.NumChannels)
			}
			for ch, v := range tt.want {
				if got[ch] != v {
					t.Errorf("channel %d (%s) = %d, want %d", ch, robot.ChannelLabel(ch), got[ch], v)
				}
			}
		})
	}
}

func TestSequencer_StepZeroMagnitude(t *testing.T) {
	seq, _, drv := newTestSequencer(t)

	moved, err := seq.Step(1, 0, NoTurn)
	if moved || err != nil {
		t.Errorf("Step(mag 0) = %v, %v", moved, err)
	}
	moved, err = seq.Glide(context.Background(), 1, 0, NoTurn)
	if moved || err != nil {
		t.Errorf("Glide(mag 0) = %v, %v", moved, err)
	}
	if drv.Count() != 0 {
		t.Errorf("%d writes for zero magnitude", drv.Count())
	}
}

func TestSequencer_StepWrites(t *testing.T) {
	seq, plant, drv := newTestSequencer(t)

	moved, err := seq.Step(2, 35, NoTurn)
	if !moved || err != nil {
		t.Fatalf("Step = %v, %v", moved, err)
	}
	if drv.Count() != robot.NumChannels {
		t.Errorf("%d writes, want %d", drv.Count(), robot.NumChannels)
	}
	if plant.Position(2) != 335 {
		t.Errorf("Position(2) = %d, want 335", plant.Position(2))
	}
}

func TestSequencer_SmoothKeyframes(t *testing.T) {
	seq, _, _ := newTestSequencer(t)
	n := seq.Config().Subdivisions

	// End of each phase for left middle (group A, dir +1, height -1)
	// and left front (group B).
	tests := []struct {
		phase           Phase
		lmSwing, lmLift int
		lfSwing, lfLift int
	}{
		{1, 300, 310, 300, 195},
		{2, 265, 310, 335, 300},
		{3, 300, 195, 300, 310},
		{4, 335, 300, 265, 310},
	}
	for _, tt := range tests {
		got := byChannel(seq.SmoothTargets(tt.phase, 35, NoTurn, n, n))
		if got[2] != tt.lmSwing || got[3] != tt.lmLift || got[0] != tt.lfSwing || got[1] != tt.lfLift {
			t.Errorf("phase %d end: lm=%d/%d lf=%d/%d, want %d/%d %d/%d", tt.phase,
				got[2], got[3], got[0], got[1], tt.lmSwing, tt.lmLift, tt.lfSwing, tt.lfLift)
		}
	}

	// Halfway through the transfer phase the swing is half way back.
	got := byChannel(seq.SmoothTargets(3, 34, NoTurn, 1, 2))
	if got[2] != 283 || got[3] != 249 {
		t.Errorf("phase 3 mid: lm=%d/%d, want 283/249", got[2], got[3])
	}
}

func TestSequencer_SmoothBackwardKeepsLift(t *testing.T) {
	seq, _, _ := newTestSequencer(t)
	fwd := byChannel(seq.SmoothTargets(3, 35, NoTurn, 5, 17))
	bwd := byChannel(seq.SmoothTargets(3, -35, NoTurn, 5, 17))
	for ch := 0; ch < robot.NumChannels; ch += 2 {
		if fwd[ch]-300 != -(bwd[ch] - 300) {
			t.Errorf("swing channel %d: fwd %d bwd %d not mirrored", ch, fwd[ch], bwd[ch])
		}
		if fwd[ch+1] != bwd[ch+1] {
			t.Errorf("lift channel %d: fwd %d bwd %d differ", ch+1, fwd[ch+1], bwd[ch+1])
		}
	}
}

func TestSequencer_Glide(t *testing.T) {
	seq, _, drv := newTestSequencer(t)

	var pauses []time.Duration
	seq.SetSleeper(func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	})

	moved, err := seq.Glide(context.Background(), 1, 35, NoTurn)
	if !moved || err != nil {
		t.Fatalf("Glide = %v, %v", moved, err)
	}
	n := seq.Config().Subdivisions
	if drv.Count() != n*robot.NumChannels {
		t.Errorf("%d writes, want %d", drv.Count(), n*robot.NumChannels)
	}
	if len(pauses) != n {
		t.Fatalf("%d pauses, want %d", len(pauses), n)
	}
	var total time.Duration
	for _, p := range pauses {
		total += p
	}
	if total != seq.Config().PhaseDuration {
		t.Errorf("total pause %v, want %v", total, seq.Config().PhaseDuration)
	}
}

func TestSequencer_GlideCancelled(t *testing.T) {
	seq, _, drv := newTestSequencer(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	seq.SetSleeper(func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return ctx.Err()
	})

	moved, err := seq.Glide(ctx, 1, 35, NoTurn)
	if !moved || err == nil {
		t.Errorf("Glide = %v, %v, want partial move and error", moved, err)
	}
	if drv.Count() != 3*robot.NumChannels {
		t.Errorf("%d writes, want %d", drv.Count(), 3*robot.NumChannels)
	}
}

func TestSequencer_Stand(t *testing.T) {
	seq, plant, _ := newTestSequencer(t)
	if _, err := seq.Step(1, 35, NoTurn); err != nil {
		t.Fatal(err)
	}
	if err := seq.Stand(); err != nil {
		t.Fatal(err)
	}
	for ch := 0; ch < robot.NumChannels; ch++ {
		if plant.Position(ch) != robot.DefaultCenter {
			t.Errorf("channel %d at %d after stand", ch, plant.Position(ch))
		}
	}
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); err == nil {
		t.Error("Sleep ignored cancelled context")
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep = %v", err)
	}
}
