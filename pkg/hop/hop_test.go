package hop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gwillem/hexapod/pkg/robot"
)

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
	return ctx.Err()
}

func newTestChoreographer() (*Choreographer, *robot.Plant, *robot.MemoryDriver, *fakeClock) {
	drv := robot.NewMemoryDriver()
	plant := robot.NewPlant(drv, robot.Limits{Min: 100, Max: 560}, robot.UniformCalibration(robot.DefaultCenter))
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := New(plant)
	c.now = clk.now
	c.sleep = clk.sleep
	return c, plant, drv, clk
}

func TestChoreographer_Sequence(t *testing.T) {
	c, plant, drv, _ := newTestChoreographer()

	var phases []Phase
	c.OnPhase(func(id string, p Phase) {
		if id == "" {
			t.Error("empty hop id")
		}
		phases = append(phases, p)
	})

	p := DefaultParams()
	res, err := c.Run(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []Phase{Crouch, Launch, Air, Landing}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %v, want %v", i, phases[i], want[i])
		}
	}

	writes := drv.Writes()
	if len(writes) != 3*robot.NumChannels {
		t.Fatalf("%d writes, want %d", len(writes), 3*robot.NumChannels)
	}
	for i, w := range writes {
		wantV := []int{450, 520, 400}[i/robot.NumChannels]
		if w.Value != wantV {
			t.Errorf("write %d = %+v, want value %d", i, w, wantV)
		}
	}
	for ch := 0; ch < robot.NumChannels; ch++ {
		if plant.Position(ch) != 400 {
			t.Errorf("channel %d ends at %d, want landing 400", ch, plant.Position(ch))
		}
	}

	if res.Duration != p.Duration() {
		t.Errorf("Duration = %v, want %v", res.Duration, p.Duration())
	}
	if res.Aborted {
		t.Error("hop reported aborted")
	}
}

func TestChoreographer_AirSampling(t *testing.T) {
	c, _, _, clk := newTestChoreographer()

	tilts := []float64{1, 4, 2.5}
	n := 0
	sample := func() (float64, bool) {
		v := tilts[n%len(tilts)]
		n++
		return v, true
	}

	p := DefaultParams()
	p.AirTime = 100 * time.Millisecond
	p.SampleInterval = 30 * time.Millisecond
	res, err := c.Run(context.Background(), p, sample)
	if err != nil {
		t.Fatal(err)
	}

	// 30+30+30+10
	if res.Samples != 4 {
		t.Errorf("Samples = %d, want 4", res.Samples)
	}
	if res.PeakTilt != 4 {
		t.Errorf("PeakTilt = %v, want 4", res.PeakTilt)
	}
	if res.Duration != p.Duration() {
		t.Errorf("Duration = %v, want %v (sampling must not stretch the hop)", res.Duration, p.Duration())
	}
	if len(clk.slept) != 7 {
		t.Errorf("slept %v", clk.slept)
	}
}

func TestChoreographer_NoSensor(t *testing.T) {
	c, _, _, _ := newTestChoreographer()
	res, err := c.Run(context.Background(), DefaultParams(), func() (float64, bool) { return 0, false })
	if err != nil {
		t.Fatal(err)
	}
	if res.Samples != 0 || res.PeakTilt != 0 {
		t.Errorf("Result = %+v, want no samples", res)
	}
}

func TestChoreographer_FaultsDoNotStopHop(t *testing.T) {
	c, plant, drv, _ := newTestChoreographer()
	drv.FailWith(func(ch, v int) error {
		if ch == 3 && v == 520 {
			return errors.New("stall")
		}
		return nil
	})

	_, err := c.Run(context.Background(), DefaultParams(), nil)
	if !errors.Is(err, robot.ErrHardwareFault) {
		t.Errorf("Run = %v, want hardware fault", err)
	}
	if plant.Position(3) != 400 {
		t.Errorf("channel 3 at %d, want landing 400", plant.Position(3))
	}
}

func TestChoreographer_CancelledStillLands(t *testing.T) {
	c, plant, _, _ := newTestChoreographer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, _ := c.Run(ctx, DefaultParams(), nil)
	if !res.Aborted {
		t.Error("Aborted = false")
	}
	if plant.Position(0) != 400 {
		t.Errorf("channel 0 at %d, want landing 400", plant.Position(0))
	}
}

func TestChoreographer_RealTime(t *testing.T) {
	drv := robot.NewMemoryDriver()
	plant := robot.NewPlant(drv, robot.Limits{Min: 100, Max: 560}, robot.UniformCalibration(robot.DefaultCenter))
	c := New(plant)

	p := DefaultParams()
	p.CrouchDelay = 20 * time.Millisecond
	p.LaunchDelay = 15 * time.Millisecond
	p.AirTime = 30 * time.Millisecond
	p.LandingDelay = 25 * time.Millisecond
	p.SampleInterval = 5 * time.Millisecond

	start := time.Now()
	if _, err := c.Run(context.Background(), p, nil); err != nil {
		t.Fatal(err)
	}
	el := time.Since(start)
	if el < p.Duration() || el > p.Duration()+150*time.Millisecond {
		t.Errorf("hop took %v, want about %v", el, p.Duration())
	}
}

func TestParams_Validate(t *testing.T) {
	l := robot.Limits{Min: 100, Max: 560}
	if err := DefaultParams().Validate(l); err != nil {
		t.Errorf("default params rejected: %v", err)
	}

	p := DefaultParams()
	p.Launch[5] = 600
	if err := p.Validate(l); !errors.Is(err, robot.ErrPositionRange) {
		t.Errorf("Validate = %v, want ErrPositionRange", err)
	}

	p = DefaultParams()
	p.AirTime = -time.Second
	if err := p.Validate(l); err == nil {
		t.Error("negative delay accepted")
	}
}

func TestParamsFromConfig(t *testing.T) {
	cfg := robot.DefaultConfig().Hop
	p, err := ParamsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p != DefaultParams() {
		t.Errorf("ParamsFromConfig(default) = %+v, want DefaultParams", p)
	}

	cfg.Landing = cfg.Landing[:3]
	if _, err := ParamsFromConfig(cfg); err == nil {
		t.Error("short landing pose accepted")
	}
}
