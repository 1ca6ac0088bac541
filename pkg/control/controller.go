// Package control runs the hexapod: a single worker goroutine owns the
// legs and arbitrates between walking, balancing, hopping and standing
// still. Commands only change the desired mode and intent; the worker picks
// them up at the start of its next iteration.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gwillem/hexapod/pkg/filter"
	"github.com/gwillem/hexapod/pkg/gait"
	"github.com/gwillem/hexapod/pkg/hop"
	"github.com/gwillem/hexapod/pkg/imu"
	"github.com/gwillem/hexapod/pkg/pid"
	"github.com/gwillem/hexapod/pkg/robot"
)

// Controller is the control loop.
type Controller struct {
	plant  *robot.Plant
	body   *robot.Body
	sensor imu.Reader
	hasIMU bool
	cfg    Config
	logger *slog.Logger

	seq    *gait.Sequencer
	hopper *hop.Choreographer

	filterX, filterY *filter.Filter
	pidX, pidY       *pid.Controller

	mu      sync.Mutex
	st      state
	running bool

	wake    chan struct{}
	stateCh chan Telemetry
	logCh   chan string
	sleep   func(ctx context.Context, d time.Duration) error

	// Loop-owned.
	raw     imu.Tilt
	haveRaw bool
	faults  faultLog

	telMu       sync.RWMutex
	lastRaw     imu.Tilt
	haveLastRaw bool
	lastHop     *hop.Result
}

// New creates a controller. sensor may be nil or imu.None, in which case
// balancing is refused.
func New(plant *robot.Plant, body *robot.Body, sensor imu.Reader, cfg Config, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sensor == nil {
		sensor = imu.None{}
	}
	if err := cfg.Hop.Validate(plant.Limits()); err != nil {
		return nil, fmt.Errorf("hop params: %w", err)
	}

	fx, err := filter.New(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("create x filter: %w", err)
	}
	fy, err := filter.New(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("create y filter: %w", err)
	}

	if cfg.SpeedScale <= 0 {
		cfg.SpeedScale = 1
	}

	c := &Controller{
		plant:   plant,
		body:    body,
		sensor:  sensor,
		hasIMU:  imu.Available(sensor),
		cfg:     cfg,
		logger:  logger.With("component", "control"),
		seq:     gait.New(body, plant, cfg.Gait),
		hopper:  hop.New(plant),
		filterX: fx,
		filterY: fy,
		pidX:    pid.New(cfg.PID),
		pidY:    pid.New(cfg.PID),
		wake:    make(chan struct{}, 1),
		stateCh: make(chan Telemetry, 1),
		logCh:   make(chan string, 10),
		sleep:   gait.Sleep,
	}
	c.st = state{
		mode:       Idle,
		intent:     Intent{Smooth: cfg.Smooth},
		phase:      gait.First,
		hopParams:  cfg.Hop,
		speedScale: cfg.SpeedScale,
		target:     imu.Tilt{X: cfg.Balance.TargetX, Y: cfg.Balance.TargetY},
	}
	c.hopper.OnPhase(func(id string, p hop.Phase) {
		c.logger.Debug("hop phase", "hop_id", id, "phase", p.String())
	})
	return c, nil
}

// States returns a channel that receives a telemetry snapshot after every
// loop iteration. Old snapshots are dropped.
func (c *Controller) States() <-chan Telemetry {
	return c.stateCh
}

// Logs returns a channel that receives short event lines for display.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// SensorAvailable reports whether balancing can be used.
func (c *Controller) SensorAvailable() bool {
	return c.hasIMU
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// signal wakes the worker if it is waiting for a command.
func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// apply runs fn against the state, or queues it while a hop is in the air.
// It reports whether fn was deferred.
func (c *Controller) apply(fn func(*state)) bool {
	c.mu.Lock()
	deferred := c.st.hopping
	if deferred {
		c.st.pending = append(c.st.pending, fn)
	} else {
		fn(&c.st)
	}
	c.mu.Unlock()
	c.signal()
	return deferred
}

func (c *Controller) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := snapshot{
		mode:           c.st.mode,
		intent:         c.st.intent,
		phase:          c.st.phase,
		hopParams:      c.st.hopParams,
		standRequested: c.st.standRequested,
		balanceEntered: c.st.balanceEntered,
		speedScale:     c.st.speedScale,
		target:         c.st.target,
	}
	c.st.standRequested = false
	return s
}

// Run drives the loop until ctx is cancelled. The worker sleeps while Idle
// and resumes when a command sets an active mode.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.logger.Info("control loop started", "imu", c.hasIMU)
	c.log("Control loop started (imu: %v)", c.hasIMU)

	for {
		if ctx.Err() != nil {
			c.shutdown()
			return ctx.Err()
		}

		active := c.step(ctx)
		c.publish()

		if active {
			continue
		}
		select {
		case <-ctx.Done():
		case <-c.wake:
		}
	}
}

// step runs one loop iteration and reports whether the loop has more work
// without waiting for a command.
func (c *Controller) step(ctx context.Context) bool {
	s := c.snapshot()

	switch s.mode {
	case Idle:
		if s.standRequested {
			c.report("stand", c.seq.Stand())
			c.log("Standing")
		}
		return false

	case Walking:
		return c.walk(ctx, s)

	case Balancing:
		c.balance(ctx, s)
		return true

	case Hopping:
		c.hop(ctx, s)
		return true
	}
	return false
}

func (c *Controller) walk(ctx context.Context, s snapshot) bool {
	speed := int(math.Round(float64(c.cfg.Gait.Speed) * s.speedScale))
	mag := s.intent.magnitude(speed)

	var moved bool
	var err error
	if s.intent.Smooth {
		stepCtx, cancel := context.WithCancel(ctx)
		c.mu.Lock()
		if c.st.mode != Walking {
			// Stopped between snapshot and here.
			c.mu.Unlock()
			cancel()
			return true
		}
		c.st.cancelStep = cancel
		c.mu.Unlock()

		moved, err = c.seq.Glide(stepCtx, s.phase, mag, s.intent.Turn)

		c.mu.Lock()
		c.st.cancelStep = nil
		c.mu.Unlock()
		cancel()
		if stepCtx.Err() != nil {
			err = nil
		}
	} else {
		moved, err = c.seq.Step(s.phase, mag, s.intent.Turn)
	}
	c.report("gait", err)

	if !moved {
		c.mu.Lock()
		if c.st.mode == Walking {
			c.st.setMode(Idle)
		}
		c.mu.Unlock()
		c.logger.Debug("zero magnitude, going idle")
		return true
	}

	c.mu.Lock()
	if c.st.mode == Walking && c.st.phase == s.phase {
		c.st.phase = s.phase.Next()
	}
	c.mu.Unlock()

	if !s.intent.Smooth {
		_ = c.sleep(ctx, c.cfg.Gait.StepInterval)
	}
	return true
}

func (c *Controller) hop(ctx context.Context, s snapshot) {
	c.log("Hop")
	res, err := c.hopper.Run(ctx, s.hopParams, c.sampleAir)
	c.report("hop", err)
	c.logger.Info("hop landed", "hop_id", res.ID, "duration", res.Duration, "peak_tilt", res.PeakTilt, "aborted", res.Aborted)
	c.log("Landed in %s (peak tilt %.1f)", res.Duration.Round(time.Millisecond), res.PeakTilt)

	c.telMu.Lock()
	c.lastHop = &res
	c.telMu.Unlock()

	c.mu.Lock()
	c.st.hopping = false
	c.st.stop()
	pending := c.st.pending
	c.st.pending = nil
	for i, fn := range pending {
		fn(&c.st)
		if c.st.hopping {
			// A queued hop keeps the rest waiting for its landing.
			c.st.pending = append(c.st.pending, pending[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// sampleAir feeds the filters while airborne and returns the filtered
// tilt magnitude.
func (c *Controller) sampleAir() (float64, bool) {
	if !c.hasIMU {
		return 0, false
	}
	raw, err := c.sensor.ReadTilt()
	if err != nil {
		c.report("imu", err)
		return 0, false
	}
	c.raw, c.haveRaw = raw, true
	est := imu.Tilt{X: c.filterX.Update(raw.X), Y: c.filterY.Update(raw.Y)}
	return est.Magnitude(), true
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	if c.st.cancelStep != nil {
		c.st.cancelStep()
	}
	c.mu.Unlock()
	c.logger.Info("control loop stopped")
	c.log("Control loop stopped")
}
