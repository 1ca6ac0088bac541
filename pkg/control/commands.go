package control

import (
	"fmt"
	"math"

	"github.com/gwillem/hexapod/pkg/filter"
	"github.com/gwillem/hexapod/pkg/gait"
	"github.com/gwillem/hexapod/pkg/hop"
	"github.com/gwillem/hexapod/pkg/pid"
)

// SetMode requests a mode. Walking needs an active intent, Balancing a
// working sensor; Hopping starts a hop with the configured parameters.
// The change takes effect at the next loop iteration, or after landing if
// a hop is in progress.
func (c *Controller) SetMode(m Mode) error {
	switch m {
	case Idle:
		c.apply(func(s *state) {
			s.intent.Direction = Stand
			s.intent.Turn = gait.NoTurn
			s.stop()
		})
	case Walking:
		// Queued during a hop, the intent is checked after landing and an
		// inactive one is dropped.
		var err error
		deferred := c.apply(func(s *state) {
			if !s.intent.Active() {
				err = fmt.Errorf("%w: walking needs a direction or turn", ErrInvalidCommand)
				return
			}
			s.setMode(Walking)
		})
		if !deferred {
			return err
		}
	case Balancing:
		if !c.hasIMU {
			return ErrSensorUnavailable
		}
		c.apply(func(s *state) { s.setMode(Balancing) })
	case Hopping:
		return c.TriggerHop(c.cfg.Hop)
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidCommand, int(m))
	}
	return nil
}

// SetIntent sets the walking direction and turn. An active intent starts
// walking; standing with no turn stops walking or balancing and stands up.
func (c *Controller) SetIntent(d Direction, t gait.Turn) error {
	if !d.valid() {
		return fmt.Errorf("%w: direction %d", ErrInvalidCommand, int(d))
	}
	if t < gait.NoTurn || t > gait.TurnRight {
		return fmt.Errorf("%w: turn %d", ErrInvalidCommand, int(t))
	}
	c.apply(func(s *state) {
		s.intent.Direction = d
		s.intent.Turn = t
		switch {
		case s.intent.Active():
			s.setMode(Walking)
		case s.mode == Walking || s.mode == Balancing:
			s.stop()
		}
	})
	return nil
}

// SetDirection changes only the direction part of the intent.
func (c *Controller) SetDirection(d Direction) error {
	return c.SetIntent(d, c.Intent().Turn)
}

// SetTurn changes only the turn part of the intent.
func (c *Controller) SetTurn(t gait.Turn) error {
	return c.SetIntent(c.Intent().Direction, t)
}

// SetSmooth switches between the discrete and the interpolated gait.
func (c *Controller) SetSmooth(on bool) {
	c.apply(func(s *state) { s.intent.Smooth = on })
}

// Intent returns the current motion intent.
func (c *Controller) Intent() Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.intent
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.mode
}

// TriggerHop schedules a hop. From then on commands are queued until it
// lands, and it always ends standing in Idle.
func (c *Controller) TriggerHop(p hop.Params) error {
	if err := p.Validate(c.plant.Limits()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	c.apply(func(s *state) {
		s.hopParams = p
		s.setMode(Hopping)
		s.hopping = true
	})
	return nil
}

// Tunable parameter names accepted by UpdateGains.
const (
	ParamQ          = "Q"
	ParamR          = "R"
	ParamAlpha      = "alpha"
	ParamHistory    = "history"
	ParamP          = "P"
	ParamI          = "I"
	ParamD          = "D"
	ParamWindup     = "windup"
	ParamSpeedScale = "speed_scale"
	ParamXTarget    = "x_target"
	ParamYTarget    = "y_target"
)

// UpdateGains retunes the filter, PID, gait speed or balance targets.
// Filter and PID parameters apply to the selected axis; the others are
// global. An invalid value leaves everything unchanged.
func (c *Controller) UpdateGains(axis Axis, param string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s = %v", ErrInvalidCommand, param, value)
	}
	if axis < AxisBoth || axis > AxisY {
		return fmt.Errorf("%w: axis %d", ErrInvalidCommand, int(axis))
	}

	var err error
	switch param {
	case ParamQ, ParamR, ParamAlpha, ParamHistory:
		err = c.updateFilters(axis, param, value)
	case ParamP, ParamI, ParamD, ParamWindup:
		err = c.updatePIDs(axis, param, value)
	case ParamSpeedScale:
		if value < 0 {
			return fmt.Errorf("%w: speed_scale %v", ErrInvalidCommand, value)
		}
		c.mu.Lock()
		c.st.speedScale = value
		c.mu.Unlock()
	case ParamXTarget:
		c.mu.Lock()
		c.st.target.X = value
		c.mu.Unlock()
	case ParamYTarget:
		c.mu.Lock()
		c.st.target.Y = value
		c.mu.Unlock()
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidCommand, param)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	c.logger.Info("parameter updated", "axis", axis.String(), "param", param, "value", value)
	c.log("%s[%s] = %g", param, axis, value)
	return nil
}

func (c *Controller) filters(axis Axis) []*filter.Filter {
	var out []*filter.Filter
	if axis.x() {
		out = append(out, c.filterX)
	}
	if axis.y() {
		out = append(out, c.filterY)
	}
	return out
}

func (c *Controller) pids(axis Axis) []*pid.Controller {
	var out []*pid.Controller
	if axis.x() {
		out = append(out, c.pidX)
	}
	if axis.y() {
		out = append(out, c.pidY)
	}
	return out
}

func (c *Controller) updateFilters(axis Axis, param string, value float64) error {
	// Check before touching either axis so a bad value changes nothing.
	switch param {
	case ParamQ, ParamR:
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", param, value)
		}
	case ParamAlpha:
		if value < 0 || value > 1 {
			return fmt.Errorf("alpha must be in [0, 1], got %v", value)
		}
	case ParamHistory:
		if value < 1 || value != math.Trunc(value) {
			return fmt.Errorf("history must be a positive integer, got %v", value)
		}
	}

	for _, f := range c.filters(axis) {
		var err error
		switch param {
		case ParamQ:
			err = f.SetQ(value)
		case ParamR:
			err = f.SetR(value)
		case ParamAlpha:
			err = f.SetAlpha(value)
		case ParamHistory:
			err = f.SetHistory(int(value))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) updatePIDs(axis Axis, param string, value float64) error {
	for _, p := range c.pids(axis) {
		var err error
		switch param {
		case ParamP:
			err = p.SetKp(value)
		case ParamI:
			err = p.SetKi(value)
		case ParamD:
			err = p.SetKd(value)
		case ParamWindup:
			err = p.SetWindup(value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
