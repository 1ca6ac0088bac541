// Package pid is a wall-clock PID controller.
package pid

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrInvalidGain is returned for NaN or infinite gains.
var ErrInvalidGain = errors.New("invalid gain")

// Gains are the controller coefficients.
type Gains struct {
	Kp float64 `json:"Kp"`
	Ki float64 `json:"Ki"`
	Kd float64 `json:"Kd"`

	// Windup is kept for tuning tools. The integral is not clamped.
	Windup float64 `json:"windup_guard"`
}

// DefaultGains returns the tilt controller tuning.
func DefaultGains() Gains {
	return Gains{Kp: 5, Ki: 0, Kd: 0.01, Windup: 20}
}

// Status is a snapshot of the controller terms.
type Status struct {
	P        float64 `json:"P"`
	I        float64 `json:"I"`
	D        float64 `json:"D"`
	Output   float64 `json:"output"`
	Error    float64 `json:"error"`
	Integral float64 `json:"integral"`
	Settings Gains   `json:"settings"`
}

// Controller is safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	now   func() time.Time
	gains Gains

	integral  float64
	lastError float64
	lastTime  time.Time
	last      Status
}

// New creates a controller. The first Compute measures dt from now.
func New(g Gains) *Controller {
	return NewWithClock(g, time.Now)
}

// NewWithClock creates a controller reading time from now.
func NewWithClock(g Gains, now func() time.Time) *Controller {
	c := &Controller{gains: g, now: now}
	c.lastTime = now()
	c.last.Settings = g
	return c
}

// Compute returns the control output for err.
func (c *Controller) Compute(err float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	dt := t.Sub(c.lastTime).Seconds()

	c.integral += err * dt
	derivative := 0.0
	if dt > 0 {
		derivative = (err - c.lastError) / dt
	}

	p := c.gains.Kp * err
	i := c.gains.Ki * c.integral
	d := c.gains.Kd * derivative
	out := p + i + d

	c.lastTime = t
	c.lastError = err
	c.last = Status{
		P:        p,
		I:        i,
		D:        d,
		Output:   out,
		Error:    err,
		Integral: c.integral,
		Settings: c.gains,
	}
	return out
}

// Reset clears the integral and error history.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integral = 0
	c.lastError = 0
	c.lastTime = c.now()
	c.last = Status{Settings: c.gains}
}

// Status returns the terms of the last Compute.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.last
	s.Settings = c.gains
	return s
}

// Gains returns the current gains.
func (c *Controller) Gains() Gains {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gains
}

func checkGain(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %v", ErrInvalidGain, name, v)
	}
	return nil
}

func (c *Controller) set(name string, v float64, field *float64) error {
	if err := checkGain(name, v); err != nil {
		return err
	}
	c.mu.Lock()
	*field = v
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetKp(v float64) error     { return c.set("kp", v, &c.gains.Kp) }
func (c *Controller) SetKi(v float64) error     { return c.set("ki", v, &c.gains.Ki) }
func (c *Controller) SetKd(v float64) error     { return c.set("kd", v, &c.gains.Kd) }
func (c *Controller) SetWindup(v float64) error { return c.set("windup", v, &c.gains.Windup) }
