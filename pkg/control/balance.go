package control

import (
	"context"
	"math"
	"time"

	"github.com/gwillem/hexapod/pkg/imu"
	"github.com/gwillem/hexapod/pkg/robot"
)

// trimTargets splays front and rear legs for a wider stance. Middle legs
// return to base.
func (c *Controller) trimTargets() []robot.Target {
	legs := c.body.Legs()
	out := make([]robot.Target, 0, len(legs))
	for _, l := range legs {
		out = append(out, c.body.Swing(l, l.Mount.ForeSign()*c.cfg.Balance.SteadySwing))
	}
	return out
}

// heightTargets computes the lift of every leg from the two controller
// outputs. outX tilts the body fore/aft, outY side to side.
func (c *Controller) heightTargets(outX, outY float64) []robot.Target {
	b := c.cfg.Balance
	legs := c.body.Legs()
	out := make([]robot.Target, 0, len(legs))
	for _, l := range legs {
		adj := float64(b.Mid) + float64(l.SideSign())*outY + float64(l.Mount.ForeSign())*outX
		adj = math.Max(float64(b.Min), math.Min(float64(b.Max), adj))
		out = append(out, c.body.Lift(l, int(math.Round(adj))))
	}
	return out
}

// balance runs one balance tick: sensor read, filter, controller, lift
// write. A sensor fault skips the tick.
func (c *Controller) balance(ctx context.Context, s snapshot) {
	if !s.balanceEntered {
		c.report("balance trim", c.plant.Apply(c.trimTargets()))
		c.mu.Lock()
		if c.st.mode == Balancing {
			c.st.balanceEntered = true
		}
		c.mu.Unlock()
		c.log("Balancing")
	}

	raw, err := c.sensor.ReadTilt()
	if err != nil {
		c.report("imu", err)
		_ = c.sleep(ctx, max(c.cfg.Balance.Interval, 10*time.Millisecond))
		return
	}
	c.raw, c.haveRaw = raw, true

	est := imu.Tilt{X: c.filterX.Update(raw.X), Y: c.filterY.Update(raw.Y)}
	outX := c.pidX.Compute(s.target.X - est.X)
	outY := c.pidY.Compute(s.target.Y - est.Y)

	c.report("balance", c.plant.Apply(c.heightTargets(outX, outY)))

	if c.cfg.Balance.Interval > 0 {
		_ = c.sleep(ctx, c.cfg.Balance.Interval)
	}
}
