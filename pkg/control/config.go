package control

import (
	"fmt"
	"time"

	"github.com/gwillem/hexapod/pkg/filter"
	"github.com/gwillem/hexapod/pkg/gait"
	"github.com/gwillem/hexapod/pkg/hop"
	"github.com/gwillem/hexapod/pkg/pid"
	"github.com/gwillem/hexapod/pkg/robot"
)

// BalanceConfig tunes the steady stance.
type BalanceConfig struct {
	SteadySwing int // front/rear legs splay while balancing
	Mid         int // neutral lift adjust
	Min, Max    int // lift adjust range
	TargetX     float64
	TargetY     float64

	// Interval is the pause after each balance tick. Zero runs ticks
	// back to back.
	Interval time.Duration
}

// Config holds everything the controller needs besides hardware.
type Config struct {
	Gait       gait.Config
	Smooth     bool
	SpeedScale float64
	Balance    BalanceConfig
	Filter     filter.Config
	PID        pid.Gains
	Hop        hop.Params
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Gait:       gait.DefaultConfig(),
		SpeedScale: 1,
		Balance: BalanceConfig{
			SteadySwing: 73,
			Mid:         45,
			Min:         -40,
			Max:         130,
			Interval:    20 * time.Millisecond,
		},
		Filter: filter.DefaultConfig(),
		PID:    pid.DefaultGains(),
		Hop:    hop.DefaultParams(),
	}
}

// ConfigFrom converts the config file into controller settings.
func ConfigFrom(c *robot.Config) (Config, error) {
	hp, err := hop.ParamsFromConfig(c.Hop)
	if err != nil {
		return Config{}, fmt.Errorf("hop config: %w", err)
	}
	return Config{
		Gait: gait.Config{
			Speed:         c.Gait.Speed,
			HeightChange:  c.Gait.HeightChange,
			StepInterval:  c.Gait.StepInterval.Duration,
			Subdivisions:  c.Gait.Subdivisions,
			PhaseDuration: c.Gait.PhaseDuration.Duration,
			StancePress:   c.Gait.StancePress,
		},
		Smooth:     c.Gait.Smooth,
		SpeedScale: c.PID.SpeedScale,
		Balance: BalanceConfig{
			SteadySwing: c.Balance.SteadySwing,
			Mid:         c.Balance.Mid,
			Min:         c.Balance.Min,
			Max:         c.Balance.Max,
			TargetX:     c.Balance.TargetX,
			TargetY:     c.Balance.TargetY,
			Interval:    c.Balance.Interval.Duration,
		},
		Filter: filter.Config{
			Q:             c.Filter.Q,
			R:             c.Filter.R,
			AlphaR:        c.Filter.AlphaR,
			AlphaQ:        c.Filter.AlphaQ,
			JumpThreshold: c.Filter.JumpThreshold,
			History:       c.Filter.History,
			MinSamples:    c.Filter.MinSamples,
			Batch:         c.Filter.Batch,
		},
		PID: pid.Gains{
			Kp:     c.PID.Kp,
			Ki:     c.PID.Ki,
			Kd:     c.PID.Kd,
			Windup: c.PID.Windup,
		},
		Hop: hp,
	}, nil
}

// StoreGains writes the live-tuned filter and PID settings back into the
// config file structure. X axis values are stored; both axes share one
// section.
func (c *Controller) StoreGains(dst *robot.Config) {
	f := c.filterX.Config()
	dst.Filter.Q = f.Q
	dst.Filter.R = f.R
	dst.Filter.AlphaR = f.AlphaR
	dst.Filter.AlphaQ = f.AlphaQ
	dst.Filter.History = f.History

	g := c.pidX.Gains()
	dst.PID.Kp = g.Kp
	dst.PID.Ki = g.Ki
	dst.PID.Kd = g.Kd
	dst.PID.Windup = g.Windup

	c.mu.Lock()
	dst.PID.SpeedScale = c.st.speedScale
	dst.Balance.TargetX = c.st.target.X
	dst.Balance.TargetY = c.st.target.Y
	c.mu.Unlock()
}
