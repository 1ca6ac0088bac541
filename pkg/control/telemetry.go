package control

import (
	"encoding/json"
	"math"
	"time"

	"github.com/gwillem/hexapod/pkg/filter"
	"github.com/gwillem/hexapod/pkg/gait"
	"github.com/gwillem/hexapod/pkg/hop"
	"github.com/gwillem/hexapod/pkg/imu"
	"github.com/gwillem/hexapod/pkg/pid"
	"github.com/gwillem/hexapod/pkg/robot"
)

// maxStabilityError is the tilt error in degrees, per axis mean, at which
// stability reads zero: the tilt that puts 2 m/s² of gravity on an axis.
var maxStabilityError = math.Asin(2/9.80665) * 180 / math.Pi

// Telemetry is a snapshot of the controller published after every loop
// iteration.
type Telemetry struct {
	Time   time.Time  `json:"time"`
	Mode   Mode       `json:"mode"`
	Intent Intent     `json:"intent"`
	Phase  gait.Phase `json:"phase"`

	FilterX filter.State `json:"kalman_x"`
	FilterY filter.State `json:"kalman_y"`
	PIDX    pid.Status   `json:"pid_x"`
	PIDY    pid.Status   `json:"pid_y"`

	SensorAvailable bool     `json:"sensor_available"`
	Raw             imu.Tilt `json:"raw"`
	Target          imu.Tilt `json:"target"`
	BalanceError    float64  `json:"balance_error"`
	Stability       float64  `json:"stability"`
	SpeedScale      float64  `json:"speed_scale"`

	Positions [robot.NumChannels]int `json:"positions"`
	Writes    uint64                 `json:"writes"`
	Faults    uint64                 `json:"faults"`

	LastHop *hop.Result `json:"last_hop,omitempty"`
}

// JSON encodes the telemetry for monitoring clients.
func (t Telemetry) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// Stability maps the raw tilt error onto 0..100, 100 being level on target.
func Stability(raw, target imu.Tilt) float64 {
	e := (math.Abs(raw.X-target.X) + math.Abs(raw.Y-target.Y)) / 2
	return math.Max(0, math.Min(100, 100*(1-e/maxStabilityError)))
}

// Telemetry returns the current state of the controller.
func (c *Controller) Telemetry() Telemetry {
	c.mu.Lock()
	t := Telemetry{
		Time:       time.Now(),
		Mode:       c.st.mode,
		Intent:     c.st.intent,
		Phase:      c.st.phase,
		Target:     c.st.target,
		SpeedScale: c.st.speedScale,
	}
	c.mu.Unlock()

	t.FilterX = c.filterX.State()
	t.FilterY = c.filterY.State()
	t.PIDX = c.pidX.Status()
	t.PIDY = c.pidY.Status()
	t.SensorAvailable = c.hasIMU
	t.BalanceError = math.Abs(t.Target.X-t.FilterX.Estimate) + math.Abs(t.Target.Y-t.FilterY.Estimate)
	t.Positions = c.plant.Positions()
	t.Writes, t.Faults = c.plant.Stats()

	c.telMu.RLock()
	t.Raw = c.lastRaw
	if c.hasIMU && c.haveLastRaw {
		t.Stability = Stability(t.Raw, t.Target)
	}
	if c.lastHop != nil {
		h := *c.lastHop
		t.LastHop = &h
	}
	c.telMu.RUnlock()
	return t
}

// publish copies the loop-owned sensor sample for other goroutines and
// pushes a snapshot to States.
func (c *Controller) publish() {
	c.telMu.Lock()
	c.lastRaw, c.haveLastRaw = c.raw, c.haveRaw
	c.telMu.Unlock()

	s := c.Telemetry()
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}
