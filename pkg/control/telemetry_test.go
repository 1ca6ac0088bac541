package control

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/gwillem/hexapod/pkg/imu"
	"github.com/gwillem/hexapod/pkg/robot"
)

func nan() float64 { return math.NaN() }

func TestStability(t *testing.T) {
	m := maxStabilityError
	if math.Abs(m-11.77) > 0.01 {
		t.Errorf("maxStabilityError = %.3f degrees, want ~11.77", m)
	}
	tests := []struct {
		raw, target imu.Tilt
		want        float64
	}{
		{imu.Tilt{}, imu.Tilt{}, 100},
		{imu.Tilt{X: m / 2, Y: m / 2}, imu.Tilt{}, 50},
		{imu.Tilt{X: m, Y: -m}, imu.Tilt{}, 0},
		{imu.Tilt{X: 2, Y: -2}, imu.Tilt{}, 100 * (1 - 2/m)},
		{imu.Tilt{X: 30}, imu.Tilt{}, 0},
		{imu.Tilt{X: 1.5, Y: 0.5}, imu.Tilt{X: 1.5, Y: 0.5}, 100},
	}
	for _, tt := range tests {
		if got := Stability(tt.raw, tt.target); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Stability(%+v, %+v) = %v, want %v", tt.raw, tt.target, got, tt.want)
		}
	}
}

func TestTelemetry_NoSensor(t *testing.T) {
	r := newRig(t, false)
	tel := r.c.Telemetry()
	if tel.SensorAvailable || tel.Stability != 0 {
		t.Errorf("telemetry without sensor = %+v", tel)
	}
}

func TestTelemetry_JSON(t *testing.T) {
	r := newRig(t, true)
	if err := r.c.SetMode(Balancing); err != nil {
		t.Fatal(err)
	}
	r.step(t)
	r.c.publish()

	data, err := r.c.Telemetry().JSON()
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"kalman_x", "kalman_y", "pid_x", "pid_y", "balance_error", "stability"} {
		if _, ok := m[key]; !ok {
			t.Errorf("telemetry JSON lacks %q", key)
		}
	}
	if m["mode"] != "balancing" {
		t.Errorf("mode = %v", m["mode"])
	}
	if s := m["stability"].(float64); s != 100 {
		t.Errorf("stability of a level simulated robot = %v, want 100", s)
	}
}

func TestConfigFrom(t *testing.T) {
	got, err := ConfigFrom(robot.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultConfig() {
		t.Errorf("ConfigFrom(defaults) = %+v\nwant %+v", got, DefaultConfig())
	}

	bad := robot.DefaultConfig()
	bad.Hop.Crouch = nil
	if _, err := ConfigFrom(bad); err == nil {
		t.Error("missing hop pose accepted")
	}
}
