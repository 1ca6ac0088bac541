package imu

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/stat"
)

func TestTiltFromAccel(t *testing.T) {
	tests := []struct {
		name       string
		ax, ay, az float64
		wantX      float64
		wantY      float64
	}{
		{"level", 0, 0, 1, 0, 0},
		{"nose down", -1, 0, 1, 45, 0},
		{"roll right", 0, 1, 1, 0, 45},
		{"on side", 0, 1, 0, 0, 90},
	}
	for _, tt := range tests {
		got := TiltFromAccel(tt.ax, tt.ay, tt.az)
		if math.Abs(got.X-tt.wantX) > 1e-9 || math.Abs(got.Y-tt.wantY) > 1e-9 {
			t.Errorf("%s: TiltFromAccel = %+v, want {%v %v}", tt.name, got, tt.wantX, tt.wantY)
		}
	}
}

func TestNone(t *testing.T) {
	var r Reader = None{}
	if _, err := r.ReadTilt(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ReadTilt() = %v, want ErrUnavailable", err)
	}
	if Available(r) || Available(nil) {
		t.Error("None reported as available")
	}
	if !Available(NewSim(SimConfig{})) {
		t.Error("Sim reported as unavailable")
	}
}

func TestSim_Noise(t *testing.T) {
	s := NewSim(SimConfig{Noise: 2})
	s.SetTilt(Tilt{X: 5, Y: -3})

	xs := make([]float64, 4000)
	for i := range xs {
		tilt, err := s.ReadTilt()
		if err != nil {
			t.Fatal(err)
		}
		xs[i] = tilt.X
	}

	mean, std := stat.MeanStdDev(xs, nil)
	if math.Abs(mean-5) > 0.2 {
		t.Errorf("mean = %.3f, want ~5", mean)
	}
	if math.Abs(std-2) > 0.2 {
		t.Errorf("std = %.3f, want ~2", std)
	}
}

func TestSim_Disturbance(t *testing.T) {
	s := NewSim(SimConfig{Disturbance: true, DisturbanceMagnitude: 10})
	start := s.start
	at := start
	s.now = func() time.Time { return at }

	tests := []struct {
		offset time.Duration
		want   Tilt
	}{
		{250 * time.Millisecond, Tilt{}},
		{750 * time.Millisecond, Tilt{X: -10, Y: 0}},
		{1500 * time.Millisecond, Tilt{}},
	}
	for _, tt := range tests {
		at = start.Add(tt.offset)
		got, _ := s.ReadTilt()
		if math.Abs(got.X-tt.want.X) > 1e-6 || math.Abs(got.Y-tt.want.Y) > 1e-6 {
			t.Errorf("at %v: tilt = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestSim_Nudge(t *testing.T) {
	s := NewSim(SimConfig{})
	s.SetTilt(Tilt{X: 1, Y: 2})
	s.Nudge(Tilt{X: 3, Y: -4})
	s.Nudge(Tilt{X: -0.5})

	got, err := s.ReadTilt()
	if err != nil {
		t.Fatal(err)
	}
	if got != (Tilt{X: 3.5, Y: -2}) {
		t.Errorf("tilt = %+v, want {3.5 -2}", got)
	}
}
