package imu

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// SimConfig configures the simulated sensor.
type SimConfig struct {
	// Noise is the standard deviation of the gaussian noise added to each
	// axis, in degrees.
	Noise float64

	// Disturbance enables a circular sway between 0.5s and 1.0s after
	// start, DisturbanceMagnitude degrees wide.
	Disturbance          bool
	DisturbanceMagnitude float64
}

// Sim is a noisy tilt sensor for running without hardware.
type Sim struct {
	cfg   SimConfig
	noise distuv.Normal
	start time.Time
	now   func() time.Time

	mu   sync.Mutex
	tilt Tilt
}

// NewSim creates a simulated sensor resting at zero tilt.
func NewSim(cfg SimConfig) *Sim {
	if cfg.DisturbanceMagnitude == 0 {
		cfg.DisturbanceMagnitude = 10
	}
	s := &Sim{
		cfg:   cfg,
		noise: distuv.Normal{Mu: 0, Sigma: cfg.Noise},
		now:   time.Now,
	}
	s.start = s.now()
	return s
}

// SetTilt sets the underlying body tilt.
func (s *Sim) SetTilt(t Tilt) {
	s.mu.Lock()
	s.tilt = t
	s.mu.Unlock()
}

// Nudge adds d to the underlying tilt.
func (s *Sim) Nudge(d Tilt) {
	s.mu.Lock()
	s.tilt.X += d.X
	s.tilt.Y += d.Y
	s.mu.Unlock()
}

func (s *Sim) ReadTilt() (Tilt, error) {
	s.mu.Lock()
	t := s.tilt
	s.mu.Unlock()

	if s.cfg.Disturbance {
		el := s.now().Sub(s.start).Seconds()
		if el > 0.5 && el < 1.0 {
			t.X += s.cfg.DisturbanceMagnitude * math.Sin(2*math.Pi*el)
			t.Y += s.cfg.DisturbanceMagnitude * math.Cos(2*math.Pi*el)
		}
	}
	if s.cfg.Noise > 0 {
		t.X += s.noise.Rand()
		t.Y += s.noise.Rand()
	}
	return t, nil
}

func (s *Sim) Close() error {
	return nil
}
