// Package filter implements the adaptive scalar Kalman filter used to
// smooth body tilt.
//
// The measurement and process noise covariances are re-estimated online
// from a sliding window of innovations and state changes, using
// exponential smoothing towards the windowed statistics.
package filter

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidParameter is returned by setters given an out of range value.
var ErrInvalidParameter = errors.New("invalid filter parameter")

const (
	minR = 1e-6
	minQ = 1e-7

	// Measurements this far from the last estimate pull the prediction
	// towards themselves by the golden ratio.
	jumpWeight = 0.382

	processScale = 0.1
)

// Config holds the tuning of one filter.
type Config struct {
	Q             float64
	R             float64
	AlphaR        float64
	AlphaQ        float64
	JumpThreshold float64
	History       int // window capacity
	MinSamples    int // samples needed before adapting
	Batch         int // most recent samples used per adaptation
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Q:             0.01,
		R:             0.1,
		AlphaR:        0.01,
		AlphaQ:        0.001,
		JumpThreshold: 60,
		History:       50,
		MinSamples:    10,
		Batch:         30,
	}
}

func (c Config) validate() error {
	switch {
	case !(c.Q > 0) || !(c.R > 0):
		return fmt.Errorf("%w: q and r must be positive", ErrInvalidParameter)
	case c.AlphaR < 0 || c.AlphaR > 1 || c.AlphaQ < 0 || c.AlphaQ > 1:
		return fmt.Errorf("%w: learning rates must be in [0, 1]", ErrInvalidParameter)
	case c.History < 1 || c.MinSamples < 1 || c.Batch < 1:
		return fmt.Errorf("%w: window sizes must be positive", ErrInvalidParameter)
	}
	return nil
}

// State is a snapshot of the filter for telemetry.
type State struct {
	Q                 float64 `json:"Q"`
	R                 float64 `json:"R"`
	PriorErrorCov     float64 `json:"prior_error_cov"`
	PosteriorErrorCov float64 `json:"P"`
	Gain              float64 `json:"gain"`
	PriorEstimate     float64 `json:"prior_estimate"`
	Estimate          float64 `json:"estimate"`
	LastRaw           float64 `json:"last_raw"`
	AlphaR            float64 `json:"alpha_r"`
	AlphaQ            float64 `json:"alpha_q"`
	HistoryCap        int     `json:"history_max_size"`
	HistorySize       int     `json:"history_size"`
}

// Filter is a one dimensional adaptive Kalman filter. It is safe for
// concurrent use: the control loop updates it while commands retune it.
type Filter struct {
	mu sync.Mutex

	cfg Config

	priorCov     float64
	posteriorCov float64
	gain         float64
	prior        float64
	estimate     float64
	lastRaw      float64

	innovations  window
	states       window
	measurements window
}

// New creates a filter. The initial estimate is zero with unit error
// covariance.
func New(cfg Config) (*Filter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f := &Filter{cfg: cfg}
	f.reset()
	return f, nil
}

func (f *Filter) reset() {
	f.priorCov = 1
	f.posteriorCov = 1
	f.gain = 0
	f.prior = 0
	f.estimate = 0
	f.lastRaw = 0
	f.innovations = newWindow(f.cfg.History)
	f.states = newWindow(f.cfg.History)
	f.measurements = newWindow(f.cfg.History)
}

// Reset returns the filter to its initial state, keeping the current
// Q and R.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

// Update feeds one measurement and returns the new estimate.
func (f *Filter) Update(z float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	old := f.estimate
	predicted := old
	if math.Abs(old-z) >= f.cfg.JumpThreshold {
		predicted = jumpWeight*z + (1-jumpWeight)*old
	}

	f.prior = predicted
	f.priorCov = f.posteriorCov + f.cfg.Q
	f.gain = f.priorCov / (f.priorCov + f.cfg.R)

	// The innovation is taken against the previous estimate, not the
	// jump-adjusted prediction.
	innovation := z - old
	f.estimate = predicted + f.gain*innovation
	f.posteriorCov = (1 - f.gain) * f.priorCov
	f.lastRaw = z

	f.innovations.push(innovation)
	f.states.push(f.estimate)
	f.measurements.push(z)

	f.adapt()
	return f.estimate
}

// adapt nudges R and Q towards the innovation and state change variance
// of the most recent batch.
func (f *Filter) adapt() {
	if f.states.len() < f.cfg.MinSamples {
		return
	}
	n := min(f.cfg.Batch, f.states.len())
	inn := f.innovations.last(n)
	st := f.states.last(n)

	innovationVar := floats.Dot(inn, inn) / float64(n)

	processVar := 0.0
	if n > 1 {
		diff := make([]float64, n-1)
		floats.SubTo(diff, st[1:], st[:n-1])
		processVar = floats.Dot(diff, diff) / float64(n-1)
	}

	f.cfg.R = (1-f.cfg.AlphaR)*f.cfg.R + f.cfg.AlphaR*innovationVar
	f.cfg.Q = (1-f.cfg.AlphaQ)*f.cfg.Q + f.cfg.AlphaQ*processVar*processScale

	f.cfg.R = math.Max(minR, f.cfg.R)
	f.cfg.Q = math.Max(minQ, f.cfg.Q)
}

// Estimate returns the latest estimate.
func (f *Filter) Estimate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.estimate
}

// State returns a snapshot of the filter.
func (f *Filter) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Q:                 f.cfg.Q,
		R:                 f.cfg.R,
		PriorErrorCov:     f.priorCov,
		PosteriorErrorCov: f.posteriorCov,
		Gain:              f.gain,
		PriorEstimate:     f.prior,
		Estimate:          f.estimate,
		LastRaw:           f.lastRaw,
		AlphaR:            f.cfg.AlphaR,
		AlphaQ:            f.cfg.AlphaQ,
		HistoryCap:        f.cfg.History,
		HistorySize:       f.states.len(),
	}
}

// Config returns the current tuning, including the adapted Q and R.
func (f *Filter) Config() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

// SetQ overrides the process noise covariance. Adaptation continues from
// the new value.
func (f *Filter) SetQ(q float64) error {
	if !(q > 0) || math.IsInf(q, 0) {
		return fmt.Errorf("%w: q %v", ErrInvalidParameter, q)
	}
	f.mu.Lock()
	f.cfg.Q = q
	f.mu.Unlock()
	return nil
}

// SetR overrides the measurement noise covariance.
func (f *Filter) SetR(r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: r %v", ErrInvalidParameter, r)
	}
	f.mu.Lock()
	f.cfg.R = r
	f.mu.Unlock()
	return nil
}

// SetAlpha sets the R learning rate to a and the Q learning rate to a/10.
func (f *Filter) SetAlpha(a float64) error {
	if !(a >= 0 && a <= 1) {
		return fmt.Errorf("%w: alpha %v", ErrInvalidParameter, a)
	}
	f.mu.Lock()
	f.cfg.AlphaR = a
	f.cfg.AlphaQ = a * 0.1
	f.mu.Unlock()
	return nil
}

// SetHistory changes the window capacity. Shrinking drops the oldest
// samples immediately.
func (f *Filter) SetHistory(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: history %d", ErrInvalidParameter, n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg.History = n
	f.innovations.resize(n)
	f.states.resize(n)
	f.measurements.resize(n)
	return nil
}
