// Package imu reads body tilt from an inertial sensor.
package imu

import (
	"errors"
	"math"
)

// ErrUnavailable is returned when no sensor is fitted or it stopped
// answering.
var ErrUnavailable = errors.New("imu unavailable")

// Tilt is the body tilt in degrees. X is fore/aft (pitch), Y is
// side to side (roll).
type Tilt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Magnitude returns |X| + |Y|.
func (t Tilt) Magnitude() float64 {
	return math.Abs(t.X) + math.Abs(t.Y)
}

// Reader provides tilt samples. Implementations must be safe for use from
// a single goroutine; the control loop is the only caller.
type Reader interface {
	ReadTilt() (Tilt, error)
	Close() error
}

// None is a Reader for robots without a sensor. Every read fails with
// ErrUnavailable.
type None struct{}

func (None) ReadTilt() (Tilt, error) { return Tilt{}, ErrUnavailable }
func (None) Close() error            { return nil }

// Available reports whether r can deliver samples.
func Available(r Reader) bool {
	if r == nil {
		return false
	}
	_, none := r.(None)
	return !none
}

// TiltFromAccel converts a gravity vector into pitch and roll. Only
// ratios matter, so raw sensor counts work as well as m/s².
func TiltFromAccel(ax, ay, az float64) Tilt {
	roll := math.Atan2(ay, az)
	pitch := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))
	return Tilt{
		X: pitch * 180 / math.Pi,
		Y: roll * 180 / math.Pi,
	}
}
